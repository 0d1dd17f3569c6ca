package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// BodyKey - ключ контекста, под которым лежит разобранное тело запроса
const BodyKey = "body"

const (
	// DefaultBodyLimit - максимальный размер тела запроса
	DefaultBodyLimit int64 = 1 << 20
	// maxFormDepth - глубина вложенности ключей формы вида a[b][c]
	maxFormDepth = 5

	mimeJSONAPI = "application/vnd.api+json"
)

var errFormConflict = errors.New("conflicting form keys")

// BodyParser разбирает тело запроса до маршрутов:
// JSON и application/vnd.api+json в map/slice, urlencoded-форму во вложенные map,
// text/plain в строку. Исходное тело остается доступным для c.ShouldBind*.
func BodyParser(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		contentType := c.ContentType()
		switch contentType {
		case gin.MIMEJSON, mimeJSONAPI, gin.MIMEPOSTForm, gin.MIMEPlain:
		default:
			c.Next()
			return
		}

		raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abortBody(c, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			abortBody(c, http.StatusBadRequest, "failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		if len(raw) == 0 {
			c.Next()
			return
		}

		var body interface{}
		switch contentType {
		case gin.MIMEJSON, mimeJSONAPI:
			if err := json.Unmarshal(raw, &body); err != nil {
				abortBody(c, http.StatusBadRequest, "malformed JSON body")
				return
			}
		case gin.MIMEPOSTForm:
			values, err := url.ParseQuery(string(raw))
			if err != nil {
				abortBody(c, http.StatusBadRequest, "malformed form body")
				return
			}
			nested, err := ParseNestedForm(values)
			if err != nil {
				abortBody(c, http.StatusBadRequest, err.Error())
				return
			}
			body = nested
		case gin.MIMEPlain:
			body = string(raw)
		}

		c.Set(BodyKey, body)
		c.Next()
	}
}

func abortBody(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "error_type": "invalid_body"})
}

// Body возвращает разобранное тело запроса или nil
func Body(c *gin.Context) interface{} {
	body, _ := c.Get(BodyKey)
	return body
}

// BodyMap возвращает тело как объект; для других форм тела возвращается пустой map
func BodyMap(c *gin.Context) map[string]interface{} {
	if m, ok := Body(c).(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

// ParseNestedForm превращает ключи вида quiz[name], questions[0][q], tags[]
// во вложенные map и slice. Повторяющийся простой ключ дает slice строк.
func ParseNestedForm(values url.Values) (map[string]interface{}, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]interface{})
	for _, key := range keys {
		segments := splitFormKey(key)
		for _, v := range values[key] {
			if err := assignFormValue(root, segments, v); err != nil {
				return nil, fmt.Errorf("%w: %s", err, key)
			}
		}
	}
	for k, child := range root {
		root[k] = compactArrays(child)
	}
	return root, nil
}

// splitFormKey разбивает "a[b][0]" на ["a", "b", "0"]; хвост сверх maxFormDepth остается одним сегментом
func splitFormKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}
	}
	segments := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 && rest[0] == '[' && len(segments) <= maxFormDepth {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	if rest != "" {
		segments = append(segments, rest)
	}
	return segments
}

func assignFormValue(node map[string]interface{}, segments []string, value string) error {
	head := segments[0]
	if head == "" {
		head = strconv.Itoa(len(node))
	}

	if len(segments) == 1 {
		switch existing := node[head].(type) {
		case nil:
			node[head] = value
		case string:
			node[head] = []interface{}{existing, value}
		case []interface{}:
			node[head] = append(existing, value)
		default:
			return errFormConflict
		}
		return nil
	}

	child, ok := node[head].(map[string]interface{})
	if !ok {
		if _, exists := node[head]; exists {
			return errFormConflict
		}
		child = make(map[string]interface{})
		node[head] = child
	}
	return assignFormValue(child, segments[1:], value)
}

// compactArrays заменяет map с ключами 0..n-1 на slice
func compactArrays(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	for k, child := range m {
		m[k] = compactArrays(child)
	}
	if len(m) == 0 {
		return m
	}
	list := make([]interface{}, len(m))
	for k, child := range m {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= len(m) || strconv.Itoa(idx) != k {
			return m
		}
		list[idx] = child
	}
	return list
}
