package helper

import (
	"fmt"
	"strings"
)

// Attributes извлекает атрибуты ресурса из разобранного тела запроса.
// Поддерживаются JSON:API ({"data":{"attributes":{...}}}), вложенный ключ
// ({"quiz":{...}} или форма quiz[name]=...) и плоское тело.
func Attributes(body map[string]interface{}, resource string) map[string]interface{} {
	if data, ok := body["data"].(map[string]interface{}); ok {
		if attrs, ok := data["attributes"].(map[string]interface{}); ok {
			return attrs
		}
	}
	if nested, ok := body[resource].(map[string]interface{}); ok {
		return nested
	}
	return body
}

// StringField возвращает строковое значение поля; числа и bool приводятся к строке
func StringField(attrs map[string]interface{}, key string) string {
	switch v := attrs[key].(type) {
	case string:
		return v
	case float64, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// StringSlice возвращает список строк: из массива, из одиночной строки
// или из полей key_a..key_d (choice_a=...)
func StringSlice(attrs map[string]interface{}, key string) []string {
	switch v := attrs[key].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}

	singular := strings.TrimSuffix(key, "s")
	var out []string
	for _, label := range []string{"a", "b", "c", "d"} {
		if s := StringField(attrs, singular+"_"+label); s != "" {
			out = append(out, s)
		}
	}
	return out
}
