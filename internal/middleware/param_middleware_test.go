package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParamRouter() *gin.Engine {
	r := gin.New()
	r.GET("/quizzes/:id", ExtractUintParam("id", "quizID"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"quiz_id": c.MustGet("quizID").(uint)})
	})
	return r
}

func TestExtractUintParam_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	newParamRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quizzes/42", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"quiz_id":42}`, w.Body.String())
}

func TestExtractUintParam_Invalid(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-1", "99999999999"} {
		w := httptest.NewRecorder()
		newParamRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quizzes/"+raw, nil))

		require.Equal(t, http.StatusBadRequest, w.Code, raw)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "invalid_quiz_id", body["error_type"], raw)
		assert.Contains(t, body["error"], raw)
	}
}
