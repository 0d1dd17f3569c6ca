package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam проверяет, что параметр пути - положительный ID, и кладет его
// в контекст как uint под ключом contextKey. Иначе запрос завершается с 400.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":      "quiz " + paramName + " must be a positive integer, got " + strconv.Quote(raw),
				"error_type": "invalid_quiz_id",
			})
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}
