package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"note-article-api/internal/interfaces/http/dto"
	"note-article-api/pkg/errors"
)

// APIKeyHeader 管理接口使用的 API Key 头
const APIKeyHeader = "X-API-Key"

// APIKeyAuth 校验管理 API Key；key 为空时不做校验
func APIKeyAuth(key string) gin.HandlerFunc {
	if key == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	expected := []byte(key)

	return func(c *gin.Context) {
		provided := c.GetHeader(APIKeyHeader)
		if provided == "" {
			if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
				provided = strings.TrimSpace(token)
			}
		}
		if provided == "" {
			dto.Abort(c, errors.Unauthorized("missing API key"))
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			dto.Abort(c, errors.Unauthorized("invalid API key"))
			return
		}
		c.Next()
	}
}
