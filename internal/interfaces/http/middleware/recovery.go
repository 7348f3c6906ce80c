// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"note-article-api/internal/interfaces/http/dto"
	"note-article-api/pkg/errors"
	"note-article-api/pkg/logger"
)

// Recovery Panic 恢复中间件，返回统一错误结构
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := string(debug.Stack())
				err := fmt.Errorf("panic: %v", rec)

				logger.Error(c.Request.Context(), "panic recovered", err,
					"stack", stack,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				// 不把 panic 内容透出给调用方
				dto.Abort(c, errors.New(errors.CodeInternalError, "Internal server error"))
			}
		}()

		c.Next()
	}
}
