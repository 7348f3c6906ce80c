// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"note-article-api/pkg/errors"
)

// ErrorBody 错误信息主体
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// ErrorResponse 统一错误响应：{"error": {code, message, details}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse 由 AppError 构造响应体，details 总是对象
func NewErrorResponse(appErr *errors.AppError) ErrorResponse {
	details := appErr.Details
	if details == nil {
		details = map[string]any{}
	}
	return ErrorResponse{Error: ErrorBody{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: details,
	}}
}

// OK 返回 200 与原始数据
func OK[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, data)
}

// Error 写入错误响应
func Error(c *gin.Context, appErr *errors.AppError) {
	c.JSON(appErr.HTTPStatus, NewErrorResponse(appErr))
}

// Abort 写入错误响应并终止后续处理
func Abort(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, NewErrorResponse(appErr))
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, errors.Validation(message))
}

// NotFound 返回 404 错误
func NotFound(c *gin.Context, message string) {
	Error(c, errors.NotFound(message))
}
