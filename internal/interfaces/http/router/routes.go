package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 /api/v1 业务路由
//
// 生成接口只受限流约束；历史与用量属于管理接口，额外要求 API Key。
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers, rateLimit, adminAuth gin.HandlerFunc) {
	notes := v1.Group("/notes")
	{
		notes.POST("/generate", rateLimit, h.Note.Generate)
		notes.GET("", adminAuth, h.Note.List)
		notes.GET("/:note_id", adminAuth, h.Note.Get)
	}

	v1.GET("/usage", adminAuth, h.Usage.Get)
}
