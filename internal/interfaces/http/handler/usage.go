package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"note-article-api/internal/application/quota"
	"note-article-api/internal/interfaces/http/dto"
)

// UsageReporter 当月用量查询
type UsageReporter interface {
	UsageStats(ctx context.Context) (quota.Stats, error)
}

// UsageHandler 用量处理器
type UsageHandler struct {
	usage UsageReporter
}

func NewUsageHandler(usage UsageReporter) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// Get 当月 token 用量
// @Summary 当月用量
// @Tags Usage
// @Produce json
// @Success 200 {object} quota.Stats
// @Router /api/v1/usage [get]
func (h *UsageHandler) Get(c *gin.Context) {
	stats, err := h.usage.UsageStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	dto.OK(c, stats)
}
