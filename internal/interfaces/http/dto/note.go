package dto

import (
	"note-article-api/internal/domain/entity"
)

// NoteSummary 历史列表中的一条记录
type NoteSummary struct {
	NoteID         string `json:"note_id"`
	Topic          string `json:"topic"`
	Title          string `json:"title"`
	CreatedAt      string `json:"created_at"`
	ArticleType    string `json:"article_type"`
	IntensityLevel int    `json:"intensity_level"`
	TotalTokens    int64  `json:"total_tokens"`
}

// NoteListResponse 历史列表
type NoteListResponse struct {
	Items []NoteSummary `json:"items"`
}

// ToNoteSummary 台账记录转列表项
func ToNoteSummary(l *entity.NoteLog) NoteSummary {
	return NoteSummary{
		NoteID:         l.NoteID,
		Topic:          l.Topic,
		Title:          l.Title,
		CreatedAt:      l.CreatedAt.Format(entity.LedgerTimeLayout),
		ArticleType:    l.ArticleType,
		IntensityLevel: l.IntensityLevel,
		TotalTokens:    l.TotalTokens,
	}
}

// ToNoteListResponse 批量转换，结果不为 nil
func ToNoteListResponse(logs []*entity.NoteLog) NoteListResponse {
	items := make([]NoteSummary, 0, len(logs))
	for _, l := range logs {
		items = append(items, ToNoteSummary(l))
	}
	return NoteListResponse{Items: items}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ReadinessCheck 单个依赖的就绪状态
type ReadinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

// ReadinessResponse 就绪检查响应
type ReadinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*ReadinessCheck `json:"checks,omitempty"`
}
