package service

import (
	"context"
	"time"
)

// NoteGeneratedEvent 一次生成成功后发布的事件
type NoteGeneratedEvent struct {
	NoteID      string    `json:"note_id"`
	Title       string    `json:"title"`
	ArticleType string    `json:"article_type"`
	TotalTokens int64     `json:"total_tokens"`
	CreatedAt   time.Time `json:"created_at"`
}

// NoteEventPublisher 生成事件发布端口；实现为 best-effort，失败由调用方记录后忽略
type NoteEventPublisher interface {
	PublishNoteGenerated(ctx context.Context, event *NoteGeneratedEvent) error
}
