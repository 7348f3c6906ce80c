package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"note-article-api/internal/domain/service"
	"note-article-api/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

var _ service.NoteEventPublisher = (*Producer)(nil)

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	args, err := xaddArgs(stream, p.maxLen, msg)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	result, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		span.RecordError(err)
		metrics.RedisStreamPublished.WithLabelValues(string(stream), "error").Inc()
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RedisStreamPublished.WithLabelValues(string(stream), "ok").Inc()
	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishNoteGenerated 发布生成完成事件
func (p *Producer) PublishNoteGenerated(ctx context.Context, event *service.NoteGeneratedEvent) error {
	msg, err := NewMessage(event.NoteID, TypeNoteGenerated, event)
	if err != nil {
		return err
	}
	msg.SetMetadata("total_tokens", strconv.FormatInt(event.TotalTokens, 10))

	_, err = p.Publish(ctx, StreamNoteGenerated, msg)
	return err
}

func xaddArgs(stream Stream, maxLen int64, msg *Message) (*redis.XAddArgs, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: maxLen,
		Approx: true,
		Values: map[string]any{
			"data": string(data),
		},
	}, nil
}
