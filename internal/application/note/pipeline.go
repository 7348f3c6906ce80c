package note

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"note-article-api/internal/application/quota"
	"note-article-api/internal/config"
	"note-article-api/internal/domain/entity"
	"note-article-api/internal/domain/repository"
	"note-article-api/internal/domain/service"
	"note-article-api/internal/workflow/node"
	"note-article-api/internal/workflow/port"
	"note-article-api/internal/workflow/prompt"
	"note-article-api/pkg/logger"
	"note-article-api/pkg/metrics"
	"note-article-api/pkg/tracer"
)

// InternalError 生成阶段的非预期失败，Err 保留原始原因
type InternalError struct {
	Stage    string
	Provider string
	Model    string
	Err      error
}

func (e *InternalError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("note generation failed at %s (%s/%s): %v", e.Stage, e.Provider, e.Model, e.Err)
	}
	return fmt.Sprintf("note generation failed at %s: %v", e.Stage, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// stageRecord 传给第二阶段的完整第一阶段结果
type stageRecord struct {
	entity.CompletionResult
	Usage entity.TokenUsage `json:"usage"`
}

// Generator 两阶段记事生成流水线：校验、配额、草稿、润色、汇总、记账
type Generator struct {
	llm       *config.LLMConfig
	guard     *quota.Guard
	providers port.ProviderResolver
	prompts   *prompt.Registry
	ledger    repository.NoteLedger
	publisher service.NoteEventPublisher
	loc       *time.Location
	now       func() time.Time
}

// NewGenerator 创建流水线；publisher 可为 nil
func NewGenerator(
	llmCfg *config.LLMConfig,
	guard *quota.Guard,
	providers port.ProviderResolver,
	prompts *prompt.Registry,
	ledger repository.NoteLedger,
	publisher service.NoteEventPublisher,
	loc *time.Location,
) *Generator {
	if loc == nil {
		loc = time.Local
	}
	return &Generator{
		llm:       llmCfg,
		guard:     guard,
		providers: providers,
		prompts:   prompts,
		ledger:    ledger,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
	}
}

// Generate 执行完整流水线。
// 返回 *ValidationError、*quota.ExceededError 或 *InternalError；台账写入失败不影响结果。
func (g *Generator) Generate(ctx context.Context, raw RawGenerationRequest) (*entity.GenerationResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "note.Generate")
	defer span.End()

	req, err := BuildRequest(raw)
	if err != nil {
		metrics.NoteGenerationTotal.WithLabelValues("validation_error").Inc()
		span.SetAttributes(attribute.String("note.outcome", "validation_error"))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("note.article_type", string(req.ArticleType)),
		attribute.String("note.length_class", string(req.LengthClass)),
	)

	estimate := EstimateTokens(req.LengthClass)
	decision, err := g.guard.WouldExceed(ctx, estimate)
	if err != nil {
		return nil, g.fail(ctx, req, &InternalError{Stage: "quota", Err: err})
	}
	if err := decision.Err(); err != nil {
		metrics.NoteGenerationTotal.WithLabelValues("quota_exceeded").Inc()
		logger.Warn(ctx, "monthly token quota exceeded",
			"current", decision.Current,
			"estimate", decision.Estimate,
			"limit", decision.Limit,
		)
		return nil, err
	}

	createdAt := g.now().In(g.loc)
	noteID := NewNoteID(createdAt)
	ctx = logger.WithNoteID(ctx, noteID)
	span.SetAttributes(attribute.String("note.id", noteID))

	logger.Info(ctx, "note generation started",
		"topic", req.Topic,
		"article_type", req.ArticleType,
		"length_class", req.LengthClass,
		"quota_degraded", decision.Degraded,
	)

	requestJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, g.fail(ctx, req, &InternalError{Stage: service.StageDraft, Err: err})
	}
	draft, err := g.runStage(ctx, service.StageDraft, g.llm.Draft, req.Temperature, prompt.PromptDraftV1, map[string]any{
		"topic":           req.Topic,
		"audience":        req.Audience,
		"goal":            req.Goal,
		"article_type":    string(req.ArticleType),
		"length_class":    string(req.LengthClass),
		"intensity_level": req.IntensityLevel,
		"request_json":    string(requestJSON),
	})
	if err != nil {
		return nil, g.fail(ctx, req, err)
	}

	draftJSON, err := json.MarshalIndent(stageRecord{CompletionResult: draft, Usage: draft.Usage}, "", "  ")
	if err != nil {
		return nil, g.fail(ctx, req, &InternalError{Stage: service.StageStyle, Err: err})
	}
	styled, err := g.runStage(ctx, service.StageStyle, g.llm.Style, g.llm.Style.Temperature, prompt.PromptStyleV1, map[string]any{
		"draft_json": string(draftJSON),
	})
	if err != nil {
		return nil, g.fail(ctx, req, err)
	}

	result := assemble(noteID, req, styled, draft.Usage.Add(styled.Usage))

	if err := g.record(ctx, req, result, createdAt); err != nil {
		return nil, g.fail(ctx, req, &InternalError{Stage: "ledger", Err: err})
	}
	g.publish(ctx, req, result, createdAt)

	metrics.NoteGenerationTotal.WithLabelValues("success").Inc()
	metrics.NoteGenerationDuration.Observe(time.Since(start).Seconds())
	logger.Info(ctx, "note generation finished",
		"title", result.Title,
		"total_tokens", result.Metadata.TokenUsage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// runStage 渲染提示词、调用提供商并解析输出
func (g *Generator) runStage(
	ctx context.Context,
	stage string,
	sc config.StageConfig,
	temperature float64,
	promptID prompt.PromptID,
	vars map[string]any,
) (entity.CompletionResult, error) {
	providerName := g.llm.ProviderName(sc)
	model := g.llm.ModelFor(sc)
	stageErr := func(err error) error {
		return &InternalError{Stage: stage, Provider: providerName, Model: model, Err: err}
	}

	ctx = service.WithStageProvider(ctx, stage, providerName)
	ctx = logger.WithContext(ctx, logger.StageKey, stage)
	ctx, span := tracer.Start(ctx, "note.stage."+stage)
	span.SetAttributes(
		attribute.String("llm.provider", providerName),
		attribute.String("llm.model", model),
	)
	defer span.End()

	rendered, err := g.prompts.Render(ctx, promptID, vars)
	if err != nil {
		return entity.CompletionResult{}, stageErr(err)
	}

	provider, err := g.providers.Get(ctx, providerName)
	if err != nil {
		return entity.CompletionResult{}, stageErr(err)
	}

	callStart := time.Now()
	completion, err := provider.Complete(ctx, &port.CompletionRequest{
		SystemPrompt:    rendered.System,
		UserPrompt:      rendered.User,
		MaxOutputTokens: sc.MaxTokens,
		Temperature:     temperature,
		Model:           model,
	})
	metrics.LLMCallDuration.WithLabelValues(stage, providerName, model).Observe(time.Since(callStart).Seconds())
	if err != nil {
		tracer.Fail(span, err)
		metrics.LLMCallTotal.WithLabelValues(stage, providerName, model, "error").Inc()
		return entity.CompletionResult{}, stageErr(err)
	}
	metrics.LLMCallTotal.WithLabelValues(stage, providerName, model, "success").Inc()

	usage := normalizeUsage(completion.Usage)
	metrics.LLMTokensUsed.WithLabelValues(stage, providerName, model, "input").Add(float64(usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(stage, providerName, model, "output").Add(float64(usage.CompletionTokens))

	parsed, err := node.ExtractJSON[entity.CompletionResult](completion.Text)
	if err != nil {
		tracer.Fail(span, err)
		return entity.CompletionResult{}, stageErr(err)
	}
	parsed.Usage = usage

	logger.Debug(ctx, "stage completed",
		"provider", providerName,
		"model", model,
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens,
	)
	return parsed, nil
}

// record 写入台账；仅吞掉 LedgerError
func (g *Generator) record(ctx context.Context, req entity.GenerationRequest, result *entity.GenerationResult, createdAt time.Time) error {
	entry, err := entity.NewNoteLog(req, result, createdAt)
	if err != nil {
		return err
	}
	if err := g.ledger.Append(ctx, entry); err != nil {
		if !repository.IsLedgerError(err) {
			return err
		}
		metrics.LedgerWriteFailures.WithLabelValues(g.ledger.Backend()).Inc()
		logger.Warn(ctx, "ledger write failed, result kept",
			"backend", g.ledger.Backend(),
			"error", err.Error(),
		)
	}
	return nil
}

func (g *Generator) publish(ctx context.Context, req entity.GenerationRequest, result *entity.GenerationResult, createdAt time.Time) {
	if g.publisher == nil {
		return
	}
	err := g.publisher.PublishNoteGenerated(ctx, &service.NoteGeneratedEvent{
		NoteID:      result.NoteID,
		Title:       result.Title,
		ArticleType: string(req.ArticleType),
		TotalTokens: result.Metadata.TokenUsage.TotalTokens,
		CreatedAt:   createdAt,
	})
	if err != nil {
		logger.Warn(ctx, "publish note event failed", "error", err.Error())
	}
}

// fail 记录完整上下文后返回错误
func (g *Generator) fail(ctx context.Context, req entity.GenerationRequest, err error) error {
	metrics.NoteGenerationTotal.WithLabelValues("error").Inc()
	args := []any{
		"topic", req.Topic,
		"audience", req.Audience,
		"goal", req.Goal,
		"article_type", req.ArticleType,
		"length_class", req.LengthClass,
		"temperature", req.Temperature,
		"intensity_level", req.IntensityLevel,
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		args = append(args, "stage", ie.Stage, "provider", ie.Provider, "model", ie.Model)
	}
	logger.Error(ctx, "note generation failed", err, args...)
	return err
}

func assemble(noteID string, req entity.GenerationRequest, styled entity.CompletionResult, usage entity.TokenUsage) *entity.GenerationResult {
	return &entity.GenerationResult{
		Status:   entity.StatusSuccess,
		NoteID:   noteID,
		Title:    styled.Title,
		Lead:     styled.Lead,
		Sections: append([]entity.Section{}, styled.Sections...),
		CTA:      styled.CTA,
		Metadata: entity.GenerationMetadata{
			Topic:              req.Topic,
			Audience:           req.Audience,
			Goal:               req.Goal,
			ArticleType:        req.ArticleType,
			LengthClass:        req.LengthClass,
			TemperatureUsed:    req.Temperature,
			IntensityLevelUsed: req.IntensityLevel,
			TokenUsage:         usage,
		},
	}
}

// normalizeUsage 提供商只报告了输入输出两部分时补齐 total
func normalizeUsage(u entity.TokenUsage) entity.TokenUsage {
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}
