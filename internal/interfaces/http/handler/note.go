package handler

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"note-article-api/internal/application/note"
	"note-article-api/internal/domain/entity"
	"note-article-api/internal/domain/repository"
	"note-article-api/internal/interfaces/http/dto"
	"note-article-api/pkg/errors"
	"note-article-api/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// NoteGenerator 生成流水线
type NoteGenerator interface {
	Generate(ctx context.Context, raw note.RawGenerationRequest) (*entity.GenerationResult, error)
}

// NoteHandler 记事生成与历史查询
type NoteHandler struct {
	generator NoteGenerator
	history   repository.NoteLogReader
}

// NewNoteHandler 创建记事处理器
func NewNoteHandler(generator NoteGenerator, history repository.NoteLogReader) *NoteHandler {
	return &NoteHandler{
		generator: generator,
		history:   history,
	}
}

// Generate 生成记事
// @Summary 生成记事
// @Description 草稿与润色两阶段生成，接受 JSON 或表单
// @Tags Notes
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param body body note.RawGenerationRequest true "生成参数"
// @Success 200 {object} entity.GenerationResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/notes/generate [post]
func (h *NoteHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var raw note.RawGenerationRequest
	var err error
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		err = c.ShouldBindWith(&raw, binding.Form)
	default:
		err = c.ShouldBindJSON(&raw)
	}
	if err != nil {
		dto.Error(c, errors.Validation("request body must be a JSON object or form").
			WithDetail("error", err.Error()))
		return
	}

	result, err := h.generator.Generate(ctx, raw)
	if err != nil {
		writeError(c, err)
		return
	}
	dto.OK(c, result)
}

// List 最近生成的记事
// @Summary 历史记事列表
// @Tags Notes
// @Produce json
// @Param limit query int false "条数" default(20)
// @Success 200 {object} dto.NoteListResponse
// @Router /api/v1/notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			dto.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	logs, err := h.history.ListRecent(ctx, limit)
	if err != nil {
		if !repository.IsLedgerError(err) {
			writeError(c, err)
			return
		}
		logger.Warn(ctx, "list notes degraded, ledger unavailable", "error", err.Error())
		logs = nil
	}
	dto.OK(c, dto.ToNoteListResponse(logs))
}

// Get 按 note_id 返回完整生成结果
// @Summary 记事详情
// @Tags Notes
// @Produce json
// @Param note_id path string true "记事 ID"
// @Success 200 {object} entity.GenerationResult
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/notes/{note_id} [get]
func (h *NoteHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	noteID := c.Param("note_id")

	log, err := h.history.FindByID(ctx, noteID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoteLogNotFound) {
			dto.NotFound(c, "note not found")
			return
		}
		logger.Error(ctx, "failed to load note", err, "note_id", noteID)
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(log.RawJSON))
}
