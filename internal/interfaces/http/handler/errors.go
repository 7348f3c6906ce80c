package handler

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"note-article-api/internal/application/note"
	"note-article-api/internal/application/quota"
	"note-article-api/internal/interfaces/http/dto"
	"note-article-api/pkg/errors"
)

// toAppError 领域错误转换为对外错误码
func toAppError(err error) *errors.AppError {
	var ve *note.ValidationError
	if stderrors.As(err, &ve) {
		return errors.Validation("invalid generation request").
			WithDetail("violations", ve.Violations)
	}

	var qe *quota.ExceededError
	if stderrors.As(err, &qe) {
		return errors.New(errors.CodeTokenLimitExceeded, "monthly token limit exceeded").
			WithDetails(map[string]any{
				"limit":     qe.Limit,
				"current":   qe.Current,
				"estimate":  qe.Estimate,
				"projected": qe.Projected,
				"remaining": qe.Remaining,
			})
	}

	return errors.AsAppError(err)
}

func writeError(c *gin.Context, err error) {
	dto.Error(c, toAppError(err))
}
