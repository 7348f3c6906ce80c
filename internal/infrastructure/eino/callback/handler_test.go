package callback

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/stretchr/testify/assert"
)

func TestElapsedSeconds(t *testing.T) {
	assert.Zero(t, elapsedSeconds(context.Background()))

	ctx := context.WithValue(context.Background(), startTimeKey{}, time.Now().Add(-2*time.Second))
	assert.GreaterOrEqual(t, elapsedSeconds(ctx), 2.0)
}

func TestModelNameFromInput(t *testing.T) {
	assert.Empty(t, modelNameFromInput(nil))
	assert.Empty(t, modelNameFromInput(&model.CallbackInput{}))
	assert.Equal(t, "deepseek-chat", modelNameFromInput(&model.CallbackInput{Config: &model.Config{Model: "deepseek-chat"}}))
}

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}
