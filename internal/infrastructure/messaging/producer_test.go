package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-article-api/internal/domain/service"
)

func TestXAddArgsCarriesSerializedMessage(t *testing.T) {
	event := &service.NoteGeneratedEvent{
		NoteID:      "note_20250101_000000_000",
		Title:       "B",
		TotalTokens: 210,
		CreatedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	msg, err := NewMessage(event.NoteID, TypeNoteGenerated, event)
	require.NoError(t, err)

	args, err := xaddArgs(StreamNoteGenerated, 500, msg)
	require.NoError(t, err)
	assert.Equal(t, "stream:note:generated", args.Stream)
	assert.Equal(t, int64(500), args.MaxLen)
	assert.True(t, args.Approx)

	values, ok := args.Values.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, values["data"], `"type":"note_generated"`)

	var decoded service.NoteGeneratedEvent
	require.NoError(t, msg.UnmarshalPayload(&decoded))
	assert.Equal(t, *event, decoded)
}

func TestNewProducerDefaultsMaxLen(t *testing.T) {
	assert.Equal(t, int64(10000), NewProducer(nil, 0).maxLen)
}
