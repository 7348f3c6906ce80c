package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenUsageAddIsFieldWise(t *testing.T) {
	first := TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150}
	second := TokenUsage{PromptTokens: 40, CompletionTokens: 20, TotalTokens: 60}

	assert.Equal(t, TokenUsage{PromptTokens: 140, CompletionTokens: 70, TotalTokens: 210}, first.Add(second))
	assert.Equal(t, second, TokenUsage{}.Add(second))
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, ArticleType("how_to").Valid())
	assert.False(t, ArticleType("howto").Valid())
	assert.True(t, LengthLong.Valid())
	assert.False(t, LengthClass("huge").Valid())
}

func TestNoteLogRowFollowsLedgerColumns(t *testing.T) {
	createdAt := time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	req := GenerationRequest{
		Topic: "X", Audience: "Y", Goal: "Z",
		ArticleType: ArticleTypeCase, LengthClass: LengthShort,
		Temperature: 0.7, IntensityLevel: 5,
	}
	result := &GenerationResult{
		Status:   StatusSuccess,
		NoteID:   "note_20250304_050607_008",
		Title:    "B",
		Sections: []Section{},
		Metadata: GenerationMetadata{TokenUsage: TokenUsage{TotalTokens: 210}},
	}

	log, err := NewNoteLog(req, result, createdAt)
	require.NoError(t, err)

	row := log.Row()
	require.Len(t, row, len(LedgerColumns))
	assert.Equal(t, []string{
		"note_20250304_050607_008", "X", "Y", "Z", "case", "short", "0.7", "5", "B",
	}, row[:9])
	assert.Equal(t, "210", row[10])
	assert.Equal(t, "2025-03-04T05:06:07.008Z", row[11])

	var stored GenerationResult
	require.NoError(t, json.Unmarshal([]byte(row[9]), &stored))
	assert.Equal(t, *result, stored)

	back, err := NoteLogFromRow(row)
	require.NoError(t, err)
	assert.Equal(t, log.NoteID, back.NoteID)
	assert.Equal(t, log.TotalTokens, back.TotalTokens)
	assert.True(t, log.CreatedAt.Equal(back.CreatedAt))
}

func TestNoteLogFromRowRejectsShortRow(t *testing.T) {
	_, err := NoteLogFromRow([]string{"note_1"})
	assert.Error(t, err)
}
