package note

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-article-api/internal/domain/entity"
)

func TestBuildRequestAppliesDefaults(t *testing.T) {
	req, err := BuildRequest(RawGenerationRequest{Topic: FieldOf("  X  ")})
	require.NoError(t, err)

	assert.Equal(t, entity.GenerationRequest{
		Topic:          "X",
		ArticleType:    entity.ArticleTypeEducation,
		LengthClass:    entity.LengthMiddle,
		Temperature:    0.7,
		IntensityLevel: 5,
	}, req)
}

func TestBuildRequestFromJSON(t *testing.T) {
	var raw RawGenerationRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"topic": "X", "audience": "Y", "goal": "Z",
		"article_type": "how_to", "length_class": "long",
		"temperature": 2.0, "intensity_level": 1
	}`), &raw))

	req, err := BuildRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, entity.ArticleTypeHowTo, req.ArticleType)
	assert.Equal(t, entity.LengthLong, req.LengthClass)
	assert.Equal(t, 2.0, req.Temperature)
	assert.Equal(t, 1, req.IntensityLevel)
	assert.Equal(t, "Y", req.Audience)
}

func TestBuildRequestCollectsAllViolations(t *testing.T) {
	_, err := BuildRequest(RawGenerationRequest{
		Topic:          FieldOf("   "),
		ArticleType:    FieldOf("poem"),
		LengthClass:    FieldOf("huge"),
		Temperature:    FieldOf("2.5"),
		IntensityLevel: FieldOf("0"),
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"topic is required",
		"article_type must be one of: education, story, case, opinion, how_to",
		"length_class must be one of: short, middle, long",
		"temperature must be between 0.0 and 2.0",
		"intensity_level must be between 1 and 10",
	}, ve.Violations)
}

func TestBuildRequestRejectsNonNumbers(t *testing.T) {
	_, err := BuildRequest(RawGenerationRequest{
		Topic:          FieldOf("X"),
		Temperature:    FieldOf("warm"),
		IntensityLevel: FieldOf("5.5"),
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"temperature must be a number",
		"intensity_level must be an integer",
	}, ve.Violations)
}

func TestBuildRequestAcceptsIntegralFloatIntensity(t *testing.T) {
	req, err := BuildRequest(RawGenerationRequest{Topic: FieldOf("X"), IntensityLevel: FieldOf("7.0")})
	require.NoError(t, err)
	assert.Equal(t, 7, req.IntensityLevel)
}

func TestBuildRequestBoundaries(t *testing.T) {
	for _, tc := range []struct {
		temp, intensity string
		ok              bool
	}{
		{"0", "1", true},
		{"2", "10", true},
		{"-0.1", "5", false},
		{"0.7", "11", false},
	} {
		_, err := BuildRequest(RawGenerationRequest{
			Topic:          FieldOf("X"),
			Temperature:    FieldOf(tc.temp),
			IntensityLevel: FieldOf(tc.intensity),
		})
		assert.Equal(t, tc.ok, err == nil, "temperature=%s intensity=%s", tc.temp, tc.intensity)
	}
}

func TestBuildRequestReportsMistypedJSONFields(t *testing.T) {
	var raw RawGenerationRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"topic": "", "temperature": "hot", "intensity_level": 99, "article_type": "poem"
	}`), &raw))

	_, err := BuildRequest(raw)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"topic is required",
		"temperature must be a number",
		"intensity_level must be between 1 and 10",
		"article_type must be one of: education, story, case, opinion, how_to",
	}, ve.Violations)
}

func TestBuildRequestCoercesJSONScalars(t *testing.T) {
	var raw RawGenerationRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"topic": 2025, "audience": null, "temperature": "1.1", "intensity_level": "8"
	}`), &raw))

	req, err := BuildRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "2025", req.Topic)
	assert.Empty(t, req.Audience)
	assert.Equal(t, 1.1, req.Temperature)
	assert.Equal(t, 8, req.IntensityLevel)
}

func TestBuildRequestRejectsStructuredValues(t *testing.T) {
	var raw RawGenerationRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"topic": {"text": "X"}, "goal": ["a"], "temperature": [0.5], "intensity_level": true
	}`), &raw))

	_, err := BuildRequest(raw)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"topic must be a string",
		"goal must be a string",
		"temperature must be a number",
		"intensity_level must be an integer",
	}, ve.Violations)
}

func TestBuildRequestBlankEnumsUseDefaults(t *testing.T) {
	req, err := BuildRequest(RawGenerationRequest{
		Topic:       FieldOf("X"),
		ArticleType: FieldOf("  "),
		LengthClass: FieldOf(""),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultArticleType, req.ArticleType)
	assert.Equal(t, entity.DefaultLengthClass, req.LengthClass)
}

func TestRawFieldUnmarshalParam(t *testing.T) {
	var f RawField
	require.NoError(t, f.UnmarshalParam("0.9"))
	assert.Equal(t, FieldOf("0.9"), f)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, int64(1500), EstimateTokens(entity.LengthShort))
	assert.Equal(t, int64(3000), EstimateTokens(entity.LengthMiddle))
	assert.Equal(t, int64(5000), EstimateTokens(entity.LengthLong))
	assert.Equal(t, int64(3000), EstimateTokens("unknown"))
}
