package deliberation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOpinion(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name       string
		input      string
		opinion    string
		confidence float64
		structured bool
	}{
		{
			name:       "strict json",
			input:      `{"opinion":"Expand","reasoning":"Margins","confidence":0.9}`,
			opinion:    "Expand",
			confidence: 0.9,
			structured: true,
		},
		{
			name:       "fenced json",
			input:      "Here you go:\n```json\n{\"opinion\":\"Hold\",\"reasoning\":\"Risk\",\"confidence\":0.4}\n```",
			opinion:    "Hold",
			confidence: 0.4,
			structured: true,
		},
		{
			name:       "embedded object",
			input:      `My view is {"opinion":"Sell","reasoning":"Cash","confidence":0.7} thanks`,
			opinion:    "Sell",
			confidence: 0.7,
			structured: true,
		},
		{
			name:       "missing confidence defaults to neutral",
			input:      `{"opinion":"Wait","reasoning":"Unclear"}`,
			opinion:    "Wait",
			confidence: NeutralConfidence,
			structured: true,
		},
		{
			name:       "confidence above one is clamped",
			input:      `{"opinion":"Go","reasoning":"Sure","confidence":85}`,
			opinion:    "Go",
			confidence: 1,
			structured: true,
		},
		{
			name:       "negative confidence is clamped",
			input:      `{"opinion":"No","reasoning":"Bad","confidence":-0.2}`,
			opinion:    "No",
			confidence: 0,
			structured: true,
		},
		{
			name:       "plain text falls back",
			input:      "We should invest cautiously.",
			opinion:    "We should invest cautiously.",
			confidence: NeutralConfidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseOpinion(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.opinion, got.Opinion)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.structured, got.Structured)
		})
	}
}

func TestParseOpinion_FallbackTruncates(t *testing.T) {
	got, err := NewParser().ParseOpinion(strings.Repeat("é", 800))
	require.NoError(t, err)
	assert.Equal(t, fallbackOpinionChars, len([]rune(got.Opinion)))
	assert.Equal(t, fallbackReasoning, got.Reasoning)
}

func TestParseOpinion_EmptyIsError(t *testing.T) {
	_, err := NewParser().ParseOpinion("   ")
	assert.ErrorIs(t, err, errEmptyResponse)
}

func TestParseSynthesis(t *testing.T) {
	p := NewParser()

	got, err := p.ParseSynthesis("```\n{\"summary\":\"S\",\"recommendation\":\"R\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, ParsedSynthesis{Summary: "S", Recommendation: "R"}, got)

	_, err = p.ParseSynthesis(`{"summary":"S","recommendation":"  "}`)
	assert.ErrorIs(t, err, errMissingRecommend)

	_, err = p.ParseSynthesis(`{"recommendation":"R"}`)
	assert.ErrorIs(t, err, errMissingSummary)

	_, err = p.ParseSynthesis("The board should proceed.")
	assert.ErrorIs(t, err, errChairNotJSON)
}
