package deliberation

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// NeutralConfidence is used when a response carries no usable confidence
	NeutralConfidence = 0.5

	fallbackOpinionChars = 500
	fallbackReasoning    = "Response was not in expected JSON format."
)

var (
	errEmptyResponse    = errors.New("provider returned an empty response")
	errMissingSummary   = errors.New("chair response has no summary")
	errMissingRecommend = errors.New("chair response has no recommendation")
	errChairNotJSON     = errors.New("chair response is not valid JSON")
)

// ParsedOpinion holds the normalized fields of an agent response
type ParsedOpinion struct {
	Opinion    string
	Reasoning  string
	Confidence float64
	Structured bool // false when the raw text fallback was used
}

// ParsedSynthesis holds the fields of a chair response
type ParsedSynthesis struct {
	Summary        string
	Recommendation string
}

type opinionPayload struct {
	Opinion    string   `json:"opinion"`
	Reasoning  string   `json:"reasoning"`
	Confidence *float64 `json:"confidence"`
}

type synthesisPayload struct {
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
}

// Parser turns provider text into opinion and synthesis fields
type Parser struct{}

// NewParser creates a new parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseOpinion extracts an agent opinion. Text that holds no JSON object is
// kept as the opinion with neutral confidence instead of failing the task.
func (p *Parser) ParseOpinion(content string) (ParsedOpinion, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return ParsedOpinion{}, errEmptyResponse
	}

	var payload opinionPayload
	if extractJSON(content, &payload) && strings.TrimSpace(payload.Opinion) != "" {
		out := ParsedOpinion{
			Opinion:    strings.TrimSpace(payload.Opinion),
			Reasoning:  strings.TrimSpace(payload.Reasoning),
			Confidence: NeutralConfidence,
			Structured: true,
		}
		if payload.Confidence != nil {
			out.Confidence = clampConfidence(*payload.Confidence)
		}
		return out, nil
	}

	return ParsedOpinion{
		Opinion:    truncateRunes(content, fallbackOpinionChars),
		Reasoning:  fallbackReasoning,
		Confidence: NeutralConfidence,
	}, nil
}

// ParseSynthesis extracts the chair summary and recommendation. Both fields
// are required.
func (p *Parser) ParseSynthesis(content string) (ParsedSynthesis, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return ParsedSynthesis{}, errEmptyResponse
	}

	var payload synthesisPayload
	if !extractJSON(content, &payload) {
		return ParsedSynthesis{}, errChairNotJSON
	}

	out := ParsedSynthesis{
		Summary:        strings.TrimSpace(payload.Summary),
		Recommendation: strings.TrimSpace(payload.Recommendation),
	}
	if out.Summary == "" {
		return ParsedSynthesis{}, errMissingSummary
	}
	if out.Recommendation == "" {
		return ParsedSynthesis{}, errMissingRecommend
	}
	return out, nil
}

// extractJSON decodes the first JSON object found in content into v. It tries
// the whole text, then fenced code blocks, then the outermost brace span.
func extractJSON(content string, v interface{}) bool {
	candidates := []string{content}
	candidates = append(candidates, fencedBlocks(content)...)
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start != -1 && end > start {
		candidates = append(candidates, content[start:end+1])
	}

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if !strings.HasPrefix(c, "{") {
			continue
		}
		if err := json.Unmarshal([]byte(c), v); err == nil {
			return true
		}
	}
	return false
}

// fencedBlocks returns the bodies of ``` code fences, dropping a language tag
func fencedBlocks(content string) []string {
	var blocks []string
	rest := content
	for {
		start := strings.Index(rest, "```")
		if start == -1 {
			return blocks
		}
		rest = rest[start+3:]
		end := strings.Index(rest, "```")
		if end == -1 {
			return blocks
		}
		body := rest[:end]
		if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.Contains(body[:nl], "{") {
			body = body[nl+1:]
		}
		blocks = append(blocks, strings.TrimPrefix(strings.TrimSpace(body), "json"))
		rest = rest[end+3:]
	}
}

func clampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return NeutralConfidence
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
