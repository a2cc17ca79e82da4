package ai

import (
	"context"
	"fmt"
	"strings"
)

// ReasoningClient is the single capability the deliberation engine needs
// from a language model provider.
type ReasoningClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// ContentType distinguishes text and image content blocks
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
)

// ContentBlock is one part of a user message
type ContentBlock struct {
	Type     ContentType
	Text     string
	ImageURL string // data URL or remote URL
}

// TextBlock builds a text content block
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text}
}

// ImageBlock builds an image content block
func ImageBlock(url string) ContentBlock {
	return ContentBlock{Type: ContentImage, ImageURL: url}
}

// CompletionRequest describes a single chat completion
type CompletionRequest struct {
	Model               string
	SystemPrompt        string
	Content             []ContentBlock
	MaxCompletionTokens int
	JSONMode            bool
	Temperature         *float64
}

// Completion is the provider's answer plus token accounting
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// TotalTokens returns prompt plus completion tokens
func (c *Completion) TotalTokens() int {
	return c.PromptTokens + c.CompletionTokens
}

// ErrorKind classifies provider failures
type ErrorKind string

const (
	ErrorKindRateLimit     ErrorKind = "rate_limit"
	ErrorKindContextLength ErrorKind = "context_length_exceeded"
	ErrorKindAuth          ErrorKind = "auth"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindNetwork       ErrorKind = "network"
	ErrorKindBadResponse   ErrorKind = "bad_response"
	ErrorKindUnknown       ErrorKind = "unknown"
)

// ProviderError wraps a failed completion with its classification
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// jsonModeModels lists model families known to accept response_format json_object
var jsonModeModels = []string{
	"gpt-4o",
	"gpt-4-turbo",
	"gpt-3.5-turbo",
	"o1",
	"o3-mini",
}

// SupportsJSONMode reports whether the model accepts structured JSON output
func SupportsJSONMode(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, prefix := range jsonModeModels {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}
