package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/johnquangdev/boardroom/pkg/config"
)

// OpenAIClient implements ReasoningClient over any OpenAI-compatible endpoint
type OpenAIClient struct {
	client      *openai.Client
	temperature float64
}

// NewOpenAIClient creates a client from the LLM config section.
// Retries are disabled: a failed agent stays failed for the round.
func NewOpenAIClient(cfg *config.LLMConfig) (*OpenAIClient, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client, temperature: cfg.Temperature}, nil
}

// Complete sends a single chat completion request
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if len(req.Content) == 0 {
		return nil, &ProviderError{Kind: ErrorKindBadResponse, Message: "empty request content"}
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			userMessage(req.Content),
		},
	}
	if req.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxCompletionTokens))
	}
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	params.Temperature = openai.Float(temperature)
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Kind: ErrorKindBadResponse, Message: "no choices in response"}
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return &Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

// userMessage collapses a single text block to a plain string message
func userMessage(blocks []ContentBlock) openai.ChatCompletionMessageParamUnion {
	if len(blocks) == 1 && blocks[0].Type == ContentText {
		return openai.UserMessage(blocks[0].Text)
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case ContentImage:
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: b.ImageURL,
			}))
		default:
			parts = append(parts, openai.TextContentPart(b.Text))
		}
	}
	return openai.UserMessage(parts)
}

func classifyError(ctx context.Context, err error) *ProviderError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		pe := &ProviderError{StatusCode: apiErr.StatusCode, Message: apiErr.Message, Err: err}
		if pe.Message == "" {
			pe.Message = err.Error()
		}
		switch {
		case apiErr.Code == "context_length_exceeded" || strings.Contains(strings.ToLower(apiErr.Message), "maximum context length"):
			pe.Kind = ErrorKindContextLength
		case apiErr.StatusCode == http.StatusTooManyRequests:
			pe.Kind = ErrorKindRateLimit
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			pe.Kind = ErrorKindAuth
		case apiErr.StatusCode == http.StatusRequestTimeout || apiErr.StatusCode == http.StatusGatewayTimeout:
			pe.Kind = ErrorKindTimeout
		default:
			pe.Kind = ErrorKindUnknown
		}
		return pe
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ProviderError{Kind: ErrorKindTimeout, Message: "request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ProviderError{Kind: ErrorKindTimeout, Message: "request canceled", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &ProviderError{Kind: ErrorKindTimeout, Message: err.Error(), Err: err}
		}
		return &ProviderError{Kind: ErrorKindNetwork, Message: err.Error(), Err: err}
	}
	return &ProviderError{Kind: ErrorKindUnknown, Message: err.Error(), Err: err}
}
