package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/abelbrown/skydeck/internal/logging"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider implements the Provider interface for OpenAI-compatible
// chat completion APIs.
type OpenAIProvider struct {
	apiKey string
	model  string
	client openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider. baseURL may point at any
// OpenAI-compatible endpoint; empty uses api.openai.com.
func NewOpenAIProvider(apiKey, model, baseURL string, extra ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(60 * time.Second),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)
	return &OpenAIProvider{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClient(opts...),
	}
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}

func (o *OpenAIProvider) Available() bool {
	return o.apiKey != ""
}

func (o *OpenAIProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if !o.Available() {
		logging.Warn("OpenAI provider not configured")
		return Response{}, fmt.Errorf("openai provider not configured")
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	logging.Debug("OpenAI API request starting", "model", o.model)

	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               o.model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return Response{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		logging.Warn("OpenAI response truncated due to max tokens",
			"model", resp.Model,
			"max_tokens", maxTokens,
			"content_length", len(choice.Message.Content))
	}

	logging.Info("OpenAI API response",
		"model", resp.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"content_length", len(choice.Message.Content),
		"finish_reason", choice.FinishReason)

	model := resp.Model
	if model == "" {
		model = o.model
	}
	return Response{
		Content:  choice.Message.Content,
		Model:    model,
		Provider: o.Name(),
	}, nil
}
