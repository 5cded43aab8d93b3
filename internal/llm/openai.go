package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"supportflow/internal/domain"
)

// OpenAIConfig configures the OpenAI-backed completer.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	// Timeout bounds each completion call. A stuck model call would otherwise
	// block the triage request indefinitely.
	Timeout time.Duration
}

// OpenAIClient implements Completer against the OpenAI Chat Completions API.
type OpenAIClient struct {
	client  openai.Client
	timeout time.Duration
}

// Ensure OpenAIClient implements Completer.
var _ Completer = (*OpenAIClient)(nil)

// NewOpenAI creates a new OpenAI completer.
func NewOpenAI(cfg OpenAIConfig) *OpenAIClient {
	opts := []option.RequestOption{}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		timeout: timeout,
	}
}

// Complete performs one chat completion and returns the raw assistant text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, turn := range req.History {
		switch turn.Role {
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, userMessage(req.UserText, req.Images))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// userMessage builds the new user turn. Attached images become multimodal
// content parts; text-only turns stay plain strings.
func userMessage(text string, images []string) openai.ChatCompletionMessageParamUnion {
	if len(images) == 0 {
		return openai.UserMessage(text)
	}
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(images)+1)
	if text != "" {
		parts = append(parts, openai.TextContentPart(text))
	}
	for _, img := range images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL:    img,
			Detail: "high",
		}))
	}
	return openai.UserMessage(parts)
}
