package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// Config selects a model and how to reach it.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string

	EmbeddingModel string
	MaxTokens      int
	Temperature    float32

	HTTPClient *http.Client
}

// ConfigFromEnv fills API keys and base URLs for model from the environment:
// ANTHROPIC_API_KEY / ANTHROPIC_BASE_URL for Claude models, OPENAI_API_KEY /
// OPENAI_BASE_URL otherwise.
func ConfigFromEnv(model string) Config {
	cfg := Config{Model: model}
	if IsClaude(model) {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		cfg.BaseURL = os.Getenv("ANTHROPIC_BASE_URL")
	} else {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	return cfg
}

// Chat produces a single completion for a system and user prompt.
type Chat interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// IsClaude reports whether model is served by Anthropic.
func IsClaude(model string) bool {
	return strings.Contains(strings.ToLower(model), "claude")
}

// NewClient returns an Anthropic client for Claude models and an
// OpenAI-compatible client for everything else.
func NewClient(cfg Config) (Chat, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if IsClaude(cfg.Model) {
		return newClaudeChat(cfg), nil
	}
	return newOpenAIChat(cfg), nil
}

func httpClient(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return &http.Client{Timeout: 120 * time.Second}
}

type openAIChat struct {
	client *openai.Client
	cfg    Config
}

func newOpenAIClient(cfg Config) *openai.Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = httpClient(cfg)
	return openai.NewClientWithConfig(oc)
}

func newOpenAIChat(cfg Config) *openAIChat {
	return &openAIChat{client: newOpenAIClient(cfg), cfg: cfg}
}

func (c *openAIChat) Complete(ctx context.Context, system, user string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

type claudeChat struct {
	client *anthropic.Client
	cfg    Config
}

func newClaudeChat(cfg Config) *claudeChat {
	opts := []anthropic.ClientOption{anthropic.WithHTTPClient(httpClient(cfg))}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return &claudeChat{client: anthropic.NewClient(cfg.APIKey, opts...), cfg: cfg}
}

func (c *claudeChat) Complete(ctx context.Context, system, user string) (string, error) {
	temp := c.cfg.Temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.cfg.Model),
		System: system,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(user),
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	var b strings.Builder
	for _, part := range resp.Content {
		if part.Text != nil {
			b.WriteString(*part.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("llm: no response content")
	}
	return b.String(), nil
}

// ExtractJSON trims a model reply to its outermost JSON object or array,
// dropping markdown fences and surrounding prose.
func ExtractJSON(s string) (string, error) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", fmt.Errorf("llm: no JSON in reply")
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return "", fmt.Errorf("llm: unterminated JSON in reply")
	}
	return s[start : end+1], nil
}
