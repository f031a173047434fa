// Package claude implements the completion client over the official
// Anthropic SDK.
package claude

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/sweetpotato0/evoseek/completion"
	"github.com/sweetpotato0/evoseek/message"
)

// Config holds Claude provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "claude-3-5-haiku-20241022",
		MaxTokens:   2048,
		Temperature: 0.4,
	}
}

// Provider implements completion.Client for one Claude model.
type Provider struct {
	config *Config
	client anthropic.Client
}

// New creates a Claude provider using the official SDK.
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "claude-3-5-haiku-20241022"
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	return &Provider{config: config, client: anthropic.NewClient(options...)}
}

// Complete implements completion.Client. System messages become the
// request-level system prompt; everything else joins the conversation.
func (p *Provider) Complete(ctx context.Context, req *completion.Request) (*completion.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("claude: request cannot be nil")
	}

	var system string
	conversation := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += msg.Text()
		case message.RoleAssistant:
			conversation = append(conversation,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Text())))
		default:
			conversation = append(conversation,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text())))
		}
	}

	maxTokens := p.config.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		Messages:  conversation,
		MaxTokens: maxTokens,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if t := p.config.Temperature; req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	} else if t > 0 {
		params.Temperature = param.NewOpt(t)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude: create message: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("claude: no text content in response")
	}
	return &completion.Response{Text: text, Model: p.config.Model}, nil
}

// Ping verifies reachability by listing models.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return fmt.Errorf("claude: ping: %w", err)
	}
	return nil
}
