// Package openai implements the completion client over the official
// OpenAI SDK.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/sweetpotato0/evoseek/completion"
	"github.com/sweetpotato0/evoseek/message"
)

// Config holds OpenAI provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gpt-4o-mini",
		MaxTokens:   2048,
		Temperature: 0.4,
	}
}

// Provider implements completion.Client for one OpenAI model.
type Provider struct {
	config *Config
	client openai.Client
}

// New creates an OpenAI provider using the official SDK.
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	return &Provider{config: config, client: openai.NewClient(options...)}
}

// Complete implements completion.Client.
func (p *Provider) Complete(ctx context.Context, req *completion.Request) (*completion.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("openai: request cannot be nil")
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(msg.Text()))
		case message.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(msg.Text()))
		default:
			msgs = append(msgs, openai.UserMessage(msg.Text()))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    openai.ChatModel(p.config.Model),
	}
	if t := pick(req.Temperature, p.config.Temperature); t > 0 {
		params.Temperature = param.NewOpt(t)
	}
	if n := pickInt(req.MaxTokens, p.config.MaxTokens); n > 0 {
		params.MaxCompletionTokens = param.NewOpt(n)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}
	return &completion.Response{Text: resp.Choices[0].Message.Content, Model: p.config.Model}, nil
}

// Ping verifies reachability by listing models.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("openai: ping: %w", err)
	}
	return nil
}

func pick(reqVal, cfgVal float64) float64 {
	if reqVal > 0 {
		return reqVal
	}
	return cfgVal
}

func pickInt(reqVal, cfgVal int64) int64 {
	if reqVal > 0 {
		return reqVal
	}
	return cfgVal
}
