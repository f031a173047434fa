// Package gemini implements the completion client over the Google
// generative AI SDK. The engine's default wiring uses a flash model for
// the fast tier and a pro model for the capable tier.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/sweetpotato0/evoseek/completion"
	"github.com/sweetpotato0/evoseek/message"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   2048,
		Temperature: 0.4,
	}
}

// Provider implements completion.Client for one Gemini model.
type Provider struct {
	config *Config
	client *genai.Client
}

// New creates a Gemini provider using the official SDK.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Complete implements completion.Client.
func (p *Provider) Complete(ctx context.Context, req *completion.Request) (*completion.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("gemini: request cannot be nil")
	}

	model := p.client.GenerativeModel(p.config.Model)
	model.SetMaxOutputTokens(p.config.MaxTokens)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	model.SetTemperature(p.config.Temperature)
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}

	// Gemini takes system text as a separate instruction, not a turn.
	var userParts []genai.Part
	var systemParts []genai.Part
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			systemParts = append(systemParts, genai.Text(msg.Text()))
		default:
			userParts = append(userParts, genai.Text(msg.Text()))
		}
	}
	if len(systemParts) > 0 {
		model.SystemInstruction = &genai.Content{Parts: systemParts}
	}
	if len(userParts) == 0 {
		return nil, fmt.Errorf("gemini: no user content in request")
	}

	resp, err := model.GenerateContent(ctx, userParts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: no candidates in response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("gemini: no text parts in candidate")
	}
	return &completion.Response{Text: b.String(), Model: p.config.Model}, nil
}

// Ping verifies reachability with a token count, the cheapest metered call.
func (p *Provider) Ping(ctx context.Context) error {
	model := p.client.GenerativeModel(p.config.Model)
	if _, err := model.CountTokens(ctx, genai.Text("ping")); err != nil {
		return fmt.Errorf("gemini: ping: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (p *Provider) Close() error { return p.client.Close() }
