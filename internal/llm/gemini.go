package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig configures the Gemini streamer.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
	Logger      *slog.Logger
}

// GeminiStreamer streams completions from the Gemini API.
type GeminiStreamer struct {
	client *genai.Client
	cfg    GeminiConfig
	logger *slog.Logger
}

var _ Streamer = (*GeminiStreamer)(nil)

// NewGeminiStreamer creates a Gemini-backed streamer.
func NewGeminiStreamer(ctx context.Context, cfg GeminiConfig) (*GeminiStreamer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiStreamer{client: client, cfg: cfg, logger: logger}, nil
}

// Stream sends the conversation to Gemini and forwards text as it arrives.
func (g *GeminiStreamer) Stream(ctx context.Context, messages []Message, opts Options, onText func(string) error) (*Usage, error) {
	system, contents := toContents(messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("no user or assistant messages to send")
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.cfg.Temperature),
		MaxOutputTokens: g.cfg.MaxTokens,
	}
	if opts.Temperature != nil {
		config.Temperature = genai.Ptr(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = opts.MaxTokens
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	usage := &Usage{}
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.cfg.Model, contents, config) {
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("gemini generation failed: %w", err)
		}
		if resp.UsageMetadata != nil {
			usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
			usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
		}
		if text := resp.Text(); text != "" {
			if err := onText(text); err != nil {
				return nil, err
			}
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	g.logger.Debug("[llm] gemini stream completed", "model", g.cfg.Model, "total_tokens", usage.TotalTokens)
	return usage, nil
}

// toContents splits system messages into one instruction and maps the rest
// to Gemini's user/model roles.
func toContents(messages []Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case model.MessageRoleSystem:
			system = append(system, m.Content)
		case model.MessageRoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
