package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const anthropicMessagesURL = "https://api.anthropic.com/v1/messages"

// AnthropicConfig defines configuration options for the Anthropic analyzer.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
	Logger    zerolog.Logger
}

// AnthropicAnalyzer implements EssayAnalyzer against the Anthropic Messages API.
// There is no official Go SDK, so the wire format is spoken directly.
type AnthropicAnalyzer struct {
	cfg    AnthropicConfig
	client *http.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewAnthropicAnalyzer builds a new analyzer using the provided configuration.
func NewAnthropicAnalyzer(cfg AnthropicConfig) (*AnthropicAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicMessagesURL
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &AnthropicAnalyzer{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		tracer: otel.Tracer("github.com/mentoria/mentoria-api/pkg/ai/anthropic"),
		logger: logger,
	}, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage map[string]interface{} `json:"usage"`
}

// Analyze sends the submission to Anthropic and parses the proposed findings.
func (a *AnthropicAnalyzer) Analyze(parent context.Context, input AnalysisInput) (AnalysisResult, error) {
	ctx, span := a.tracer.Start(parent, "anthropic.analyze", trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	result, err := a.doRequest(ctx, input)
	aiDuration.WithLabelValues(a.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AnalysisResult{}, err
	}

	return result, nil
}

func (a *AnthropicAnalyzer) doRequest(ctx context.Context, input AnalysisInput) (AnalysisResult, error) {
	payload := anthropicRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		System:    analyzerSystemPrompt(),
		Messages: []anthropicMessage{
			{Role: "user", Content: buildAnalysisPrompt(input)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("anthropic marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("anthropic build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("anthropic analyze: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("anthropic read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return AnalysisResult{}, fmt.Errorf("anthropic analyze: unexpected status %d", resp.StatusCode)
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return AnalysisResult{}, fmt.Errorf("anthropic decode response: %w", err)
	}

	text := ""
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if strings.TrimSpace(text) == "" {
		return AnalysisResult{}, fmt.Errorf("no text content returned from anthropic")
	}

	result, err := parseAnalysisResponse(strings.TrimSpace(text))
	if err != nil {
		return AnalysisResult{}, err
	}

	result.Raw = map[string]interface{}{"usage": decoded.Usage}

	return result, nil
}
