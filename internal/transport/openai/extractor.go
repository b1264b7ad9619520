package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/attribute"
	"github.com/voltlab/designdex/internal/metrics"
)

// Extractor derives a sparse transformer parameter map from a
// natural-language request via an OpenAI-compatible chat API (a local
// Ollama works through the base URL). The regex fast path always runs;
// the model only adds parameters the regexes missed, so a flaky provider
// degrades extraction instead of breaking it.
type Extractor struct {
	client *openai.Client
	model  string
	table  *attribute.Table
	logger *zap.Logger
}

// Config holds the extraction provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Table   *attribute.Table
	Logger  *zap.Logger
}

// NewExtractor creates an OpenAI-compatible parameter extractor.
func NewExtractor(cfg *Config) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Extractor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		table:  cfg.Table,
		logger: cfg.Logger,
	}
}

// ExtractParameters returns the parameters explicitly present in the
// request. Keys follow the attribute universe; absent parameters are
// absent, never defaulted.
func (e *Extractor) ExtractParameters(ctx context.Context, text string) (map[string]any, error) {
	params := extractWithRules(text)

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.1,
		MaxTokens:   500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: e.systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	duration := time.Since(start)

	if err != nil {
		metrics.ExtractionRequestsTotal.WithLabelValues(e.model, "error").Inc()
		if len(params) > 0 {
			e.logger.Warn("extraction provider failed, using rule-based parameters only",
				zap.Error(err), zap.Int("params", len(params)))
			return params, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	metrics.ExtractionRequestsTotal.WithLabelValues(e.model, "success").Inc()
	metrics.ExtractionDuration.WithLabelValues(e.model).Observe(duration.Seconds())

	if len(resp.Choices) == 0 {
		return params, nil
	}

	llmParams := parseJSONResponse(resp.Choices[0].Message.Content)
	for k, v := range llmParams {
		if !e.table.Has(k) {
			continue // models invent keys; the universe is closed
		}
		if _, ok := params[k]; !ok && v != nil {
			params[k] = v
		}
	}
	return params, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Extractor) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Extractor) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a transformer specification expert. Extract ONLY the technical ")
	b.WriteString("parameters the user explicitly states. Never guess, never add defaults, ")
	b.WriteString("never include parameters that are not in the text.\n\n")
	b.WriteString("Known parameters:\n")
	for _, spec := range e.table.Specs() {
		fmt.Fprintf(&b, "- %s (%s)\n", spec.Name(), spec.Kind())
	}
	b.WriteString("\nRespond with a JSON object containing only the stated parameters. ")
	b.WriteString("An empty object {} is a valid answer.")
	return b.String()
}

// parseJSONResponse pulls the first JSON object out of a model reply,
// tolerating prose and code fences around it.
func parseJSONResponse(content string) map[string]any {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &params); err != nil {
		return nil
	}
	return params
}
