package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"comment_analyzer/internal/domain"
)

const modelSystemPrompt = `You are a sentiment classifier for short video comments.

Classify the sentiment of the comment you are given.

Output as JSON only, no other text:
{
  "label": "positive" | "neutral" | "negative",
  "confidence": 0.0-1.0 probability of the chosen label
}`

// ModelConfig describes one registry entry: a named model served over an
// OpenAI-compatible chat completions API.
type ModelConfig struct {
	// UpstreamModel is the model id sent to the inference endpoint.
	UpstreamModel string
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
}

// ModelBackend classifies text by delegating to a named pretrained model.
// Inference is deterministic under a fixed upstream model version: requests
// are sent with temperature zero.
type ModelBackend struct {
	client openai.Client
	model  string
	name   string
}

func newModelBackend(name string, cfg ModelConfig) *ModelBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &ModelBackend{
		client: openai.NewClient(opts...),
		model:  cfg.UpstreamModel,
		name:   name,
	}
}

func (m *ModelBackend) Name() string {
	return MethodModel + ":" + m.name
}

func (m *ModelBackend) Classify(ctx context.Context, texts []string) ([]domain.Verdict, error) {
	verdicts := make([]domain.Verdict, len(texts))
	for i, text := range texts {
		v, err := m.classifyOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("model %s: text %d: %w", m.name, i, err)
		}
		verdicts[i] = v
	}
	return verdicts, nil
}

func (m *ModelBackend) classifyOne(ctx context.Context, text string) (domain.Verdict, error) {
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(modelSystemPrompt),
			openai.UserMessage(normalize(text)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("inference: %w: %v", domain.ErrTransient, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Verdict{}, fmt.Errorf("inference: %w: empty response", domain.ErrTransient)
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)

	var parsed struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return domain.Verdict{}, fmt.Errorf("parse model output %q: %w", content, err)
	}

	return domain.Verdict{
		Label:      mapLabel(parsed.Label),
		Confidence: clamp(parsed.Confidence, 0, 1),
		Method:     m.Name(),
	}, nil
}

// normalize applies the preprocessing contract: lowercase, collapsed
// whitespace.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// mapLabel folds any upstream class vocabulary onto the three-way taxonomy.
// Unrecognized classes land on Neutral, the only safe default.
func mapLabel(raw string) domain.Label {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive", "pos", "very positive":
		return domain.LabelPositive
	case "negative", "neg", "very negative":
		return domain.LabelNegative
	default:
		return domain.LabelNeutral
	}
}

// cleanJSONResponse strips markdown code fences some models wrap around JSON.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
