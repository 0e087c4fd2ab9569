package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/auri-app/auri/pkg/buildinfo"
	apperrors "github.com/auri-app/auri/pkg/errors"
	"github.com/auri-app/auri/pkg/httputil"
)

// OpenAI defaults.
const (
	DefaultBaseURL     = "https://api.openai.com"
	DefaultModel       = "gpt-4"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 150
)

const systemPrompt = "You are an empathetic AI assistant analyzing journal entries."

const userPrompt = `Analyze this journal entry and provide a brief, empathetic insight (2-3 sentences).
Then, on a final line starting with "Emotions:", list up to %d emotions the writer expresses, as single words separated by commas.

Entry: %s`

// OpenAIConfig configures the OpenAI analyzer. Zero fields take the defaults.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// OpenAI analyses entries with the chat completions API.
type OpenAI struct {
	cfg    OpenAIConfig
	client *httputil.Client
}

// NewOpenAI returns an analyzer for cfg. An empty API key is rejected with
// UNAUTHORIZED.
func NewOpenAI(cfg OpenAIConfig, opts ...httputil.ClientOption) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "OpenAI API key is not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	headers := map[string]string{
		"Authorization": "Bearer " + cfg.APIKey,
		"User-Agent":    buildinfo.UserAgent(),
	}
	return &OpenAI{cfg: cfg, client: httputil.NewClient(headers, opts...)}, nil
}

func (o *OpenAI) Model() string { return o.cfg.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Analyze(ctx context.Context, text string) (Result, error) {
	if err := apperrors.ValidateEntryText(text); err != nil {
		return Result{}, err
	}

	req := chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPrompt, MaxEmotions, strings.TrimSpace(text))},
		},
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
	}

	var resp chatResponse
	if err := o.client.PostJSON(ctx, o.cfg.BaseURL+"/v1/chat/completions", req, &resp); err != nil {
		if code := apperrors.GetCode(err); code != "" && code != apperrors.ErrCodeNetwork {
			return Result{}, err
		}
		return Result{}, apperrors.Wrap(apperrors.ErrCodeAI, err, "chat completion failed")
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Result{}, apperrors.New(apperrors.ErrCodeAI, "empty response from model")
	}
	return parseReply(resp.Choices[0].Message.Content), nil
}

var _ Analyzer = (*OpenAI)(nil)
