package advisor

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPlugin struct {
	ID string `json:"id"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Plugins     []chatPlugin  `json:"plugins,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// OpenRouterAdvisor is an Advisor backed by the OpenRouter chat completions
// API.
type OpenRouterAdvisor struct {
	config  Config
	client  *resty.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

var _ Advisor = (*OpenRouterAdvisor)(nil)

func NewOpenRouterAdvisor(config Config, logger *logger.Logger) (*OpenRouterAdvisor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetAuthToken(config.APIKey).
		SetHeader("Content-Type", "application/json")

	if config.SiteURL != "" {
		client.SetHeader("HTTP-Referer", config.SiteURL)
	}

	if config.AppName != "" {
		client.SetHeader("X-Title", config.AppName)
	}

	limit := rate.Inf
	if config.MinInterval > 0 {
		limit = rate.Every(config.MinInterval)
	}

	return &OpenRouterAdvisor{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// Config returns a copy of the advisor configuration.
func (a *OpenRouterAdvisor) Config() Config {
	return a.config
}

// Evaluate implements Advisor.
func (a *OpenRouterAdvisor) Evaluate(ctx context.Context, symbol string, signal types.Signal, advisoryCtx AdvisoryContext) (types.Advice, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return types.Advice{}, errors.Wrap(errors.ErrCodeAdvisoryUnavailable, "advisor rate limit wait aborted", err)
	}

	request := chatRequest{
		Model: a.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(symbol, signal, advisoryCtx, a.config.Language)},
		},
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
	}

	if a.config.WebSearch {
		request.Plugins = []chatPlugin{{ID: "web"}}
	}

	var (
		result  chatResponse
		failure chatError
	)

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&result).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		return types.Advice{}, errors.Wrap(errors.ErrCodeAdvisoryUnavailable, "advisor request failed", err)
	}

	if resp.IsError() {
		a.logger.Warn("Advisor returned an error",
			zap.Int("status", resp.StatusCode()),
			zap.String("message", failure.Error.Message),
		)

		return types.Advice{}, errors.Newf(errors.ErrCodeAdvisoryUnavailable, "advisor returned status %d: %s", resp.StatusCode(), failure.Error.Message)
	}

	if len(result.Choices) == 0 {
		return types.Advice{}, errors.New(errors.ErrCodeAdvisoryBadResponse, "advisor returned no choices")
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)

	verdict, err := ParseVerdict(content)
	if err != nil {
		return types.Advice{}, err
	}

	model := result.Model
	if model == "" {
		model = a.config.Model
	}

	a.logger.Debug("Advisor verdict",
		zap.String("symbol", symbol),
		zap.String("signal", string(signal.Type)),
		zap.String("verdict", string(verdict)),
	)

	return types.Advice{
		Verdict: verdict,
		Comment: content,
		Model:   model,
	}, nil
}
