// Package ai proxies the desktop's generative-AI features to external
// providers.
//
// The backend adds nothing to these calls beyond input sanitization
// and retries; responses pass through to the client opaquely. Both
// upstreams are optional: an unconfigured endpoint reports
// ErrNotConfigured and the desktop degrades gracefully.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/agencyrpg/backend/internal/infrastructure/config"
	"github.com/agencyrpg/backend/internal/infrastructure/logging"
)

// ErrNotConfigured is returned when an upstream URL is not set.
var ErrNotConfigured = errors.New("ai upstream not configured")

const requestTimeout = 30 * time.Second

// Proxy forwards sentiment and meme requests upstream.
type Proxy struct {
	client       *resty.Client
	sentimentURL string
	memeURL      string
	sanitizer    *bluemonday.Policy
	logger       *logging.Logger
}

// NewProxy creates a proxy from AI configuration.
func NewProxy(cfg config.AIConfig, logger *logging.Logger) *Proxy {
	client := resty.New().
		SetTimeout(requestTimeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond)
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &Proxy{
		client:       client,
		sentimentURL: cfg.SentimentURL,
		memeURL:      cfg.MemeURL,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger,
	}
}

// AnalyzeSentiment forwards player text to the sentiment upstream.
func (p *Proxy) AnalyzeSentiment(ctx context.Context, text string) (map[string]interface{}, error) {
	if p.sentimentURL == "" {
		return nil, ErrNotConfigured
	}
	return p.forward(ctx, p.sentimentURL, map[string]interface{}{
		"text": p.sanitizer.Sanitize(text),
	})
}

// GenerateMeme forwards a meme prompt to the generation upstream.
func (p *Proxy) GenerateMeme(ctx context.Context, prompt, template string) (map[string]interface{}, error) {
	if p.memeURL == "" {
		return nil, ErrNotConfigured
	}
	return p.forward(ctx, p.memeURL, map[string]interface{}{
		"prompt":   p.sanitizer.Sanitize(prompt),
		"template": p.sanitizer.Sanitize(template),
	})
}

func (p *Proxy) forward(ctx context.Context, url string, body map[string]interface{}) (map[string]interface{}, error) {
	var result map[string]interface{}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(url)
	if err != nil {
		p.logger.Warn("ai upstream call failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("ai upstream: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ai upstream returned %d", resp.StatusCode())
	}
	return result, nil
}
