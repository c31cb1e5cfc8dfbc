package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by every provider unless overridden.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// ClientConfig bundles the settings shared by all outbound REST clients.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Backoff   BackoffConfig
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errCircuitOpen   = errors.New("circuit breaker open")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// APIError is a non-retryable error status returned by a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: unexpected status code %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Reason)
}

// fetcher executes GET requests against one provider with retries,
// exponential backoff and a circuit breaker.
type fetcher struct {
	name    string
	client  *resty.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

func newFetcher(name string, cfg ClientConfig) *fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Backoff == (BackoffConfig{}) {
		cfg.Backoff = DefaultBackoff
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		slog.Debug("provider response",
			"provider", name,
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
			"bytes", len(resp.Body()),
		)
		return nil
	})

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			// Client errors say nothing about the provider's health.
			var apiErr *APIError
			return err == nil || errors.As(err, &apiErr)
		},
	})

	return &fetcher{
		name:    name,
		client:  client,
		backoff: cfg.Backoff,
		circuit: cb,
	}
}

// getJSON requests path with params and decodes the JSON body into out.
// 429 and 5xx answers and transport errors are retried; other non-2xx
// answers fail immediately with *APIError.
func (f *fetcher) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if f.backoff.MaxRetries < 0 || f.backoff.InitialInterval <= 0 {
		return errInvalidConfig
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := f.circuit.Execute(func() (interface{}, error) {
			resp, execErr := f.client.R().
				SetContext(ctx).
				SetQueryParamsFromValues(params).
				Get(path)
			if execErr != nil {
				return nil, execErr
			}

			switch status := resp.StatusCode(); {
			case status == http.StatusTooManyRequests:
				return nil, errRateLimited
			case status >= 500:
				return nil, fmt.Errorf("%w: %d", errServerError, status)
			case !resp.IsSuccess():
				return nil, &APIError{Provider: f.name, StatusCode: status, Reason: errorReason(resp.Body())}
			}
			return resp.Body(), nil
		})

		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return fmt.Errorf("unexpected result type from circuit breaker")
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%s: decode response: %w", f.name, err)
			}
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) || ctx.Err() != nil {
			return err
		}
		if attempt >= f.backoff.MaxRetries {
			return err
		}

		delay := f.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > f.backoff.MaxInterval && f.backoff.MaxInterval > 0 {
			delay = f.backoff.MaxInterval
		}
		slog.Debug("retrying provider request", "provider", f.name, "attempt", attempt+1, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// errorReason extracts the human readable part of a provider error body.
func errorReason(body []byte) string {
	var payload struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Reason != "" {
		return payload.Reason
	}
	return payload.Message
}
