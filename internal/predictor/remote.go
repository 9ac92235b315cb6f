package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ForecastLens/internal/httpclient"
	"ForecastLens/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const predictPath = "/api/predict/"

// Remote calls the prediction service over HTTP.
type Remote struct {
	baseURL string
	client  *httpclient.Client
	logger  zerolog.Logger
}

// Option configures a Remote.
type Option func(*Remote)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Remote) { r.client.HTTPClient = hc }
}

// WithRateLimit sets the request rate towards the service.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(r *Remote) { r.client.Limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithMaxElapsed bounds the total time spent retrying one call.
func WithMaxElapsed(d time.Duration) Option {
	return func(r *Remote) { r.client.MaxRetry = d }
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Remote) { r.client.HTTPClient.Timeout = d }
}

// NewRemote creates a client for the service at baseURL.
func NewRemote(baseURL string, opts ...Option) *Remote {
	r := &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpclient.New(httpclient.Options{Timeout: 60 * time.Second}),
		logger:  log.With().Str("component", "predictor_remote").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Remote) Name() string { return "remote" }

// Predict posts {symbol, days} and decodes the service's response.
func (r *Remote) Predict(ctx context.Context, symbol string, days int) (*model.PredictionResult, error) {
	payload, err := json.Marshal(model.PredictRequest{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Days: days})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	body, err := r.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+predictPath, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		if se, ok := httpclient.IsStatus(err); ok {
			r.logger.Warn().Str("symbol", symbol).Int("status", se.StatusCode).Msg("prediction refused")
			return nil, &StatusError{StatusCode: se.StatusCode, Detail: detail(se.Body)}
		}
		return nil, fmt.Errorf("prediction request: %w", err)
	}

	var res model.PredictionResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	r.logger.Debug().Str("symbol", res.Symbol).Int("days", days).Dur("took", time.Since(start)).Msg("prediction received")
	return &res, nil
}

// detail extracts the {"detail": "..."} message of an error response.
func detail(body []byte) string {
	var e struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err != nil || len(e.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}
	// validation errors carry a structured detail
	return string(e.Detail)
}
