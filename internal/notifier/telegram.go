package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ForecastLens/internal/httpclient"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier talks to the Telegram Bot API for one chat.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Client   *httpclient.Client
	logger   zerolog.Logger
}

// apiResponse is the envelope every Bot API method answers with.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// NewTelegramNotifier creates a notifier, optionally behind a proxy.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		BaseURL:  telegramAPI,
		Client: httpclient.New(httpclient.Options{
			Timeout:        PollTimeout + 5*time.Second,
			RequestsPerSec: 20,
			Burst:          5,
			ProxyURL:       proxyURL,
		}),
		logger: log.With().Str("component", "telegram").Logger(),
	}
}

func (t *TelegramNotifier) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.BotToken, name)
}

// call invokes a Bot API method once and decodes its result into out, which may be nil.
func (t *TelegramNotifier) call(ctx context.Context, name string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	raw, err := t.Client.DoOnce(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.method(name), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		if se, ok := httpclient.IsStatus(err); ok {
			return fmt.Errorf("telegram %s: %w: %s", name, err, describe(se.Body))
		}
		return fmt.Errorf("telegram %s: %w", name, err)
	}

	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram %s: %s", name, resp.Description)
	}
	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", name, err)
		}
	}
	return nil
}

func describe(body []byte) string {
	var resp apiResponse
	if json.Unmarshal(body, &resp) == nil && resp.Description != "" {
		return resp.Description
	}
	return string(body)
}

// Send posts an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.call(ctx, "sendMessage", map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}, nil)
}

// SendWithRetry retries Send with exponential backoff, up to maxRetries extra
// attempts. Rejections such as malformed HTML are not retried.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries uint64) error {
	attempt := 0
	op := func() error {
		attempt++
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		t.logger.Warn().Err(err).Int("attempt", attempt).Msg("telegram send failed")
		var se *httpclient.StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return fmt.Errorf("telegram send after %d attempts: %w", attempt, err)
	}
	return nil
}
