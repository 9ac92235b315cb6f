package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ForecastLens/internal/model"
	"ForecastLens/internal/trend"
	"ForecastLens/internal/view"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWithRetry(t *testing.T) {
	var calls int32
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.BaseURL = srv.URL

	require.NoError(t, tn.SendWithRetry(context.Background(), "hello", 3))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry_GivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.BaseURL = srv.URL

	err := tn.SendWithRetry(context.Background(), "hello", 1)
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSendWithRetry_RejectionIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: can't parse entities"}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.BaseURL = srv.URL

	err := tn.SendWithRetry(context.Background(), "<b>broken", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't parse entities")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSend_NotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.BaseURL = srv.URL
	err := tn.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestStartPolling_DispatchesCommands(t *testing.T) {
	var polls int32
	replies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if atomic.AddInt32(&polls, 1) == 1 {
				_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /watchlist "}}]}`))
				return
			}
			var params map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&params))
			assert.EqualValues(t, 8, params["offset"])
			_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/botTOKEN/sendMessage":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			replies <- body["text"]
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.BaseURL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(_ context.Context, cmd string) string { return "got " + cmd })
		close(done)
	}()

	select {
	case reply := <-replies:
		assert.Equal(t, "got /watchlist", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done
}

func TestFormatDigest(t *testing.T) {
	res := &model.PredictionResult{
		Symbol:  "AAPL",
		Metrics: model.Metrics{CurrentPrice: 190, PredictedPrice: 195, ChangePercent: 2.63},
		TrendComparison: model.TrendComparison{
			Historical30d: model.TrendSummary{Direction: model.DirectionUpward, Slope: 0.2},
			Predicted:     model.TrendSummary{Direction: model.DirectionUpward, Slope: 0.5},
			Comparison:    model.ComparisonDeltas{TrendConsistency: model.ConsistencyConsistent, VolatilityChange: 3},
		},
		MovingAverages: model.MovingAverages{MA50: null.FloatFrom(180), CurrentVsMA50: null.FloatFrom(5.56)},
	}
	v := &view.View{ID: uuid.New(), Symbol: "AAPL", Days: 30, CreatedAt: time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		Result: res, Panel: trend.InterpretResult(res)}

	msg := FormatDigest(v)
	assert.Contains(t, msg, "<b>AAPL</b> | 30-day forecast | 2024-06-28")
	assert.Contains(t, msg, "Predicted: $195.00 (+2.63%)")
	assert.Contains(t, msg, "Consistent Trend")
	assert.Contains(t, msg, "matching the recent historical trend pattern.")
	assert.Contains(t, msg, "increased volatility")
	assert.Contains(t, msg, "50-Day MA: $180.00 (+5.56%, Above)")
	assert.Contains(t, msg, "200-Day MA: Insufficient data")
}

func TestFormatFailureAndHelp(t *testing.T) {
	assert.Equal(t, "❌ <b>A&lt;B</b>: boom", FormatFailure("A<B", errors.New("boom")))
	help := FormatHelp([]string{"AAPL", "MSFT"})
	assert.Contains(t, help, "/forecast SYMBOL [DAYS]")
	assert.Contains(t, help, "Watching: AAPL, MSFT")
}
