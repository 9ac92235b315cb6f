package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"ForecastLens/internal/collector"
	"ForecastLens/internal/model"
	"ForecastLens/internal/predictor"
	"ForecastLens/internal/recorder"
	"ForecastLens/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPredictor struct {
	res *model.PredictionResult
	err error
}

func (s *stubPredictor) Name() string { return "stub" }

func (s *stubPredictor) Predict(_ context.Context, _ string, _ int) (*model.PredictionResult, error) {
	return s.res, s.err
}

func newTestServer(t *testing.T, p predictor.Predictor) (*Server, *view.Store) {
	t.Helper()
	store := view.NewStore(8)
	s, err := NewServer(Config{Builder: view.NewBuilder(p, nil), Store: store})
	require.NoError(t, err)
	return s, store
}

func localServer(t *testing.T) (*Server, *view.Store) {
	return newTestServer(t, predictor.NewLocal(&collector.MockFetcher{Price: 150, Count: 300}))
}

func do(s *Server, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func postJSON(s *Server, target string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	return do(s, http.MethodPost, target, body, "application/json")
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

type memRecorder struct {
	snaps []*recorder.ForecastSnapshot
}

func (m *memRecorder) RecordForecast(s *recorder.ForecastSnapshot) error {
	m.snaps = append(m.snaps, s)
	return nil
}

func (m *memRecorder) Close() error { return nil }

func TestForecastIsRecorded(t *testing.T) {
	rec := &memRecorder{}
	p := predictor.NewLocal(&collector.MockFetcher{Price: 80, Count: 300})
	s, err := NewServer(Config{Builder: view.NewBuilder(p, nil), Recorder: rec})
	require.NoError(t, err)

	w := postJSON(s, "/api/forecast", map[string]any{"symbol": "amd", "days": 5})
	require.Equal(t, http.StatusOK, w.Code)
	w = postJSON(s, "/api/forecast", map[string]any{"symbol": "amd", "days": 3})
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.Len(t, rec.snaps, 1)
	assert.Equal(t, "AMD", rec.snaps[0].Symbol)
	assert.Equal(t, 5, rec.snaps[0].Days)
}

func TestNewServer_RequiresBuilder(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s, _ := localServer(t)
	w := do(s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestIndexAndStatic(t *testing.T) {
	s, _ := localServer(t)

	w := do(s, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/forecast"`)

	w = do(s, http.MethodGet, "/static/style.css", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".card")
}

func TestAPIForecast(t *testing.T) {
	s, store := localServer(t)

	w := postJSON(s, "/api/forecast", map[string]any{"symbol": "aapl", "days": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp forecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AAPL", resp.Symbol)
	assert.Equal(t, 10, resp.Days)
	assert.Len(t, resp.Records, 210)
	require.Len(t, resp.Forecast, 10)
	assert.Equal(t, "2024-06-29", resp.Forecast[0].Date)
	assert.Len(t, resp.Panel.Windows, 4)
	assert.Greater(t, resp.Metrics.CurrentPrice, 0.0)
	assert.Equal(t, 1, store.Len())

	w = do(s, http.MethodGet, "/api/views/"+resp.ViewID, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), resp.ViewID)
}

func TestAPIForecast_Errors(t *testing.T) {
	local, _ := localServer(t)

	cases := []struct {
		name    string
		s       *Server
		payload any
		status  int
		message string
	}{
		{"missing symbol", local, map[string]any{"days": 10}, http.StatusBadRequest, "symbol and days are required"},
		{"blank symbol", local, map[string]any{"symbol": "  ", "days": 10}, http.StatusBadRequest, "Symbol is required"},
		{"days too low", local, map[string]any{"symbol": "AAPL", "days": 4}, http.StatusBadRequest, "Days must be between 5 and 60"},
		{"days too high", local, map[string]any{"symbol": "AAPL", "days": 61}, http.StatusBadRequest, "Days must be between 5 and 60"},
		{
			"upstream refusal",
			mustServer(t, &stubPredictor{err: &predictor.StatusError{StatusCode: 404, Detail: "No data found for symbol: ZZZZ"}}),
			map[string]any{"symbol": "ZZZZ", "days": 10},
			http.StatusBadRequest, "No data found for symbol: ZZZZ",
		},
		{
			"upstream failure",
			mustServer(t, &stubPredictor{err: &predictor.StatusError{StatusCode: 500}}),
			map[string]any{"symbol": "AAPL", "days": 10},
			http.StatusBadGateway, "Prediction service unavailable",
		},
		{
			"transport error",
			mustServer(t, &stubPredictor{err: errors.New("connection refused")}),
			map[string]any{"symbol": "AAPL", "days": 10},
			http.StatusBadGateway, "Prediction service unavailable",
		},
		{
			"inconsistent forecast",
			mustServer(t, &stubPredictor{res: &model.PredictionResult{
				Symbol:        "AAPL",
				Predictions:   []float64{1, 2, 3},
				ForecastDates: []string{"2024-07-01"},
			}}),
			map[string]any{"symbol": "AAPL", "days": 10},
			http.StatusBadGateway, "Prediction service returned an inconsistent forecast",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(tc.s, "/api/forecast", tc.payload)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.message, errorOf(t, w))
		})
	}
}

func mustServer(t *testing.T, p predictor.Predictor) *Server {
	s, _ := newTestServer(t, p)
	return s
}

func TestFormForecastFlow(t *testing.T) {
	s, _ := localServer(t)

	form := url.Values{"symbol": {"msft"}, "days": {"10"}}
	w := do(s, http.MethodPost, "/forecast", []byte(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/views/"), loc)

	w = do(s, http.MethodGet, loc, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	assert.Contains(t, page, "MSFT")
	assert.Contains(t, page, "Trend Comparison")
	assert.Contains(t, page, "Past 30 Days")
	assert.Contains(t, page, "Predicted Trend")
	assert.Contains(t, page, "50-Day MA")
	assert.Contains(t, page, "chart.png?ma100=true&amp;ma200=true&amp;ma50=true")

	w = do(s, http.MethodGet, loc+"?ma50=false", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page = w.Body.String()
	assert.Contains(t, page, "chart.png?ma100=true&amp;ma200=true&amp;ma50=false")
	// the 50-day toggle now links back to the shown state
	assert.Contains(t, page, "?ma100=true&amp;ma200=true&amp;ma50=true")
}

func TestFormForecast_Errors(t *testing.T) {
	s, store := localServer(t)

	form := url.Values{"symbol": {"AAPL"}, "days": {"90"}}
	w := do(s, http.MethodPost, "/forecast", []byte(form.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Days must be between 5 and 60")
	assert.Contains(t, w.Body.String(), `value="AAPL"`)

	form = url.Values{"days": {"10"}}
	w = do(s, http.MethodPost, "/forecast", []byte(form.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Symbol and days are required")
	assert.Zero(t, store.Len())
}

func TestCharts(t *testing.T) {
	s, store := localServer(t)
	v, err := s.builder.Build(context.Background(), "NVDA", 10)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	w := do(s, http.MethodGet, "/views/"+v.ID.String()+"/chart.png?ma200=0", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(s, http.MethodGet, "/views/"+v.ID.String()+"/chart.html", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "echarts")
	assert.Contains(t, w.Body.String(), "MA50")
}

func TestUnknownView(t *testing.T) {
	s, _ := localServer(t)
	for _, target := range []string{
		"/views/not-a-uuid",
		"/views/7d444840-9dc0-11d1-b245-5ffdce74fad2",
		"/views/7d444840-9dc0-11d1-b245-5ffdce74fad2/chart.png",
		"/views/7d444840-9dc0-11d1-b245-5ffdce74fad2/chart.html",
		"/api/views/7d444840-9dc0-11d1-b245-5ffdce74fad2",
	} {
		w := do(s, http.MethodGet, target, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}
}

func TestOverlayQuery(t *testing.T) {
	vis := model.OverlayVisibility{ShowMA50: true, ShowMA100: false, ShowMA200: true}
	assert.Equal(t, "ma100=false&ma200=true&ma50=true", overlayQuery(vis).Encode())
}

func TestClassifyError(t *testing.T) {
	status, msg := classifyError(context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, "Prediction service timed out", msg)

	status, msg = classifyError(&predictor.StatusError{StatusCode: 422})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Request rejected by prediction service", msg)
}
