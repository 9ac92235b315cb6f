// Package server serves the forecast form, the rendered views and the JSON API.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ForecastLens/internal/model"
	"ForecastLens/internal/predictor"
	"ForecastLens/internal/recorder"
	"ForecastLens/internal/render"
	"ForecastLens/internal/series"
	"ForecastLens/internal/trend"
	"ForecastLens/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html templates/static/*
var assets embed.FS

// Chart dimensions of the PNG rendering.
const (
	ChartWidth  = 960
	ChartHeight = 480
)

// Config wires a Server.
type Config struct {
	Addr     string
	Builder  *view.Builder
	Store    *view.Store
	Recorder recorder.Recorder
}

// Server is the HTTP front end.
type Server struct {
	addr     string
	builder  *view.Builder
	store    *view.Store
	recorder recorder.Recorder
	router   *gin.Engine
	logger   zerolog.Logger
}

type forecastRequest struct {
	Symbol string `form:"symbol" json:"symbol" binding:"required"`
	Days   int    `form:"days" json:"days" binding:"required"`
}

type forecastResponse struct {
	ViewID   string                `json:"view_id"`
	Symbol   string                `json:"symbol"`
	Days     int                   `json:"days"`
	Metrics  model.Metrics         `json:"metrics"`
	Forecast []model.ForecastPoint `json:"forecast"`
	Records  []model.UnifiedRecord `json:"records"`
	Panel    trend.Panel           `json:"panel"`
}

type indexPage struct {
	Symbol  string
	Days    int
	MinDays int
	MaxDays int
	Error   string
}

type toggle struct {
	Label string
	On    bool
	Href  string
}

type viewPage struct {
	View    *view.View
	Query   template.URL
	Toggles []toggle
}

// NewServer builds the router. Views are kept in cfg.Store; when cfg.Builder
// has no store of its own it is given cfg.Store.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Builder == nil {
		return nil, errors.New("server: builder is required")
	}
	if cfg.Store == nil {
		cfg.Store = view.NewStore(view.DefaultCapacity)
	}
	if cfg.Builder.Store == nil {
		cfg.Builder.Store = cfg.Store
	}
	if cfg.Recorder == nil {
		cfg.Recorder = recorder.NewNoopRecorder()
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"money":       render.Money,
		"signedMoney": render.SignedMoney,
		"signed":      render.Signed,
		"number":      render.Number,
		"optMoney":    render.OptionalMoney,
		"optSigned":   render.OptionalSigned,
		"gapLabel":    render.GapLabel,
	}).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(assets, "templates/static")
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		addr:     cfg.Addr,
		builder:  cfg.Builder,
		store:    cfg.Store,
		recorder: cfg.Recorder,
		router:   router,
		logger:   log.With().Str("component", "server").Logger(),
	}

	router.StaticFS("/static", http.FS(static))
	router.GET("/", s.handleIndex)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.POST("/forecast", s.handleForecastForm)

	views := router.Group("/views/:id")
	views.GET("", s.handleView)
	views.GET("/chart.png", s.handleChartPNG)
	views.GET("/chart.html", s.handleChartHTML)

	api := router.Group("/api")
	api.POST("/forecast", s.handleForecastAPI)
	api.GET("/views/:id", s.handleViewAPI)

	return s, nil
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", indexPage{
		Days:    30,
		MinDays: predictor.MinDays,
		MaxDays: predictor.MaxDays,
	})
}

func (s *Server) handleForecastForm(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBind(&req); err != nil {
		s.renderFormError(c, req, http.StatusBadRequest, "Symbol and days are required")
		return
	}
	v, status, msg := s.build(c.Request.Context(), req)
	if v == nil {
		s.renderFormError(c, req, status, msg)
		return
	}
	c.Redirect(http.StatusSeeOther, "/views/"+v.ID.String())
}

func (s *Server) renderFormError(c *gin.Context, req forecastRequest, status int, msg string) {
	c.HTML(status, "index.html", indexPage{
		Symbol:  req.Symbol,
		Days:    req.Days,
		MinDays: predictor.MinDays,
		MaxDays: predictor.MaxDays,
		Error:   msg,
	})
}

func (s *Server) handleForecastAPI(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and days are required"})
		return
	}
	v, status, msg := s.build(c.Request.Context(), req)
	if v == nil {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, toResponse(v))
}

func (s *Server) handleViewAPI(c *gin.Context) {
	v, ok := s.store.Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "view not found"})
		return
	}
	c.JSON(http.StatusOK, toResponse(v))
}

func (s *Server) handleView(c *gin.Context) {
	v, ok := s.store.Lookup(c.Param("id"))
	if !ok {
		c.String(http.StatusNotFound, "view not found")
		return
	}
	vis := parseOverlays(c)
	c.HTML(http.StatusOK, "view.html", viewPage{
		View:    v,
		Query:   template.URL(overlayQuery(vis).Encode()),
		Toggles: toggles(v, vis),
	})
}

func (s *Server) handleChartPNG(c *gin.Context) {
	v, ok := s.store.Lookup(c.Param("id"))
	if !ok {
		c.String(http.StatusNotFound, "view not found")
		return
	}
	lines := series.Lines(v.Records, parseOverlays(c))
	var buf bytes.Buffer
	if err := render.PNG(&buf, v.Symbol+" Stock Price Prediction", lines, ChartWidth, ChartHeight); err != nil {
		s.logger.Warn().Err(err).Str("view", v.ID.String()).Msg("render png")
		status := http.StatusInternalServerError
		if errors.Is(err, render.ErrTooFewPoints) {
			status = http.StatusUnprocessableEntity
		}
		c.String(status, err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleChartHTML(c *gin.Context) {
	v, ok := s.store.Lookup(c.Param("id"))
	if !ok {
		c.String(http.StatusNotFound, "view not found")
		return
	}
	var buf bytes.Buffer
	if err := render.HTML(&buf, v.Symbol+" Stock Price Prediction", v.Records, parseOverlays(c)); err != nil {
		s.logger.Warn().Err(err).Str("view", v.ID.String()).Msg("render html")
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// build validates the request and builds a view. On failure it returns the
// status and message to show instead.
func (s *Server) build(ctx context.Context, req forecastRequest) (*view.View, int, string) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, http.StatusBadRequest, "Symbol is required"
	}
	if err := predictor.ValidateDays(req.Days); err != nil {
		status, msg := classifyError(err)
		return nil, status, msg
	}
	v, err := s.builder.Build(ctx, symbol, req.Days)
	if err != nil {
		status, msg := classifyError(err)
		s.logger.Warn().Err(err).Str("symbol", symbol).Int("status", status).Msg("forecast failed")
		return nil, status, msg
	}
	if err := s.recorder.RecordForecast(recorder.NewSnapshot(v)); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("record forecast")
	}
	return v, http.StatusOK, ""
}

// classifyError maps a build failure onto a response status and message.
func classifyError(err error) (int, string) {
	var se *predictor.StatusError
	switch {
	case errors.As(err, &se) && se.IsClientError():
		if se.Detail == "" {
			return http.StatusBadRequest, "Request rejected by prediction service"
		}
		return http.StatusBadRequest, se.Detail
	case errors.Is(err, series.ErrLengthMismatch), errors.Is(err, series.ErrMalformedDate):
		return http.StatusBadGateway, "Prediction service returned an inconsistent forecast"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Prediction service timed out"
	default:
		return http.StatusBadGateway, "Prediction service unavailable"
	}
}

func toResponse(v *view.View) forecastResponse {
	resp := forecastResponse{
		ViewID:  v.ID.String(),
		Symbol:  v.Symbol,
		Days:    v.Days,
		Records: v.Records,
		Panel:   v.Panel,
	}
	if v.Result != nil {
		resp.Metrics = v.Result.Metrics
		// already validated by the merge
		resp.Forecast, _ = series.ForecastPoints(v.Result.Predictions, v.Result.ForecastDates)
	}
	return resp
}

// parseOverlays reads ma50, ma100 and ma200 from the query. Each overlay is
// shown unless its value parses as false.
func parseOverlays(c *gin.Context) model.OverlayVisibility {
	vis := model.DefaultOverlays()
	flag := func(key string, dst *bool) {
		if raw, ok := c.GetQuery(key); ok {
			if b, err := strconv.ParseBool(raw); err == nil {
				*dst = b
			}
		}
	}
	flag("ma50", &vis.ShowMA50)
	flag("ma100", &vis.ShowMA100)
	flag("ma200", &vis.ShowMA200)
	return vis
}

func overlayQuery(vis model.OverlayVisibility) url.Values {
	q := url.Values{}
	q.Set("ma50", strconv.FormatBool(vis.ShowMA50))
	q.Set("ma100", strconv.FormatBool(vis.ShowMA100))
	q.Set("ma200", strconv.FormatBool(vis.ShowMA200))
	return q
}

func toggles(v *view.View, vis model.OverlayVisibility) []toggle {
	base := "/views/" + v.ID.String() + "?"
	flip := func(f func(*model.OverlayVisibility)) string {
		next := vis
		f(&next)
		return base + overlayQuery(next).Encode()
	}
	return []toggle{
		{Label: "50-Day MA", On: vis.ShowMA50, Href: flip(func(o *model.OverlayVisibility) { o.ShowMA50 = !o.ShowMA50 })},
		{Label: "100-Day MA", On: vis.ShowMA100, Href: flip(func(o *model.OverlayVisibility) { o.ShowMA100 = !o.ShowMA100 })},
		{Label: "200-Day MA", On: vis.ShowMA200, Href: flip(func(o *model.OverlayVisibility) { o.ShowMA200 = !o.ShowMA200 })},
	}
}
