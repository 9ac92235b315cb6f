package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ForecastLens/internal/notifier"
	"ForecastLens/internal/predictor"
	"ForecastLens/internal/recorder"
	"ForecastLens/internal/view"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Sender delivers a message, retrying on failure.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries uint64) error
}

// Scheduler refreshes the watchlist on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron        *cron.Cron
	Builder     *view.Builder
	Notifier    Sender // nil when Telegram is not configured
	Recorder    recorder.Recorder
	Symbols     []string
	Days        int
	Concurrency int
	Ctx         context.Context

	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, b *view.Builder, n Sender, rec recorder.Recorder, symbols []string, days int) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Builder:     b,
		Notifier:    n,
		Recorder:    rec,
		Symbols:     symbols,
		Days:        days,
		Concurrency: 4,
		Ctx:         ctx,
		logger:      log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterRefresh schedules the watchlist refresh.
func (s *Scheduler) RegisterRefresh(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Strs("symbols", s.Symbols).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RefreshResult is the outcome of refreshing one symbol.
type RefreshResult struct {
	Symbol string
	View   *view.View
	Err    error
}

// RunNow refreshes every watched symbol immediately and returns the outcomes
// in watchlist order. A failing symbol does not stop the others.
func (s *Scheduler) RunNow() []RefreshResult {
	s.logger.Info().Int("symbols", len(s.Symbols)).Msg("running watchlist refresh")
	results := make([]RefreshResult, len(s.Symbols))

	var g errgroup.Group
	g.SetLimit(s.concurrency())
	for i, sym := range s.Symbols {
		i, sym := i, sym
		g.Go(func() error {
			results[i] = s.refresh(sym)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info().Int("ok", len(results)-failed).Int("failed", failed).Msg("watchlist refresh done")
	return results
}

func (s *Scheduler) concurrency() int {
	if s.Concurrency <= 0 {
		return 1
	}
	return s.Concurrency
}

func (s *Scheduler) refresh(symbol string) RefreshResult {
	v, err := s.Builder.Build(s.Ctx, symbol, s.Days)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("refresh failed")
		s.trySend(notifier.FormatFailure(symbol, err))
		return RefreshResult{Symbol: symbol, Err: err}
	}
	if err := s.Recorder.RecordForecast(recorder.NewSnapshot(v)); err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("record forecast")
	}
	s.trySend(notifier.FormatDigest(v))
	return RefreshResult{Symbol: symbol, View: v}
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.Symbols)
	}
	switch strings.ToLower(fields[0]) {
	case "/forecast":
		if len(fields) < 2 {
			return "Usage: /forecast SYMBOL [DAYS]"
		}
		symbol := strings.ToUpper(fields[1])
		days := s.Days
		if len(fields) > 2 {
			d, err := strconv.Atoi(fields[2])
			if err != nil {
				return "Usage: /forecast SYMBOL [DAYS]"
			}
			days = d
		}
		if err := predictor.ValidateDays(days); err != nil {
			return notifier.FormatFailure(symbol, err)
		}
		v, err := s.Builder.Build(ctx, symbol, days)
		if err != nil {
			return notifier.FormatFailure(symbol, err)
		}
		if err := s.Recorder.RecordForecast(recorder.NewSnapshot(v)); err != nil {
			s.logger.Error().Err(err).Str("symbol", symbol).Msg("record forecast")
		}
		return notifier.FormatDigest(v)
	case "/watchlist":
		var lines []string
		for _, r := range s.RunNowQuiet() {
			if r.Err != nil {
				lines = append(lines, fmt.Sprintf("%s: failed", r.Symbol))
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s, %s", r.Symbol,
				r.View.Panel.PredictedDirection, r.View.Panel.Consistency.Label))
		}
		if len(lines) == 0 {
			return "Watchlist is empty."
		}
		return "👀 <b>Watchlist</b>\n" + strings.Join(lines, "\n")
	default:
		return notifier.FormatHelp(s.Symbols)
	}
}

// RunNowQuiet refreshes the watchlist without sending per-symbol messages.
func (s *Scheduler) RunNowQuiet() []RefreshResult {
	quiet := *s
	quiet.Notifier = nil
	return quiet.RunNow()
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
