package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ForecastLens/internal/collector"
	"ForecastLens/internal/config"
	"ForecastLens/internal/model"
	"ForecastLens/internal/notifier"
	"ForecastLens/internal/predictor"
	"ForecastLens/internal/recorder"
	"ForecastLens/internal/render"
	"ForecastLens/internal/scheduler"
	"ForecastLens/internal/series"
	"ForecastLens/internal/server"
	"ForecastLens/internal/view"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging.Level)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg)
	case "predict":
		err = runPredict(ctx, cfg, args)
	case "history":
		err = runHistory(cfg, args)
	default:
		err = fmt.Errorf("unknown command %q (want serve, predict or history)", cmd)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("failed")
	}
}

func setupLogging(level string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(output).Level(lvl)
}

func newPredictor(cfg *config.Config) predictor.Predictor {
	if cfg.Predictor.Mode == config.ModeLocal {
		return predictor.NewLocal(collector.NewYahooFetcher(cfg.Proxy))
	}
	return predictor.NewRemote(cfg.Predictor.BaseURL,
		predictor.WithTimeout(cfg.Predictor.Timeout),
		predictor.WithRateLimit(cfg.Predictor.RateLimit, 1),
		predictor.WithMaxElapsed(cfg.Predictor.MaxRetry),
	)
}

func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func runServe(ctx context.Context, cfg *config.Config) error {
	p := newPredictor(cfg)
	log.Info().Str("predictor", p.Name()).Msg("ForecastLens starting")

	rec := newRecorder(cfg)
	defer rec.Close()

	store := view.NewStore(cfg.Server.ViewCapacity)
	srv, err := server.NewServer(server.Config{
		Addr:     cfg.Server.Addr,
		Builder:  view.NewBuilder(p, store),
		Store:    store,
		Recorder: rec,
	})
	if err != nil {
		return err
	}

	if len(cfg.Watchlist.Symbols) > 0 || cfg.TelegramEnabled() {
		// scheduled views are not browsable, so they get a builder without a store
		var sender scheduler.Sender
		var tn *notifier.TelegramNotifier
		if cfg.TelegramEnabled() {
			tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			sender = tn
		}
		sched := scheduler.NewScheduler(ctx, view.NewBuilder(p, nil), sender, rec, cfg.Watchlist.Symbols, cfg.Watchlist.Days)
		if len(cfg.Watchlist.Symbols) > 0 {
			if err := sched.RegisterRefresh(cfg.Watchlist.Cron); err != nil {
				return fmt.Errorf("register refresh: %w", err)
			}
			log.Info().Strs("symbols", cfg.Watchlist.Symbols).Str("cron", cfg.Watchlist.Cron).Msg("watchlist refresh scheduled")
		}
		sched.Start()
		defer sched.Stop()

		if tn != nil {
			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("telegram polling started")
		}
		if os.Getenv("RUN_ON_START") == "true" && len(cfg.Watchlist.Symbols) > 0 {
			go sched.RunNow()
		}
	}

	return srv.Start(ctx)
}

func runPredict(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	symbol := fs.String("symbol", "", "ticker symbol")
	days := fs.Int("days", cfg.Watchlist.Days, "forecast horizon in days")
	pngPath := fs.String("png", "", "write the chart as PNG to this path")
	htmlPath := fs.String("html", "", "write the interactive chart to this path")
	noMA50 := fs.Bool("no-ma50", false, "hide the 50-day moving average")
	noMA100 := fs.Bool("no-ma100", false, "hide the 100-day moving average")
	noMA200 := fs.Bool("no-ma200", false, "hide the 200-day moving average")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *symbol == "" {
		return errors.New("-symbol is required")
	}

	rec := newRecorder(cfg)
	defer rec.Close()

	v, err := view.NewBuilder(newPredictor(cfg), nil).Build(ctx, *symbol, *days)
	if err != nil {
		return err
	}
	if err := rec.RecordForecast(recorder.NewSnapshot(v)); err != nil {
		log.Warn().Err(err).Msg("record forecast")
	}

	render.Table(os.Stdout, v.Symbol, v.Result.Metrics, v.Panel)

	vis := model.OverlayVisibility{ShowMA50: !*noMA50, ShowMA100: !*noMA100, ShowMA200: !*noMA200}
	title := v.Symbol + " Stock Price Prediction"
	if *pngPath != "" {
		if err := writeFile(*pngPath, func(f *os.File) error {
			return render.PNG(f, title, series.Lines(v.Records, vis), server.ChartWidth, server.ChartHeight)
		}); err != nil {
			return err
		}
		log.Info().Str("path", *pngPath).Msg("chart written")
	}
	if *htmlPath != "" {
		if err := writeFile(*htmlPath, func(f *os.File) error {
			return render.HTML(f, title, v.Records, vis)
		}); err != nil {
			return err
		}
		log.Info().Str("path", *htmlPath).Msg("chart written")
	}
	return nil
}

func runHistory(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	symbol := fs.String("symbol", "", "ticker symbol")
	limit := fs.Int("limit", 20, "number of snapshots")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *symbol == "" {
		return errors.New("-symbol is required")
	}
	if cfg.Database.SQLitePath == "" {
		return errors.New("database.sqlite_path is not configured")
	}

	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		return err
	}
	defer sr.Close()

	sym := strings.ToUpper(strings.TrimSpace(*symbol))
	snaps, err := sr.Recent(sym, *limit)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(sym + " forecast history")
	t.AppendHeader(table.Row{"Time", "Days", "Current", "Predicted", "Change", "Consistency", "Volatility", "Momentum", "MA50", "MA100", "MA200"})
	for _, s := range snaps {
		t.AppendRow(table.Row{
			s.CreatedAt.Format("2006-01-02 15:04"),
			s.Days,
			render.Money(s.CurrentPrice),
			render.Money(s.PredictedPrice),
			render.Signed(s.ChangePercent),
			s.Consistency,
			s.VolatilityKind,
			s.MomentumKind,
			s.MA50State,
			s.MA100State,
			s.MA200State,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
