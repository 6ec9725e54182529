package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"

	"crossover/internal/broker"
	"crossover/internal/config"
	"crossover/internal/engine"
	"crossover/internal/ident"
	"crossover/internal/indicator"
	"crossover/internal/md"
	"crossover/internal/portfolio"
	"crossover/internal/risk"
	"crossover/internal/store"
	"crossover/internal/strategy"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runID := ident.UUID{}.NewID()
	decisions, err := engine.NewDecisionLogger(cfg.DecisionsPath, runID)
	if err != nil {
		return fmt.Errorf("decision logger error: %w", err)
	}
	defer func() {
		if err := decisions.Close(); err != nil {
			slog.Error("failed to close decision logger", "error", err)
		}
	}()

	records, closeStore, err := store.Open(ctx, store.Options{
		Backend:       cfg.Store,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisPrefix:   cfg.RedisPrefix,
		PostgresDSN:   cfg.PostgresDSN,
		MySQLDSN:      cfg.MySQLDSN,
	})
	if err != nil {
		return fmt.Errorf("store error: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	strat, err := strategy.NewCrossover(ctx, strategy.Config{
		StrategyID: cfg.StrategyID,
		Portfolio: portfolio.New(
			cfg.Instrument, cfg.PairA, cfg.PairB,
			decimal.NewFromFloat(cfg.StartingA), decimal.NewFromFloat(cfg.StartingB),
		),
		ShortWindow: cfg.ShortWindow,
		LongWindow:  cfg.LongWindow,
		DataWindow:  cfg.BarsWindow,
		Interval:    cfg.Interval,
		Threshold:   decimal.NewFromFloat(cfg.Threshold),
	}, records, ident.UUID{}, indicator.SMA{})
	if err != nil {
		return err
	}

	var executor broker.Executor = broker.NewSimulator()
	if cfg.Mode == config.ModePaper {
		client := broker.New(cfg.APIKey, cfg.APISecret, cfg.PaperBaseURL)
		if _, err := client.Account(ctx); err != nil {
			return fmt.Errorf("broker account error: %w", err)
		}
		executor = client
	}
	engineImpl := engine.New(cfg, strat, risk.Gate{}, executor, decisions)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	cause := make(chan string, 1)
	go func() {
		select {
		case sig := <-signalChan:
			slog.Info("shutdown signal received", "signal", sig.String())
			cause <- "signal:" + sig.String()
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("starting bot", "mode", cfg.Mode, "instrument", cfg.Instrument, "strategy_id", strat.ID(), "run_id", runID, "store", cfg.Store)

	shutdownCause := "completed"
	if err := feed(ctx, cfg, engineImpl); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("market data stopped", "error", err)
		shutdownCause = "error: " + err.Error()
	}
	select {
	case c := <-cause:
		shutdownCause = c
	default:
	}

	if err := engineImpl.Shutdown(context.Background(), shutdownCause); err != nil {
		return err
	}
	slog.Info("bot shutdown complete", "strategy_id", strat.ID(), "cause", shutdownCause)
	return nil
}

// feed delivers ticks to the engine one at a time until the source is
// exhausted or ctx is cancelled.
func feed(ctx context.Context, cfg config.Config, engineImpl *engine.Engine) error {
	if cfg.Mode == config.ModeReplay {
		payload, err := os.ReadFile(cfg.ReplayPath)
		if err != nil {
			return fmt.Errorf("read replay file: %w", err)
		}
		candles, err := md.ParseCandles(payload)
		if err != nil {
			return fmt.Errorf("parse replay file: %w", err)
		}
		for _, candle := range candles {
			engineImpl.OnTick(ctx, candle)
			if err := broker.WaitForContext(ctx, cfg.ReplayDelay); err != nil {
				return err
			}
		}
		return nil
	}

	return md.StartStream(ctx, cfg.APIKey, cfg.APISecret, cfg.Feed, cfg.Instrument, func(candle md.Candle) {
		engineImpl.OnTick(ctx, candle)
	})
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
