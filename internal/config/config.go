package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeStream Mode = "stream"
	ModePaper  Mode = "paper"
	ModeReplay Mode = "replay"
)

type Config struct {
	Mode          Mode
	StrategyID    string
	Instrument    string
	Feed          string
	PairA         string
	PairB         string
	StartingA     float64
	StartingB     float64
	ShortWindow   int
	LongWindow    int
	BarsWindow    int
	Interval      string
	Threshold     float64
	MaxNotional   float64
	KillSwitch    bool
	DecisionsPath string
	ReplayPath    string
	ReplayDelay   time.Duration
	Store         string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
	PostgresDSN   string
	MySQLDSN      string
	LogLevel      string
	LogFormat     string
	PaperBaseURL  string
	APIKey        string
	APISecret     string
}

func Load() (Config, error) {
	var cfg Config
	var mode string

	loadDotEnvIfPresent(".env")

	flag.StringVar(&mode, "mode", string(ModeStream), "run mode: stream, paper or replay")
	flag.StringVar(&cfg.StrategyID, "strategy-id", os.Getenv("STRATEGY_ID"), "existing strategy id to reload; empty creates a new strategy")
	flag.StringVar(&cfg.Instrument, "instrument", "", "traded instrument")
	flag.StringVar(&cfg.Feed, "feed", "iex", "market data feed: iex or sip")
	flag.StringVar(&cfg.PairA, "pair-a", "USD", "currency funding entries")
	flag.StringVar(&cfg.PairB, "pair-b", "", "currency or asset bought on entry (defaults to instrument)")
	flag.Float64Var(&cfg.StartingA, "starting-a", 1000, "starting tradeable amount of pair A")
	flag.Float64Var(&cfg.StartingB, "starting-b", 0, "starting amount of pair B held")
	flag.IntVar(&cfg.ShortWindow, "short-window", 10, "short moving average window")
	flag.IntVar(&cfg.LongWindow, "long-window", 20, "long moving average window")
	flag.IntVar(&cfg.BarsWindow, "bars-window", 50, "number of candles kept in the rolling window")
	flag.StringVar(&cfg.Interval, "interval", "1m", "candle interval label recorded with the strategy")
	flag.Float64Var(&cfg.Threshold, "threshold", 0.5, "crossover threshold in percent")
	flag.Float64Var(&cfg.MaxNotional, "max-notional", 0, "max notional per entry order, 0 disables the check")
	flag.BoolVar(&cfg.KillSwitch, "kill-switch", false, "if true, never place orders")
	flag.StringVar(&cfg.DecisionsPath, "decisions-path", "decisions.ndjson", "path to decisions log")
	flag.StringVar(&cfg.ReplayPath, "replay-path", "", "candle JSON file replayed in replay mode")
	flag.DurationVar(&cfg.ReplayDelay, "replay-delay", 0, "pause between replayed candles")
	flag.StringVar(&cfg.Store, "store", "memory", "strategy store: memory, redis, postgres or mysql")
	flag.StringVar(&cfg.RedisPrefix, "redis-prefix", "strategy", "redis key prefix")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogFormat, "log-format", "text", "log format: text or json")
	flag.StringVar(&cfg.PaperBaseURL, "paper-base-url", "https://paper-api.alpaca.markets", "paper trading base URL")
	flag.Parse()

	cfg.Mode = Mode(mode)
	cfg.RedisAddr = os.Getenv("REDIS_DSN")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.APIKey = os.Getenv("APCA_API_KEY_ID")
	cfg.APISecret = os.Getenv("APCA_API_SECRET_KEY")

	if cfg.Instrument == "" {
		switch cfg.Mode {
		case ModeStream:
			cfg.Instrument = "FAKEPACA"
		default:
			cfg.Instrument = "AAPL"
		}
	}
	if cfg.PairB == "" {
		cfg.PairB = cfg.Instrument
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Mode {
	case ModeStream, ModePaper, ModeReplay:
	default:
		return fmt.Errorf("invalid mode: %s", cfg.Mode)
	}
	if cfg.Mode != ModeReplay && (cfg.APIKey == "" || cfg.APISecret == "") {
		return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required in %s mode", cfg.Mode)
	}
	if cfg.Mode == ModeReplay && cfg.ReplayPath == "" {
		return fmt.Errorf("replay-path is required in replay mode")
	}
	if cfg.ShortWindow <= 0 {
		return fmt.Errorf("short-window must be > 0")
	}
	if cfg.ShortWindow >= cfg.LongWindow {
		return fmt.Errorf("short-window must be < long-window")
	}
	if cfg.BarsWindow < cfg.LongWindow {
		return fmt.Errorf("bars-window must be >= long-window")
	}
	if cfg.Threshold <= 0 {
		return fmt.Errorf("threshold must be > 0")
	}
	if cfg.StartingA < 0 || cfg.StartingB < 0 {
		return fmt.Errorf("starting amounts must be >= 0")
	}
	if cfg.StartingB != math.Trunc(cfg.StartingB) {
		return fmt.Errorf("starting-b must be a whole number of units")
	}
	if cfg.MaxNotional < 0 {
		return fmt.Errorf("max-notional must be >= 0")
	}
	switch cfg.Store {
	case "memory":
	case "redis":
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_DSN is required for the redis store")
		}
	case "postgres":
		if cfg.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres store")
		}
	case "mysql":
		if cfg.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required for the mysql store")
		}
	default:
		return fmt.Errorf("invalid store: %s", cfg.Store)
	}
	return nil
}

func loadDotEnvIfPresent(path string) {
	if err := loadDotEnv(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load env file", "path", path, "error", err)
	}
}

// loadDotEnv sets variables from path without overriding ones already set.
func loadDotEnv(path string) error {
	return godotenv.Load(path)
}
