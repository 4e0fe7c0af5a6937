package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/deusflow/musicnews/internal/app"
	"github.com/deusflow/musicnews/internal/config"
	"github.com/deusflow/musicnews/internal/logger"
	"github.com/deusflow/musicnews/internal/news"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to a YAML config file (default: $MUSICNEWS_CONFIG)")
	production := flag.Bool("production", os.Getenv("PRODUCTION") == "true", "deliver the digest to Telegram")
	serve := flag.Bool("serve", false, "keep the monitoring server running after the first run")
	interval := flag.Duration("interval", 0, "with -serve, repeat the run on this interval (e.g. 6h)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New("error", "text").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.Debug {
		log = logger.New("debug", cfg.LogFormat)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, *production, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if cfg.Monitoring.Enabled && !*serve {
		go func() {
			if err := a.Serve(ctx, cfg.Monitoring.Port, 0); err != nil {
				log.Error("monitoring server error", "error", err)
			}
		}()
	}

	start := time.Now()
	_, err = a.RunOnce(ctx)
	switch {
	case errors.Is(err, news.ErrNothingToProcess):
	case err != nil:
		if !*serve {
			a.Close()
			os.Exit(1)
		}
	default:
		log.Info("run finished", "duration", time.Since(start).Round(time.Millisecond), "production", *production)
	}

	if *serve {
		if err := a.Serve(ctx, cfg.Monitoring.Port, *interval); err != nil {
			log.Error("monitoring server error", "error", err)
		}
		log.Info("shutting down")
	}
}
