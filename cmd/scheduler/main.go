package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"weddingtimeline/internal/bootstrap"
	"weddingtimeline/internal/config"
	"weddingtimeline/internal/scheduler"
	"weddingtimeline/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single activation pass and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize", zap.Error(err))
	}
	defer app.Close()

	if *once {
		summary, err := app.Activator.RunAll(ctx, time.Now())
		if err != nil {
			log.Error("Activation pass finished with errors", zap.Error(err))
		}
		log.Info("Activation pass done",
			zap.Int("clients", summary.Clients),
			zap.Int("materialized", summary.Materialized),
			zap.Int("failed", summary.Failed),
		)
		return
	}

	sched := scheduler.NewActivationScheduler(cfg.Timeline.ActivationCron, app.Activator, log)
	if err := sched.Start(true); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	<-ctx.Done()
	log.Info("Shutting down scheduler...")
	sched.Stop()
}
