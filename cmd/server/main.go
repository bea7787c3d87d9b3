package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	mqcontracts "weddingtimeline/contracts/mq"
	"weddingtimeline/internal/bootstrap"
	"weddingtimeline/internal/config"
	"weddingtimeline/internal/handler"
	"weddingtimeline/internal/httpserver"
	"weddingtimeline/internal/mqhandler"
	"weddingtimeline/internal/scheduler"
	"weddingtimeline/pkg/logger"
	"weddingtimeline/pkg/mq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	log.Info("Starting timeline server...",
		zap.String("storage", cfg.Timeline.Storage),
		zap.String("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize", zap.Error(err))
	}
	defer app.Close()

	var ready []httpserver.Connectable
	var consumer *mq.Consumer
	if app.Publisher != nil {
		ready = append(ready, app.Publisher)

		log.Info("Initializing MQ consumer for meeting_note.task_requested...")
		consumer, err = mq.NewConsumer(cfg.MQ.URL, cfg.MQ.Exchange,
			"timeline.meeting_note.task_requested.q", mqcontracts.RoutingMeetingNoteTaskRequest, log)
		if err != nil {
			log.Fatal("Failed to init consumer", zap.Error(err))
		}
		defer consumer.Close()
		consumer.SetHandler(mqhandler.NewMeetingNoteTaskRequestedHandler(app.Tasks, log).Handle)
		ready = append(ready, consumer)

		go func() {
			if err := consumer.StartConsuming(ctx); err != nil {
				log.Error("Meeting note consumer stopped", zap.Error(err))
			}
		}()
	}

	// 内存存储无法跨进程共享，激活调度在本进程内运行
	var sched *scheduler.ActivationScheduler
	if app.Memory != nil {
		sched = scheduler.NewActivationScheduler(cfg.Timeline.ActivationCron, app.Activator, log)
		if err := sched.Start(false); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	opts := httpserver.Options{
		Timeline:  handler.NewTimelineHandler(app.Catalog, app.Classifier, app.Activator, log),
		Tasks:     handler.NewTaskHandler(app.Tasks, log),
		JWTSecret: cfg.JWT.Secret,
		MQ:        ready,
		Logger:    log,
	}
	if app.DB != nil {
		opts.DB = app.DB
	}
	if app.Memory != nil {
		opts.Registry = handler.NewRegistryHandler(app.Memory, log)
	}
	srv := httpserver.NewServer(cfg.Server.Port, httpserver.NewRouter(opts), log)
	errCh := srv.Start()

	log.Info("Timeline server is fully initialized and running")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}

	log.Info("Shutting down timeline server gracefully...")
	if consumer != nil {
		consumer.Stop()
	}
	if sched != nil {
		sched.Stop()
	}
	if err := srv.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("Timeline server shutdown complete")
}
