package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/Resource-Service/config"
	"github.com/andreyxaxa/Resource-Service/internal/controller/restapi"
	"github.com/andreyxaxa/Resource-Service/internal/controller/worker/dispatch"
	"github.com/andreyxaxa/Resource-Service/internal/controller/worker/outbox"
	"github.com/andreyxaxa/Resource-Service/internal/infrastructure/catalog"
	"github.com/andreyxaxa/Resource-Service/internal/infrastructure/mp3"
	"github.com/andreyxaxa/Resource-Service/internal/repo/persistent"
	outboxuc "github.com/andreyxaxa/Resource-Service/internal/usecase/outbox"
	"github.com/andreyxaxa/Resource-Service/internal/usecase/resource"
	"github.com/andreyxaxa/Resource-Service/migrations"
	"github.com/andreyxaxa/Resource-Service/pkg/httpserver"
	"github.com/andreyxaxa/Resource-Service/pkg/logger"
	"github.com/andreyxaxa/Resource-Service/pkg/postgres"
	"github.com/andreyxaxa/Resource-Service/pkg/s3client"
	"github.com/andreyxaxa/Resource-Service/pkg/telemetry"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, cfg.App.Name, cfg.Telemetry.Endpoint, cfg.Telemetry.SampleRatio)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - telemetry.Init: %w", err))
		}
		defer func() {
			if err := shutdownTelemetry(context.WithoutCancel(ctx)); err != nil {
				l.Error(fmt.Errorf("app - Run - shutdownTelemetry: %w", err))
			}
		}()
	}

	// Repository

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	if cfg.PG.MigrateOnBoot {
		err = pg.Migrate(migrations.FS, ".")
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - pg.Migrate: %w", err))
		}
	}

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
		s3client.Region(cfg.S3.Region),
		s3client.UsePathStyle(cfg.S3.UsePathStyle),
		s3client.ConnAttempts(cfg.S3.ConnAttempts),
		s3client.ConnTimeout(cfg.S3.ConnTimeout),
		s3client.Logger(l),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}
	err = s3c.EnsureBucket(s3Ctx, cfg.S3.Bucket)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3c.EnsureBucket: %w", err))
	}

	// Use-Case

	// outbox use-case
	outboxUseCase := outboxuc.New(
		persistent.NewOutboxRepo(pg),
		pg,
		catalog.New(
			cfg.SongService.URL,
			catalog.ConnectTimeout(cfg.SongService.ConnectTimeout),
			catalog.ReadTimeout(cfg.SongService.ReadTimeout),
		),
		l,
		cfg.Outbox.MaxAttempts,
		cfg.Outbox.CreateBatchSize,
		cfg.Outbox.DeleteBatchSize,
	)

	// Immediate Dispatcher Worker
	dispatcher := dispatch.New(
		outboxUseCase,
		l,
		cfg.Dispatcher.Workers,
		cfg.Dispatcher.QueueSize,
		cfg.Dispatcher.TaskTimeout,
	)

	// resource use-case
	resourceUseCase := resource.New(
		persistent.NewResourceStorageRepo(s3c, cfg.S3.Bucket),
		persistent.NewResourceRepo(pg),
		pg,
		outboxUseCase,
		dispatcher,
		mp3.New(),
		l,
	)

	// Outbox Sweeper Worker
	sweeper := outbox.New(
		outboxUseCase,
		l,
		cfg.Scheduler.Enabled,
		cfg.Scheduler.CreateDelay,
		cfg.Scheduler.DeleteDelay,
		cfg.Scheduler.TickTimeout,
	)

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.ReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.BodyLimit(cfg.HTTP.BodyLimit),
		httpserver.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	)
	restapi.NewRouter(httpServer.App, cfg, resourceUseCase, l)

	// Start Components
	err = dispatcher.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - dispatcher.Start: %w", err))
	}
	err = sweeper.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - sweeper.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	dShutdownCtx, dShutdownCancel := context.WithTimeout(ctx, cfg.Dispatcher.ShutdownTimeout)
	defer dShutdownCancel()
	err = dispatcher.Shutdown(dShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - dispatcher.Shutdown: %w", err))
	}

	sShutdownCtx, sShutdownCancel := context.WithTimeout(ctx, cfg.Scheduler.ShutdownTimeout)
	defer sShutdownCancel()
	err = sweeper.Shutdown(sShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - sweeper.Shutdown: %w", err))
	}
}
