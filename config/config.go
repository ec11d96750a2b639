package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type (
	Config struct {
		App         App
		HTTP        HTTP
		Log         Log
		PG          PG
		S3          S3
		Outbox      Outbox
		Scheduler   Scheduler
		Dispatcher  Dispatcher
		SongService SongService
		Telemetry   Telemetry
		Swagger     Swagger
	}

	App struct {
		Name string `env:"APP_NAME" envDefault:"resource-service"`
	}

	HTTP struct {
		Port            string        `env:"HTTP_PORT,required" validate:"required"`
		UsePreforkMode  bool          `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s" validate:"gt=0"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s" validate:"gt=0"`
		BodyLimit       int           `env:"HTTP_BODY_LIMIT" envDefault:"53477376" validate:"min=1"` // 51 MiB
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"3s" validate:"gt=0"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required" validate:"oneof=debug info warn error"`
	}

	PG struct {
		PoolMax       int    `env:"PG_POOL_MAX,required" validate:"min=1"`
		URL           string `env:"PG_URL,required" validate:"required"`
		MigrateOnBoot bool   `env:"PG_MIGRATE_ON_BOOT" envDefault:"true"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT,required" validate:"required"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required" validate:"required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required" validate:"required"`
		Bucket         string        `env:"S3_BUCKET,required" validate:"required"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		UsePathStyle   bool          `env:"S3_USE_PATH_STYLE" envDefault:"true"`
		ConnAttempts   int           `env:"S3_CONN_ATTEMPTS" envDefault:"10" validate:"min=1"`
		ConnTimeout    time.Duration `env:"S3_CONN_TIMEOUT" envDefault:"1s" validate:"gt=0"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Outbox struct {
		MaxAttempts     int `env:"OUTBOX_MAX_ATTEMPTS" envDefault:"5" validate:"min=1"`
		CreateBatchSize int `env:"OUTBOX_CREATE_BATCH_SIZE" envDefault:"50" validate:"min=1"`
		DeleteBatchSize int `env:"OUTBOX_DELETE_BATCH_SIZE" envDefault:"200" validate:"min=1"`
	}

	Scheduler struct {
		Enabled         bool          `env:"OUTBOX_SCHEDULER_ENABLED" envDefault:"true"`
		CreateDelay     time.Duration `env:"OUTBOX_SCHEDULER_CREATE_DELAY" envDefault:"5s" validate:"gt=0"`
		DeleteDelay     time.Duration `env:"OUTBOX_SCHEDULER_DELETE_DELAY" envDefault:"60s" validate:"gt=0"`
		TickTimeout     time.Duration `env:"OUTBOX_SCHEDULER_TICK_TIMEOUT" envDefault:"30s" validate:"gt=0"`
		ShutdownTimeout time.Duration `env:"OUTBOX_SCHEDULER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}

	Dispatcher struct {
		Workers         int           `env:"OUTBOX_DISPATCHER_WORKERS" envDefault:"8" validate:"min=1"`
		QueueSize       int           `env:"OUTBOX_DISPATCHER_QUEUE_SIZE" envDefault:"500" validate:"min=1"`
		TaskTimeout     time.Duration `env:"OUTBOX_DISPATCHER_TASK_TIMEOUT" envDefault:"30s" validate:"gt=0"`
		ShutdownTimeout time.Duration `env:"OUTBOX_DISPATCHER_SHUTDOWN_TIMEOUT" envDefault:"60s"`
	}

	SongService struct {
		URL            string        `env:"SONG_SERVICE_URL,required" validate:"required,url"`
		ConnectTimeout time.Duration `env:"SONG_SERVICE_CONNECT_TIMEOUT" envDefault:"2s" validate:"gt=0"`
		ReadTimeout    time.Duration `env:"SONG_SERVICE_READ_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	}

	Telemetry struct {
		Enabled     bool    `env:"TELEMETRY_ENABLED" envDefault:"false"`
		Endpoint    string  `env:"TELEMETRY_OTLP_ENDPOINT" envDefault:"localhost:4318"`
		SampleRatio float64 `env:"TELEMETRY_SAMPLE_RATIO" envDefault:"1" validate:"gte=0,lte=1"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
