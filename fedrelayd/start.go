package fedrelayd

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/absmach/fedrelay/coordinator"
	"github.com/absmach/fedrelay/coordinator/api"
	"github.com/absmach/fedrelay/coordinator/middleware"
	"github.com/absmach/fedrelay/pkg/aggregate"
	"github.com/absmach/fedrelay/pkg/backup"
	"github.com/absmach/fedrelay/pkg/blob"
	badgerstore "github.com/absmach/fedrelay/pkg/blob/badger"
	redisstore "github.com/absmach/fedrelay/pkg/blob/redis"
	"github.com/absmach/fedrelay/pkg/history"
	"github.com/absmach/fedrelay/pkg/mqtt"
)

const svcName = "coordinator"

type Config struct {
	LogLevel             string
	InstanceID           string
	Store                string
	RelayURL             string
	RelayTLSVerification bool
	BadgerDir            string
	RedisURL             string
	HistoryDir           string
	BackupDir            string
	MQTTAddress          string
	MQTTQoS              uint8
	MQTTUsername         string
	MQTTPassword         string
	MQTTTimeout          time.Duration
	Aggregation          coordinator.Config
	Server               server.Config
	OTELURL              url.URL
	TraceRatio           float64
}

func StartCoordinator(ctx context.Context, cancel context.CancelFunc, cfg Config) error {
	g, ctx := errgroup.WithContext(ctx)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, "", cfg.TraceRatio)
		if err != nil {
			return fmt.Errorf("failed to initialize opentelemetry: %w", err)
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var sink history.Sink
	switch cfg.HistoryDir {
	case "":
		sink = history.NewSlogSink(logger)
	default:
		sink, err = history.NewFileSink(cfg.HistoryDir)
		if err != nil {
			return fmt.Errorf("failed to initialize history sink: %w", err)
		}
	}

	var backups *backup.Store
	if cfg.BackupDir != "" {
		backups, err = backup.NewStore(cfg.BackupDir)
		if err != nil {
			return fmt.Errorf("failed to initialize backup store: %w", err)
		}
	}

	var publisher coordinator.Publisher
	if cfg.MQTTAddress != "" {
		pubsub, err := mqtt.NewPubSub(cfg.MQTTAddress, cfg.MQTTQoS, svcName+"-"+cfg.InstanceID, cfg.MQTTUsername, cfg.MQTTPassword, cfg.MQTTTimeout, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize mqtt pubsub: %w", err)
		}
		defer func() {
			if err := pubsub.Disconnect(ctx); err != nil {
				logger.Error("error disconnecting mqtt pubsub", slog.Any("error", err))
			}
		}()
		publisher = pubsub
	}

	svc, err := coordinator.NewService(store, aggregate.NewFedEMA(), sink, backups, publisher, logger, cfg.Aggregation)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	hs := httpserver.NewServer(ctx, cancel, svcName, cfg.Server, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	return g.Wait()
}

func newStore(ctx context.Context, cfg Config, logger *slog.Logger) (blob.Store, error) {
	switch cfg.Store {
	case "memory":
		return blob.NewInMemoryStore(), nil
	case "relay":
		return blob.NewHTTPStore(cfg.RelayURL, cfg.RelayTLSVerification), nil
	case "badger":
		store, closer, err := badgerstore.NewStore(cfg.BadgerDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		go func() {
			<-ctx.Done()
			if err := closer(); err != nil {
				logger.Error("error closing badger store", slog.Any("error", err))
			}
		}()

		return store, nil
	case "redis":
		store, err := redisstore.NewStore(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		return store, nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store)
	}
}
