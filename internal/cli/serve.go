package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/quake-feed-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-feed-service/internal/adapter/kafka"
	"github.com/couchcryptid/quake-feed-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-feed-service/internal/observability"
	"github.com/couchcryptid/quake-feed-service/internal/pipeline"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(_ []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.HTTPAddr = c.Addr
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := usgs.NewClient(cfg.ConnectTimeout, cfg.ReadTimeout, metrics, logger)

	// Connectivity precheck (feature-flagged via CONNECTIVITY_CHECK).
	var probe pipeline.ConnectivityChecker
	if cfg.ConnectivityCheck {
		probe = usgs.NewDialProbe(cfg.Endpoint, cfg.ConnectTimeout, logger)
	}

	// Kafka sink (feature-flagged via KAFKA_ENABLED).
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	p := pipeline.New(client, probe, publisher, logger, metrics)
	refresher := pipeline.NewRefresher(p, cfg.Endpoint, metrics, logger)

	budget := usgs.FetchBudget(cfg.ConnectTimeout, cfg.ReadTimeout)
	srv := httpadapter.NewServer(cfg.HTTPAddr, budget, p, refresher, cfg.DefaultFilter, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Initial load with the configured defaults marks the service ready.
	if !c.NoWarm {
		go func() {
			snap, _ := refresher.Refresh(ctx, cfg.DefaultFilter)
			logger.Info("initial feed load", "state", snap.State(), "records", len(snap.Records))
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete", "version", c.version)
	return nil
}
