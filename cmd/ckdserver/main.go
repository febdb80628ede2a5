package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ckd-predictor/internal/cfg"
	"ckd-predictor/internal/common"
	"ckd-predictor/internal/metrics"
	"ckd-predictor/internal/ml"
	"ckd-predictor/internal/storage"
	"ckd-predictor/internal/web"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()
	setupLogging()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	rec := metrics.NewRecorder(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	startMetricsServer(ctx, c)

	predictor := initializePredictor(c, m, rec)

	server := web.NewServer(predictor, store, rec, c.ListenPort, c.HistoryLimit)
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("web server start failed")
	}
	defer server.Stop()

	waitForShutdown(ctx, cancel)
}

func setupLogging() {
	if lvl := os.Getenv(common.EnvLogLevel); lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			zerolog.SetGlobalLevel(parsed)
		}
	}
}

// initializeStorage opens prediction history if DATA_PATH is configured.
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without history")
		return nil
	}
	return store
}

// initializePredictor loads the model artifact, downloading it first when a
// model URL is configured and no local artifact exists. A load failure is
// fatal unless the heuristic fallback is enabled.
func initializePredictor(c cfg.Settings, m *metrics.Metrics, rec *metrics.Recorder) *ml.Predictor {
	if c.ModelURL != "" {
		if _, err := os.Stat(c.ModelPath); os.IsNotExist(err) {
			if err := ml.DownloadModel(c.ModelURL, c.ModelPath, c.DownloadTimeout); err != nil {
				log.Warn().Err(err).Msg("model download failed")
			} else {
				registerModelVersion(c.ModelPath)
			}
		}
	}

	predictor, err := ml.New(c.ModelPath, c.RiskThreshold, c.EnableFallback, rec)
	if err != nil {
		m.ModelLoadErrors.Inc()
		log.Fatal().Err(err).Msg("model load failed and fallback is disabled")
	}
	if !predictor.Available() {
		m.ModelLoadErrors.Inc()
	}
	return predictor
}

// registerModelVersion records a freshly downloaded artifact in the version
// ledger kept beside it and marks it active.
func registerModelVersion(modelPath string) {
	mm, err := ml.NewModelManager(filepath.Dir(modelPath))
	if err != nil {
		log.Warn().Err(err).Msg("model version manager unavailable")
		return
	}
	if err := mm.AddVersion(modelPath, ml.ModelMetrics{}); err != nil {
		log.Warn().Err(err).Msg("failed to record model version")
		return
	}
	versions := mm.ListVersions()
	if len(versions) > 0 {
		if err := mm.ActivateVersion(versions[0].Version); err != nil {
			log.Warn().Err(err).Msg("failed to activate model version")
		}
	}
}

// startMetricsServer starts the Prometheus metrics HTTP server.
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown blocks until a shutdown signal arrives.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()
}
