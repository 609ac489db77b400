package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pitchside/internal/api"
	"github.com/mauv0809/pitchside/internal/config"
	server "github.com/mauv0809/pitchside/internal/http"
	"github.com/mauv0809/pitchside/internal/metrics"
	"github.com/mauv0809/pitchside/internal/notifier/slack"
	"github.com/mauv0809/pitchside/internal/notifier/telegram"
	"github.com/mauv0809/pitchside/internal/pubsub"
	"github.com/mauv0809/pitchside/internal/session"
	"github.com/mauv0809/pitchside/internal/transitions"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if len(cfg.MatchIDs) == 0 {
		log.Warn("No matches to watch, set MATCH_IDS to start sessions")
	}

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	client := api.NewClient(cfg.API.BaseURL, api.WithToken(cfg.API.Token), api.WithInitData(cfg.API.InitData))

	opts := []transitions.Option{transitions.WithDryRun(cfg.DryRun)}
	if cfg.Slack.Enabled() {
		opts = append(opts, transitions.WithNotifier(slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)))
	}
	if cfg.Telegram.Enabled() {
		notifier, err := telegram.NewNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, metricsSvc)
		if err != nil {
			log.Fatalf("Failed to initialize telegram notifier: %s", err)
		}
		opts = append(opts, transitions.WithNotifier(notifier))
	}
	var publisher pubsub.PubSubClient
	if cfg.PubSub.Enabled() {
		var err error
		publisher, err = pubsub.New(context.Background(), cfg.PubSub.ProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize pubsub: %s", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("Failed to close pubsub client", "error", err)
			}
		}()
		opts = append(opts, transitions.WithPublisher(publisher, cfg.PubSub.Topic))
	}
	dispatcher := transitions.NewDispatcher(metricsSvc, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchers := make([]server.Watcher, 0, len(cfg.MatchIDs))
	stores := make([]*session.Store, 0, len(cfg.MatchIDs))
	for _, id := range cfg.MatchIDs {
		store := session.NewStore(id, client,
			session.WithInterval(cfg.PollInterval),
			session.WithMetrics(metricsSvc),
			session.WithListener(dispatcher.Handle),
		)
		if err := store.Start(ctx); err != nil {
			log.Fatalf("Failed to start session for match %d: %s", id, err)
		}
		stores = append(stores, store)
		watchers = append(watchers, store)
	}
	defer func() {
		for _, store := range stores {
			store.Stop()
		}
		log.Info("Match sessions stopped", "count", len(stores))
	}()

	s := server.NewServer(watchers, metricsHandler, cfg.FeedbackWindow)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port, "matches", cfg.MatchIDs)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
