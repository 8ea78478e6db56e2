package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/config"
	"github.com/keithrincon/picklebookie-sub000/internal/events"
	"github.com/keithrincon/picklebookie-sub000/internal/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultConfigPath = "config.yaml"
	shutdownTimeout   = 15 * time.Second
)

// Run is the process entry point: picklebookie [serve|reconcile|cleanup]
func Run() {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	path := os.Getenv("PICKLEBOOKIE_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
	}

	setupLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "serve":
		err = serve(ctx, cfg)
	case "reconcile":
		err = reconcile(ctx, cfg)
	case "cleanup":
		err = cleanup(ctx, cfg)
	default:
		fmt.Fprintf(os.Stderr, "usage: picklebookie [serve|reconcile|cleanup]\n")
		os.Exit(2)
	}

	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	bg, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	if a.rdb != nil {
		consumer := events.NewConsumer(a.rdb, events.ConsumerConfig{
			Stream: events.FollowStream,
			Group:  notifierGroup,
			Name:   consumerName(),
		}, a.notifier.Handle)
		go func() {
			if err := consumer.Run(bg); err != nil {
				log.Error().Err(err).Msg("Event consumer stopped")
			}
		}()
	} else {
		log.Warn().Msg("Redis not configured, follow notifications disabled")
	}

	hour, minute, _ := cfg.Jobs.CleanupClock()
	loc, _ := cfg.Jobs.Location()
	scheduler := services.NewDailyScheduler("post-cleanup", loc, hour, minute, func(ctx context.Context) {
		a.posts.CleanupExpired(ctx)
	})
	go scheduler.Run(bg)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      a.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info().Msg("Shutting down server...")
	cancelBackground()
	a.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

func reconcile(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.counters.Reconcile(ctx)
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("reconciliation failed for %d of %d users", report.Failed, report.Users)
	}
	return nil
}

func cleanup(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	deleted := a.posts.CleanupExpired(ctx)
	log.Info().Int64("deleted", deleted).Msg("Cleanup finished")
	return nil
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "picklebookie"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// setupLogger configures zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if strings.EqualFold(format, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
