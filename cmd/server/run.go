package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-oauth2-strategy/internal/config"
	"github.com/jrsteele09/go-oauth2-strategy/server"
	"github.com/jrsteele09/go-oauth2-strategy/server/loginsession"
	"github.com/jrsteele09/go-oauth2-strategy/sessions"
	"github.com/jrsteele09/go-oauth2-strategy/strategy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func run(ctx context.Context, banner bool) (returnError error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := loadConfig()
	if err != nil {
		return err
	}
	if banner {
		displayAppname(c.GetAppName())
	}

	store, closeStore, err := newSessionStore(ctx, c)
	if err != nil {
		return err
	}
	defer closeStore()

	flowConfig, err := buildFlowConfig(ctx, c)
	if err != nil {
		return err
	}
	fc, err := strategy.NewFlowController(flowConfig, store)
	if err != nil {
		return fmt.Errorf("[run] %w", err)
	}

	handler, err := server.New(c, loginsession.NewInMemoryLoginSessionRepo(), fc)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	returnError = shutdown(httpServer)
	log.Info().Msg("Server stopped")
	return returnError
}

func loadConfig() (config.Config, error) {
	c, err := config.New()
	if err != nil {
		return nil, err
	}
	configureLogging(c.GetLogLevel(), c.GetEnv())
	return c, nil
}

func configureLogging(level, env string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newSessionStore picks Redis when REDIS_URL is set and the in-memory store otherwise.
func newSessionStore(ctx context.Context, c config.SessionConfig) (strategy.SessionStore, func(), error) {
	if redisURL := c.GetRedisURL(); redisURL != "" {
		store, err := sessions.NewRedisStore(ctx, redisURL, c.GetFlowExpiry())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("Using Redis flow session store")
		return store, func() {
			if err := store.Close(); err != nil {
				log.Err(err).Msg("Failed to close Redis store")
			}
		}, nil
	}

	log.Info().Msg("Using in-memory flow session store")
	store := sessions.NewInMemoryStore(c.GetFlowExpiry())
	return store, store.Stop, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
