package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/taskbridge/go-asana-broker/asana"
	"github.com/taskbridge/go-asana-broker/auth"
	"github.com/taskbridge/go-asana-broker/internal/config"
	"github.com/taskbridge/go-asana-broker/ratelimit"
	"github.com/taskbridge/go-asana-broker/server"
	"github.com/taskbridge/go-asana-broker/sessions"
	"github.com/taskbridge/go-asana-broker/tools"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	oauthClient := asana.NewOAuthClient(c)
	repo := sessions.NewInMemoryRepo()

	authService, err := auth.NewService(repo, oauthClient, c)
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	limiter := ratelimit.New(c.GetRequestsPerMinute(), c.GetRateLimitWindow())
	toolset := tools.New(authService, limiter, c.GetAsanaAPIBaseURL(), c.GetBaseURL())

	srv, err := server.New(c, authService, toolset)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	sweeper := authService.NewSweeper(c.GetMaxSessionAge(), c.GetSweepInterval())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server.ListenAndServe: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		if err := sweeper.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	waitForStopSignal(groupCtx)
	cancel()
	if err := shutdown(httpServer); err != nil {
		return err
	}
	return group.Wait()
}

func waitForStopSignal(ctx context.Context) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func configureLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
