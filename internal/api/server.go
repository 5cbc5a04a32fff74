// Package api serves skydeck's state and intents over JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/skydeck/internal/api/handler"
	"github.com/abelbrown/skydeck/internal/api/middleware"
	"github.com/abelbrown/skydeck/internal/api/router"
	"github.com/abelbrown/skydeck/internal/app"
	"github.com/abelbrown/skydeck/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine for a.
func NewRouter(a *app.App) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger(a.Events))
	r.Use(middleware.Owner(a.Session.Owner))

	router.SetupRoutes(r, router.Handlers{
		Feeds:      handler.NewFeedHandler(a.Coord, nil),
		Chat:       handler.NewChatHandler(a.Tutor),
		Users:      handler.NewUserHandler(a),
		Stargazing: handler.NewStargazingHandler(a),
	})
	return r
}

// NewServer wraps the router in an http.Server with sane timeouts.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second, // tutor replies can take a while
		IdleTimeout:       120 * time.Second,
	}
}

// Serve starts polling, listens on addr and blocks until ctx is done.
func Serve(ctx context.Context, a *app.App, addr string) error {
	a.Start(ctx)
	server := NewServer(addr, NewRouter(a))

	errCh := make(chan error, 1)
	go func() {
		logging.Info("http server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
