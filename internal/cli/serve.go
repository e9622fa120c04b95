package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/hivemesh"
	httpAdapter "github.com/aretw0/hivemesh/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

// Handler builds the mesh router for app.
func (a *App) Handler() http.Handler {
	return httpAdapter.NewHandler(a.Hive.Orchestrator(),
		httpAdapter.WithStreams(a.Streams),
		httpAdapter.WithLogger(a.Logger),
		httpAdapter.WithVersion(hivemesh.Version),
	)
}

// Serve runs the mesh router on ln until ctx is done, then shuts down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.Logger.Info("mesh router listening", "addr", ln.Addr().String(), "hive", a.Hive.ID())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		return nil
	}
}
