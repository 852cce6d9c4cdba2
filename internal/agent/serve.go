// internal/agent/serve.go
package agent

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the metrics listener shutdown.
const shutdownTimeout = 5 * time.Second

// RunWithMetrics runs the loop next to an HTTP listener serving metrics on
// addr. An empty addr runs the loop alone. Either side failing stops both.
func RunWithMetrics(ctx context.Context, a *Agent, addr string, metrics http.Handler) error {
	if addr == "" {
		return a.Run(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.cfg.Log.WithField("addr", addr).Info("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "agent: metrics listener")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	g.Go(func() error {
		return a.Run(gctx)
	})

	return g.Wait()
}
