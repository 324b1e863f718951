package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vtx/internal/server"
	"github.com/desertthunder/vtx/internal/shared"
)

// Proxy serves /api/v1 forwarded to the backend until the context is cancelled.
func (r *Runner) Proxy(ctx context.Context, cmd *cli.Command) error {
	listen := cmd.String("listen")
	if listen == "" {
		listen = r.config.Proxy.Listen
	}
	target := cmd.String("target")
	if target == "" {
		target = r.config.API.BaseURL
	}

	logger := shared.WithLogger(r.logger, "component", "proxy")
	proxy, err := server.NewProxyHandler(target, logger)
	if err != nil {
		return err
	}

	router := server.NewBasicRouter()
	router.Use(
		server.LoggingMiddleware(logger),
		server.RateLimitMiddleware(r.config.Proxy.RequestsPerSecond, r.config.Proxy.Burst, logger),
	)
	router.Handler(proxy)

	running, err := server.Listen(listen, router, logger)
	if err != nil {
		return err
	}

	r.writePlain("Proxying http://%s%s → %s\n", running.Addr(), server.ProxyPrefix, proxy.Target())
	r.writePlain("Press Ctrl+C to stop\n")

	select {
	case <-ctx.Done():
		return running.Shutdown(context.WithoutCancel(ctx))
	case err, ok := <-running.Err():
		if ok && err != nil {
			return fmt.Errorf("proxy stopped: %w", err)
		}
		return nil
	}
}
