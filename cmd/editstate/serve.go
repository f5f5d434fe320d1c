package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"editstate/internal/mcp"
	"editstate/internal/metrics"
	"editstate/internal/session"
)

var (
	serveMetricsAddr string
	servePreload     bool
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().BoolVar(&servePreload, "preload", false, "Load every stored record before serving")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := loadProject()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, p.cfg)
	if err != nil {
		return err
	}
	defer closeDB(context.Background(), db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sess := session.New(p.registry, db, session.Options{
		Logger:    p.logger,
		Recorder:  m,
		Observer:  m,
		CacheSize: p.cfg.Cache.Size,
	})
	if servePreload {
		if err := sess.Preload(ctx); err != nil {
			return err
		}
		p.logger.Info("preloaded records")
	}

	if serveMetricsAddr != "" {
		srv := &http.Server{
			Addr:              serveMetricsAddr,
			Handler:           metricsMux(m),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			p.logger.Info("serving metrics", "addr", serveMetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				p.logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	server := mcp.NewServer(sess, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
