package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/disruption-cli/internal/api"
	"github.com/sells-group/disruption-cli/internal/monitoring"
)

var (
	servePort       int
	serveCheckEvery time.Duration
	serveStopsTTL   time.Duration
	serveEventsFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the route check HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		metrics := monitoring.NewMetrics()
		env, err := initEnv(ctx, "serve", envOptions{
			Metrics:    metrics,
			EventsFile: serveEventsFile,
			StopsTTL:   serveStopsTTL,
		})
		if err != nil {
			return err
		}
		defer env.Close()

		checker := monitoring.NewChecker(monitoring.NewCollector(env.Store), metrics, serveCheckEvery, cfg.Events.WindowDays)
		go checker.Run(ctx)

		server := api.NewServer(env.Planner,
			api.WithMetrics(metrics),
			api.WithHealthCheck(env.Store),
			api.WithCORSOrigins(cfg.Server.CORSOrigins),
			api.WithDefaultRadius(cfg.Events.RadiusMeters),
		)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      time.Duration(cfg.Planner.TimeoutSecs+15) * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().DurationVar(&serveCheckEvery, "check-interval", 5*time.Minute, "event freshness check interval")
	serveCmd.Flags().DurationVar(&serveStopsTTL, "stops-ttl", time.Hour, "how long a loaded stop inventory is reused")
	serveCmd.Flags().StringVar(&serveEventsFile, "events-file", "", "read events from this JSON file instead of the store")
	rootCmd.AddCommand(serveCmd)
}
