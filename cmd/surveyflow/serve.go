package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	api "github.com/aretw0/surveyflow/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves condition evaluation, navigation, graph transforms, the graph editor and
respondent sessions over HTTP, plus Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}

		stack, err := newStack()
		if err != nil {
			return err
		}
		defer stack.Close()
		logger := stack.Logger

		handler := api.NewHandler(stack.Loader, stack.Sessions,
			api.WithEvaluator(stack.Evaluator),
			api.WithLayout(cfg.Layout),
			api.WithHistoryCapacity(cfg.History.Capacity),
			api.WithMetrics(stack.Metrics),
			api.WithLifecycleHooks(stack.Hooks),
			api.WithCORSOrigins(cfg.Server.CORSOrigins...),
			api.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Surveyflow Server", "addr", srv.Addr, "surveys", cfg.Surveys.Dir, "store", cfg.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			return err
		case sig := <-shutdown:
			logger.Info("Shutdown Started", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			logger.Info("Surveyflow Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (default from config)")
}
