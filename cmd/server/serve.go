package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/ledger/internal/auth"
	"github.com/mmynk/ledger/internal/events"
	"github.com/mmynk/ledger/internal/ledger"
	"github.com/mmynk/ledger/internal/metrics"
	"github.com/mmynk/ledger/internal/middleware"
	"github.com/mmynk/ledger/internal/service"
	"github.com/mmynk/ledger/internal/storage/sqlite"
	"github.com/mmynk/ledger/pkg/api/apiconnect"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Connect API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "listen port (overrides server.port)")
	return cmd
}

func runServe(ctx context.Context) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be set to serve (LEDGER_AUTH_JWT_SECRET)")
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	m := metrics.New(prometheus.DefaultRegisterer)

	var notifier ledger.Notifier = ledger.NopNotifier{}
	if cfg.AMQP.URL != "" {
		publisher, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey)
		if err != nil {
			return fmt.Errorf("failed to connect to AMQP: %w", err)
		}
		defer publisher.Close()
		notifier = publisher
		slog.Info("Publishing balance changes", "exchange", cfg.AMQP.Exchange, "routing_key", cfg.AMQP.RoutingKey)
	}

	l := ledger.New(store, ledger.Options{
		Config:           cfg.LedgerRules(),
		Notifier:         notifier,
		Metrics:          m,
		ReconcileWorkers: cfg.Ledger.ReconcileWorkers,
	})

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	interceptors := connect.WithInterceptors(
		middleware.RecoverInterceptor(),
		middleware.LoggingInterceptor(),
		middleware.RequireAuth(jwtManager),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewBalanceServiceHandler(service.NewBalanceService(l), interceptors))
	mux.Handle(apiconnect.NewCategoryServiceHandler(service.NewCategoryService(l), interceptors))
	mux.Handle(apiconnect.NewTransactionServiceHandler(service.NewTransactionService(l), interceptors))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// h2c serves HTTP/2 without TLS for Connect and gRPC clients.
	handler := h2c.NewHandler(middleware.LogRequests(middleware.CORS(mux)), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
