package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/nithiin7/lang2query"
	"github.com/nithiin7/lang2query/internal/config"
	"github.com/nithiin7/lang2query/internal/logging"
	"github.com/nithiin7/lang2query/internal/runtime"
	"github.com/nithiin7/lang2query/pkg/adapters/file"
	"github.com/nithiin7/lang2query/pkg/adapters/memory"
	redisAdapter "github.com/nithiin7/lang2query/pkg/adapters/redis"
	"github.com/nithiin7/lang2query/pkg/adapters/ws"
	"github.com/nithiin7/lang2query/pkg/observability"
	"github.com/nithiin7/lang2query/pkg/persistence/middleware"
	"github.com/nithiin7/lang2query/pkg/ports"
	"github.com/nithiin7/lang2query/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebSocket server",
	Long:  `Starts the workflow engine in server mode, streaming run events over WebSocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("catalog") {
			cfg.Catalog, _ = cmd.Flags().GetString("catalog")
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}

		logger := logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
		engine, err := lang2query.NewFromCatalog(cfg.Catalog,
			lang2query.WithLogger(logger),
			lang2query.WithLifecycleHooks(metrics.Hooks()),
			lang2query.WithRetryPolicy(runtime.RetryPolicy{
				RunRetries:    cfg.Engine.RunRetries,
				Regenerations: cfg.Engine.Regenerations,
			}),
			lang2query.WithQueueSize(cfg.Engine.QueueSize),
		)
		if err != nil {
			return err
		}

		store, mgrOpts, err := buildStore(cfg, logger)
		if err != nil {
			return err
		}
		mgrOpts = append(mgrOpts, session.WithManagerLogger(logger))
		mgr := session.NewManager(store, mgrOpts...)

		server := ws.NewServer(engine.Runtime(), mgr, ws.WithServerLogger(logger))
		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: server.Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", srv.Addr, "catalog", cfg.Catalog)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("failed to stop server: %w", err)
				}
			}
			logger.Info("server stopped")
		}
		return nil
	},
}

// buildStore assembles the snapshot store from config: backend selection
// first, then the storage middleware chain (PII masking outermost so
// encrypted payloads never contain unmasked text).
func buildStore(cfg config.Config, logger *slog.Logger) (ports.StateStore, []session.ManagerOption, error) {
	var store ports.StateStore
	var mgrOpts []session.ManagerOption

	switch cfg.Storage.Backend {
	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = redisAdapter.NewFromClient(client, redisAdapter.WithTTL(cfg.Redis.TTL))
		mgrOpts = append(mgrOpts,
			session.WithLocker(redisAdapter.NewLocker(client, "")),
			session.WithLockTTL(cfg.Redis.LockTTL),
		)
		logger.Info("using redis session store", "addr", cfg.Redis.Addr)
	case "file":
		store = file.New(cfg.Storage.Dir)
		logger.Info("using file session store", "dir", cfg.Storage.Dir)
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if len(cfg.Storage.PIIPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Storage.PIIPatterns))
	}
	if cfg.Storage.EncryptionKey != "" {
		active, err := decodeKey(cfg.Storage.EncryptionKey)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid storage.encryption_key: %w", err)
		}
		fallbacks := make([][]byte, 0, len(cfg.Storage.FallbackKeys))
		for _, k := range cfg.Storage.FallbackKeys {
			fb, err := decodeKey(k)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid storage.fallback_keys entry: %w", err)
			}
			fallbacks = append(fallbacks, fb)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
		logger.Info("snapshot encryption enabled")
	}
	return middleware.Chain(store, mws...), mgrOpts, nil
}

func decodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Path to the server config YAML")
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
