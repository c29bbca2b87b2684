package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/treasurehunt/internal/config"
	"github.com/mmynk/treasurehunt/internal/httpapi"
	"github.com/mmynk/treasurehunt/internal/ledger"
	"github.com/mmynk/treasurehunt/internal/storage"
	"github.com/mmynk/treasurehunt/internal/storage/memory"
	"github.com/mmynk/treasurehunt/internal/storage/postgres"
	"github.com/mmynk/treasurehunt/internal/storage/sqlite"
	"github.com/mmynk/treasurehunt/internal/treasure"
	"github.com/mmynk/treasurehunt/pkg/logging"
)

// treasureStore is a store that can also be seeded.
type treasureStore interface {
	storage.TreasureStore
	storage.TreasureWriter
}

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	// The env file may set LOG_LEVEL, so it is loaded before logging is configured.
	cfg, err := config.Load(*envFile)
	logging.Setup()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.SeedPath != "" {
		n, err := storage.LoadSeedFile(ctx, store, cfg.SeedPath)
		if err != nil {
			return fmt.Errorf("failed to seed store: %w", err)
		}
		slog.Info("Store seeded", "path", cfg.SeedPath, "treasures", n)
	}

	l, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	svc := treasure.NewService(store, l)
	router := httpapi.NewRouter(httpapi.NewHandler(svc))

	// h2c serves HTTP/2 without TLS alongside HTTP/1.1.
	handler := h2c.NewHandler(corsMiddleware(router), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (treasureStore, error) {
	switch cfg.Store {
	case config.StoreMemory:
		slog.Info("Storage initialized", "store", cfg.Store)
		return memory.New(), nil
	case config.StorePostgres:
		s, err := postgres.New(ctx, cfg.Postgres.URL, postgres.Options{
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
			PingAttempts: cfg.Postgres.PingAttempts,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		slog.Info("Storage initialized", "store", cfg.Store)
		return s, nil
	default:
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite: %w", err)
		}
		slog.Info("Storage initialized", "store", cfg.Store, "database", cfg.DBPath)
		return s, nil
	}
}

func openLedger(ctx context.Context, cfg *config.Config) (ledger.Ledger, func(), error) {
	if cfg.Ledger != config.LedgerRedis {
		slog.Info("Ledger initialized", "ledger", cfg.Ledger)
		return ledger.NewMemoryLedger(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	slog.Info("Ledger initialized", "ledger", cfg.Ledger, "addr", cfg.Redis.Addr)
	return ledger.NewRedisLedger(client, cfg.Redis.Prefix), func() { client.Close() }, nil
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, userId")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
