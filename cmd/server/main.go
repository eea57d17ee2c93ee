package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/cryptoledger/ledger-engine/internal/api"
	"github.com/cryptoledger/ledger-engine/internal/catalog"
	"github.com/cryptoledger/ledger-engine/internal/config"
	"github.com/cryptoledger/ledger-engine/internal/ledger"
	"github.com/cryptoledger/ledger-engine/internal/model"
	"github.com/cryptoledger/ledger-engine/internal/report"
	"github.com/cryptoledger/ledger-engine/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ledger",
		Short:        "Simulated crypto exchange ledger",
		SilenceUsage: true,
	}
	config.AddFlags(root)

	root.AddCommand(newServeCmd(), newReportCmd(), newAssetsCmd())
	return root
}

// setup loads config and installs the default JSON logger.
func setup(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return cfg, err
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, nil
}

// openStore picks the snapshot backend from cfg. The returned cleanup
// closes any connections it opened.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	var st store.Store
	var cleanup []func()
	closeAll := func() {
		for _, fn := range cleanup {
			fn()
		}
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, closeAll, fmt.Errorf("database connection failed: %w", err)
		}
		cleanup = append(cleanup, pool.Close)
		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			return nil, closeAll, fmt.Errorf("migrate: %w", err)
		}
		st = pg
		slog.Info("connected to PostgreSQL")
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, closeAll, fmt.Errorf("create data dir: %w", err)
		}
		st = store.NewDirStore(cfg.DataDir)
		slog.Info("using file store", "dir", cfg.DataDir)
	}

	// Wrap with Redis cache if configured.
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, closeAll, fmt.Errorf("invalid redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		st = store.NewCachedStore(st, rdb, cfg.CacheTTL)
		slog.Info("Redis cache enabled", "ttl", cfg.CacheTTL)
	}

	return st, closeAll, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	st, cleanup, err := openStore(ctx, cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	// --- WebSocket hub ---
	wsHub := api.NewWSHub()
	go wsHub.Run()

	// --- Ledger ---
	engine, err := ledger.Open(ctx, catalog.Reference(), st, ledger.WithObserver(wsHub.Publish))
	if err != nil {
		return err
	}
	handler := api.NewHandler(engine, wsHub)

	// --- HTTP router ---
	r := api.NewRouter(handler)

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("ledger listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down ledger...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "report [kind]",
		Short: "Print the most traded asset per kind, or per-kind totals with no kind",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			st, cleanup, err := openStore(cmd.Context(), cfg)
			defer cleanup()
			if err != nil {
				return err
			}
			log, err := st.LoadTransactions(cmd.Context())
			if err != nil {
				return fmt.Errorf("load transactions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, s := range report.Summary(log) {
					fmt.Fprintf(out, "%-18s %6d %s\n", s.Kind, s.Count, s.Volume.StringFixed(2))
				}
				return nil
			}

			kind, ok := model.ParseKind(args[0])
			if !ok || !kind.HasAsset() {
				return fmt.Errorf("kind must be one of buy, sell, network_withdraw, network_deposit")
			}
			var asset string
			switch by {
			case "count":
				asset, ok = report.MostTradedByCount(log, kind)
			case "volume":
				asset, ok = report.MostTradedByVolume(log, kind)
			default:
				return fmt.Errorf("--by must be count or volume, got %q", by)
			}
			if !ok {
				fmt.Fprintf(out, "no %s transactions\n", kind)
				return nil
			}
			fmt.Fprintln(out, asset)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "volume", "rank by count or volume")
	return cmd
}

func newAssetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "List the asset catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, a := range catalog.Reference().Assets() {
				fmt.Fprintf(out, "%-10s %-4s %14s  %s\n", a.Symbol, a.Prefix, a.Price.StringFixed(2), strings.Join(a.Networks, ", "))
			}
			return nil
		},
	}
}
