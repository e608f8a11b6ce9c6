// Command datastore-emulator serves the commit and lookup endpoints over a
// local backend so clients can run with DATASTORE_EMULATOR_HOST set.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-datastore/core"
	"github.com/goliatone/go-datastore/emulator"
)

const (
	defaultGracefulTimeout = 10 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

type serveOptions struct {
	address  string
	backend  string
	path     string
	dsn      string
	cache    bool
	cacheTTL time.Duration
	verbose  bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "datastore-emulator",
		Short: "Serve a local commit/lookup store",
		Long: `Serve a local store speaking the commit and lookup REST protocol.
Point clients at it with DATASTORE_EMULATOR_HOST=<address>.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.address, "address", "localhost:8081", "Address to listen on")
	flags.StringVar(&opts.backend, "backend", "memory", "Storage backend: memory, bolt, sqlite or postgres")
	flags.StringVar(&opts.path, "path", "datastore-emulator.db", "Database file for the bolt backend")
	flags.StringVar(&opts.dsn, "dsn", "", "Connection string for the sqlite and postgres backends")
	flags.BoolVar(&opts.cache, "cache", false, "Serve reads through an in-process cache")
	flags.DurationVar(&opts.cacheTTL, "cache-ttl", time.Minute, "Cache entry lifetime")
	flags.BoolVar(&opts.verbose, "verbose", false, "Log every request")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newConsoleLogger(opts.verbose)

	store, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	server := &http.Server{
		Addr:         opts.address,
		Handler:      emulator.NewServer(store, emulator.WithLogger(logger)),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("emulator listening", "address", opts.address, "backend", opts.backend, "cache", opts.cache)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-errs:
		if ok {
			logger.Error("emulator failed", "error", err.Error())
			return err
		}
		return nil
	case <-quit:
	}
	logger.Info("emulator shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("emulator forced to shutdown", "error", err.Error())
		return err
	}
	return nil
}

func openStore(ctx context.Context, opts serveOptions) (emulator.Store, error) {
	var (
		store emulator.Store
		err   error
	)
	switch opts.backend {
	case "memory":
		store = emulator.NewMemoryStore()
	case "bolt":
		store, err = emulator.OpenBoltStore(opts.path, emulator.BoltOptions{})
	case "sqlite":
		dsn := opts.dsn
		if dsn == "" {
			dsn = "file:datastore-emulator?mode=memory&cache=shared"
		}
		store, err = emulator.OpenSQLStore(ctx, emulator.SQLConfig{Driver: "sqlite3", DSN: dsn})
	case "postgres":
		store, err = emulator.OpenSQLStore(ctx, emulator.SQLConfig{Driver: "postgres", DSN: opts.dsn})
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.backend)
	}
	if err != nil {
		return nil, err
	}
	if !opts.cache {
		return store, nil
	}

	config := repositorycache.DefaultConfig()
	config.TTL = opts.cacheTTL
	cacheService, err := repositorycache.NewCacheService(config)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	cached, err := emulator.NewCachedStore(store, cacheService)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return cached, nil
}

var _ core.Logger = consoleLogger{}
