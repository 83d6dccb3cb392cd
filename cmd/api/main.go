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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"github.com/wyna/storefront/internal/config"
	"github.com/wyna/storefront/internal/modules/admin"
	"github.com/wyna/storefront/internal/platform/database"
	"github.com/wyna/storefront/internal/platform/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "storefront order and payment API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the notification worker",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: migrateDB,
			},
			{
				Name:  "create-admin",
				Usage: "create a back-office account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Action: createAdmin,
			},
		},
		DefaultCommand: "serve",
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(cfg.ServiceName, cfg.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	a := newApp(ctx, cfg, st, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	defer a.close()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http_server_start", zap.String("addr", server.Addr), zap.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http_server_shutdown_error", zap.Error(err))
			return err
		}
		logger.Info("http_server_stopped")
		return nil
	})
	return g.Wait()
}

func migrateDB(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if cfg.StoreDriver != "postgres" {
		return fmt.Errorf("migrate needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
	}

	db, err := database.Open(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := database.Migrate(db)
	if err != nil {
		return err
	}
	logger.Info("migrations_applied", zap.Uint("version", version))
	return nil
}

func createAdmin(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if cfg.StoreDriver != "postgres" {
		return fmt.Errorf("create-admin needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
	}

	db, err := database.Open(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := admin.NewService(admin.NewPostgresRepository(db)).Create(c.Context, admin.CreateRequest{
		Name:     c.String("name"),
		Email:    c.String("email"),
		Password: c.String("password"),
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin_created", zap.String("admin_id", a.ID.String()), zap.String("email", a.Email))
	return nil
}
