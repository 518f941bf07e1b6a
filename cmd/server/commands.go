// cmd/server/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/prodcare/prodcare-backend/internal/config"
	"github.com/prodcare/prodcare-backend/internal/database"
	"github.com/prodcare/prodcare-backend/internal/i18n"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/router"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "prodcare",
		Short: "Maintenance and warranty tracking backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			setupLogging(cfg.Log)
			return nil
		},
		SilenceUsage: true,
		RunE:         runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed the admin account",
		RunE:  runMigrate,
	}

	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute the situation of every product and component from its issues",
		RunE:  runReconcile,
	}

	tokenCmd = &cobra.Command{
		Use:   "token [email]",
		Short: "Print an access token for an existing account",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd, tokenCmd)
}

func setupLogging(lc config.LogConfig) {
	if lc.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// openStore connects the configured backend. The returned closer is never nil.
func openStore(migrate bool) (repository.Store, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logrus.Warn("Using in-memory store, data is lost on exit")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	closer := func() { database.Close(db) }
	if migrate {
		if err := database.RunMigrations(db); err != nil {
			closer()
			return nil, nil, err
		}
	}
	return repository.NewGormStore(db), closer, nil
}

func seedAdmin(ctx context.Context, store repository.Store) error {
	generated, err := database.SeedInitialData(ctx, store, cfg.Admin)
	if err != nil {
		return err
	}
	if generated != "" {
		logrus.WithFields(logrus.Fields{
			"email":    cfg.Admin.Email,
			"password": generated,
		}).Warn("Generated admin password, change it after first login")
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := i18n.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize i18n: %w", err)
	}

	store, closeStore, err := openStore(true)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seedAdmin(ctx, store); err != nil {
		return err
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := router.NewServices(store, cfg)
	limiter := router.NewRateLimiter(cfg.RateLimit)
	if limiter != nil {
		go limiter.Run(ctx)
	}
	if every := cfg.Situation.ReconcileEvery(); every > 0 {
		go svc.Situation.RunReconciler(ctx, every)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Initialize(svc, cfg, limiter),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrus.Info("Server exited")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.Database.Driver == config.DriverMemory {
		return errors.New("migrate needs a postgres database")
	}
	store, closeStore, err := openStore(true)
	if err != nil {
		return err
	}
	defer closeStore()
	return seedAdmin(cmd.Context(), store)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore(false)
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := router.NewServices(store, cfg).Situation.Reconcile(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "products: %d (%d changed), components: %d (%d changed)\n",
		result.Products, result.ProductsChanged, result.Components, result.ComponentsChanged)
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore(false)
	if err != nil {
		return err
	}
	defer closeStore()

	account, err := store.GetAccount(cmd.Context(), args[0])
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("account %s does not exist", args[0])
	}
	if err != nil {
		return err
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	token, err := utils.GenerateJWT(account.Email, string(account.Role), cfg.JWT.AccessTokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
