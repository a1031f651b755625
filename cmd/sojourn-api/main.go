package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sojourn-labs/sojourn/backend/internal/auth"
	"github.com/sojourn-labs/sojourn/backend/internal/blob"
	"github.com/sojourn-labs/sojourn/backend/internal/config"
	"github.com/sojourn-labs/sojourn/backend/internal/database"
	"github.com/sojourn-labs/sojourn/backend/internal/endorse"
	"github.com/sojourn-labs/sojourn/backend/internal/logging"
	"github.com/sojourn-labs/sojourn/backend/internal/picture"
	"github.com/sojourn-labs/sojourn/backend/internal/profile"
	"github.com/sojourn-labs/sojourn/backend/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sojourn-api",
		Short: "Sojourn travel community backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("session-cookie-name", defaults.GetString("session.cookie_name"), "Session cookie name")
	cmd.PersistentFlags().Duration("session-ttl", defaults.GetDuration("session.ttl"), "Session lifetime")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")
	cmd.PersistentFlags().String("upload-dir", defaults.GetString("upload.dir"), "Directory for uploaded profile pictures")
	cmd.PersistentFlags().String("upload-base-url", defaults.GetString("upload.base_url"), "Public base URL for uploaded assets")
	cmd.PersistentFlags().Bool("canonical-redirect", defaults.GetBool("profile.canonical_redirect"), "Redirect mixed-case profile URLs to lowercase")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "session.cookie_name", "session-cookie-name")
	bindFlag(cmd, "session.ttl", "session-ttl")
	bindFlag(cmd, "session.signing_secret", "signing-secret")
	bindFlag(cmd, "upload.dir", "upload-dir")
	bindFlag(cmd, "upload.base_url", "upload-base-url")
	bindFlag(cmd, "profile.canonical_redirect", "canonical-redirect")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	sessions, err := auth.NewSessionManager(auth.SessionManagerConfig{
		SigningSecret: []byte(appConfig.SessionSigningKey),
		Issuer:        appConfig.SessionIssuer,
		CookieName:    appConfig.SessionCookieName,
		TTL:           appConfig.SessionTTL,
	})
	if err != nil {
		return err
	}

	accounts, err := auth.NewAccounts(auth.AccountsConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	profiles, err := profile.NewService(profile.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
		Metadata: accounts,
	})
	if err != nil {
		return err
	}

	endorsements, err := endorse.NewService(endorse.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	store, err := blob.NewDiskStore(appConfig.UploadDir, appConfig.UploadBaseURL)
	if err != nil {
		return err
	}

	pictures, err := picture.NewService(picture.ServiceConfig{
		Database: db,
		Store:    store,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Sessions:          sessions,
		Accounts:          accounts,
		Profiles:          profiles,
		Endorsements:      endorsements,
		Pictures:          pictures,
		Logger:            logger,
		CanonicalRedirect: appConfig.CanonicalRedirect,
		UploadDir:         appConfig.UploadDir,
		UploadBaseURL:     appConfig.UploadBaseURL,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
