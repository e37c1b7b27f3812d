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

	"github.com/MarcoPoloResearchLab/aura-sync/internal/activitysync"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/auth"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/config"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/database"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/logging"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/records"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/remote"
	"github.com/MarcoPoloResearchLab/aura-sync/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aura-sync",
		Short: "Aura activity sync service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newResyncCommand())

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
	cmd.PersistentFlags().String("hooks-signing-secret", "", "Shared secret used by the CMS to sign hook tokens; required to serve, unused by resync (overrides env)")
	cmd.PersistentFlags().String("hooks-issuer", defaults.GetString("hooks.issuer"), "Expected issuer of hook tokens")
	cmd.PersistentFlags().String("remote-driver", defaults.GetString("remote.driver"), "Remote document store (firestore, sqlite, none)")
	cmd.PersistentFlags().String("remote-credentials-path", defaults.GetString("remote.credentials_path"), "Firestore service account file")
	cmd.PersistentFlags().String("remote-project-id", defaults.GetString("remote.project_id"), "Firestore project id (detected from credentials when empty)")
	cmd.PersistentFlags().String("plugin-dir", defaults.GetString("plugin.dir"), "Directory relative credentials paths are resolved against")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "hooks.signing_secret", "hooks-signing-secret")
	bindFlag(cmd, "hooks.issuer", "hooks-issuer")
	bindFlag(cmd, "remote.driver", "remote-driver")
	bindFlag(cmd, "remote.credentials_path", "remote-credentials-path")
	bindFlag(cmd, "remote.project_id", "remote-project-id")
	bindFlag(cmd, "plugin.dir", "plugin-dir")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	// a missing .env file is normal outside development
	_ = godotenv.Load()

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

func newResyncCommand() *cobra.Command {
	var recordID string
	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Re-project a stored activity into the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResync(cmd.Context(), recordID)
		},
	}
	cmd.Flags().StringVar(&recordID, "record-id", "", "Identifier of the activity record to re-sync")
	if err := cmd.MarkFlagRequired("record-id"); err != nil {
		panic(err)
	}
	return cmd
}

// runtime holds the collaborators shared by the serve and resync commands.
type runtime struct {
	config       config.AppConfig
	logger       *zap.Logger
	records      *records.Store
	connector    *remote.LazyConnector
	synchronizer *activitysync.Synchronizer
	closeDB      func() error
}

func newRuntime(appConfig config.AppConfig) (*runtime, error) {
	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	recordStore, err := records.NewStore(records.StoreConfig{Database: db})
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	connector := remote.NewLazyConnector(remoteDial(appConfig, db), logger)

	synchronizer, err := activitysync.NewSynchronizer(activitysync.SynchronizerConfig{
		Records:    recordStore,
		Connector:  connector,
		Logger:     logger,
		IDProvider: activitysync.NewUUIDProvider(),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &runtime{
		config:       appConfig,
		logger:       logger,
		records:      recordStore,
		connector:    connector,
		synchronizer: synchronizer,
		closeDB:      sqlDB.Close,
	}, nil
}

func (r *runtime) Close() {
	if err := r.connector.Close(); err != nil {
		r.logger.Warn("remote connection close failed", zap.Error(err))
	}
	if err := r.closeDB(); err != nil {
		r.logger.Warn("database close failed", zap.Error(err))
	}
	_ = r.logger.Sync()
}

func remoteDial(appConfig config.AppConfig, db *gorm.DB) remote.DialFunc {
	switch appConfig.RemoteDriver {
	case config.RemoteDriverSQLite:
		return remote.SQLiteMirrorDial(remote.NewSQLiteMirror(db, time.Now))
	case config.RemoteDriverNone:
		return remote.DisabledDial
	default:
		return remote.FirestoreDial(remote.FirestoreConfig{
			CredentialsPath: appConfig.CredentialsPath(),
			ProjectID:       appConfig.RemoteProjectID,
		})
	}
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := appConfig.ValidateHooks(); err != nil {
		return err
	}

	rt, err := newRuntime(appConfig)
	if err != nil {
		return err
	}
	defer rt.Close()

	hookValidator, err := auth.NewHookValidator(auth.HookValidatorConfig{
		SigningSecret: []byte(rt.config.HooksSigningSecret),
		Issuer:        rt.config.HooksIssuer,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		HookValidator: hookValidator,
		Records:       rt.records,
		Synchronizer:  rt.synchronizer,
		Logger:        rt.logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    rt.config.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("server starting",
			zap.String("address", rt.config.HTTPAddress),
			zap.String("remote_driver", rt.config.RemoteDriver))
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

func runResync(ctx context.Context, rawRecordID string) error {
	recordID, err := records.NewRecordID(rawRecordID)
	if err != nil {
		return err
	}

	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	rt, err := newRuntime(appConfig)
	if err != nil {
		return err
	}
	defer rt.Close()

	snapshot, err := rt.records.Record(ctx, recordID)
	if err != nil {
		return err
	}

	outcome := rt.synchronizer.OnRecordSaved(ctx, activitysync.SaveEvent{
		RecordID: recordID,
		Record:   snapshot,
	})
	if outcome.Failure != "" {
		return fmt.Errorf("resync of record %s failed: %s", recordID, outcome.Failure)
	}
	if outcome.Skipped() {
		rt.logger.Warn("resync skipped",
			zap.String("record_id", recordID.String()),
			zap.String("reason", string(outcome.SkipReason)))
		return nil
	}
	rt.logger.Info("resync complete",
		zap.String("record_id", recordID.String()),
		zap.String("external_key", outcome.ExternalKey))
	return nil
}
