package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"redforge/config"
	"redforge/db"
	"redforge/store"
)

var Version = "dev"

func main() {
	if err := newRootCmd(viper.New()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	config.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:           "redforge",
		Short:         "RedForge payment webhook intake",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("data-file", "", "customer store file (CUSTOMERS_FILE)")
	rootCmd.PersistentFlags().String("store-backend", "", "customer store backend: file or postgres (STORE_BACKEND)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (LOG_LEVEL)")
	bindFlag(v, rootCmd, "data_file", "data-file")
	bindFlag(v, rootCmd, "store_backend", "store-backend")
	bindFlag(v, rootCmd, "log_level", "log-level")

	rootCmd.AddCommand(serveCmd(v))
	rootCmd.AddCommand(signCmd(v))
	rootCmd.AddCommand(customersCmd(v))
	rootCmd.AddCommand(tokenCmd(v))

	return rootCmd
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	_ = v.BindPFlag(key, f)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.LogDev {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// setup loads configuration and builds the logger and customer store that
// every command shares.
func setup(ctx context.Context, v *viper.Viper) (config.Config, *zap.Logger, store.Store, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return cfg, nil, nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return cfg, nil, nil, err
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return cfg, log, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return cfg, log, nil, err
		}
		log.Info("database schema verified")
		return cfg, log, store.NewPostgresStore(log, conn), nil
	default:
		return cfg, log, store.NewFileStore(log, cfg.DataFile), nil
	}
}
