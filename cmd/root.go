package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	Logger  *zap.Logger
)

var RootCmd = &cobra.Command{
	Use:   "lite2flake",
	Short: "Migrate SQLite databases into Snowflake",
	Long: `
LITE2FLAKE ❄ - SQLite to Snowflake migration

Exports SQLite databases to CSV and DDL artifacts, creates the matching
Snowflake tables and loads every table at most once.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(viper.GetString("log.level"), viper.GetString("log.format"), viper.GetString("log.file"))
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		Logger = logger
		if used := viper.ConfigFileUsed(); used != "" {
			Logger.Debug("Using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if Logger != nil {
			_ = Logger.Sync()
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./lite2flake.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	RootCmd.PersistentFlags().String("log-file", "", "also write logs to this file")
	RootCmd.PersistentFlags().String("csv-dir", "output_csv", "directory of exported CSV files")
	RootCmd.PersistentFlags().String("sql-dir", "output_sql", "directory of generated DDL files")

	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", RootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log.file", RootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("paths.csv_dir", RootCmd.PersistentFlags().Lookup("csv-dir"))
	viper.BindPFlag("paths.sql_dir", RootCmd.PersistentFlags().Lookup("sql-dir"))

	viper.SetDefault("snowflake.role", "ACCOUNTADMIN")
	viper.SetDefault("snowflake.authenticator", "externalbrowser")
}

// snowflakeEnv maps config keys to the environment variables that may set
// them, in order of preference.
var snowflakeEnv = map[string][]string{
	"snowflake.account":       {"SNOWFLAKE_ACCOUNT"},
	"snowflake.user":          {"SNOWFLAKE_USER"},
	"snowflake.password":      {"SNOWFLAKE_PASSWORD"},
	"snowflake.warehouse":     {"SNOWFLAKE_WAREHOUSE"},
	"snowflake.database":      {"SNOWFLAKE_DATABASE"},
	"snowflake.schema":        {"SNOWFLAKE_SCHEMA"},
	"snowflake.role":          {"SNOWFLAKE_ROLE"},
	"snowflake.authenticator": {"SNOWFLAKE_AUTHENTICATOR", "SNOWFLAKE_AUTH_TYPE"},
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	// .env never overrides variables already set in the environment.
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("lite2flake")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, envs := range snowflakeEnv {
		viper.BindEnv(append([]string{key}, envs...)...)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintln(os.Stderr, "Failed to read config:", err)
		}
	}
}

func newLogger(level, format, file string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Sampling = nil
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch strings.ToLower(format) {
	case "", "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		cfg.Encoding = "json"
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}
	return cfg.Build()
}
