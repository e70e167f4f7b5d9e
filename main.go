// Package main provides the entry point for the deutschmaster CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	sheetURL   string

	rootCmd = &cobra.Command{
		Use:   "deutschmaster",
		Short: "Learn German vocabulary from the command line",
		Long: "\nManage a German vocabulary collection: sync it with a shared " +
			"spreadsheet, hear native pronunciation, and track mastery.",
		SilenceErrors: false,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
	}
)

// envConfig is runtime behavior read from the environment, mostly for
// debugging.
type envConfig struct {
	Debug   bool   `env:"DEBUG"`
	LogFile string `env:"LOG_FILE"`
}

// setupLog configures the global logger from the environment and
// returns a closer for the log file, if any.
func setupLog() (func() error, error) {
	// A .env file is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := env.ParseAsWithOptions[envConfig](env.Options{Prefix: "DM_"})
	if err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		log.SetOutput(f)
		return f.Close, nil
	}
	log.SetOutput(os.Stderr)
	return func() error { return nil }, nil
}

// appScope is the single gap scope used for config and data paths.
var appScope = gap.NewScope(gap.User, "deutschmaster")

// dataDir returns the directory holding the database and snapshots.
func dataDir() (string, error) {
	dirs, err := appScope.DataDirs()
	if err != nil || len(dirs) == 0 {
		return "", fmt.Errorf("could not determine data directory: %w", err)
	}
	if err := os.MkdirAll(dirs[0], 0o755); err != nil {
		return "", fmt.Errorf("could not create data directory: %w", err)
	}
	return dirs[0], nil
}

func tryLoadConfigFromDefaultPlaces() {
	dirs, err := appScope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "deutschmaster")}, dirs...)
	}

	if c := os.Getenv("DM_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("deutschmaster")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("dm")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	configFile = filepath.Join(dirs[0], "deutschmaster.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVar(&sheetURL, "sheet", "", "remote word store endpoint (overrides config)")
	_ = viper.BindPFlag("sheet.url", rootCmd.PersistentFlags().Lookup("sheet"))

	viper.SetDefault("sheet.url", "")
	viper.SetDefault("speech.endpoint", "")
	viper.SetDefault("speech.retry_base", "1s")

	rootCmd.AddCommand(syncCmd, speakCmd, listCmd, addCmd, deleteCmd, progressCmd, configCmd, manCmd)
}

// quietLogsUnlessDebug silences the logger for commands whose stdout
// is the product.
func quietLogsUnlessDebug() {
	if log.GetLevel() != log.DebugLevel {
		log.SetOutput(io.Discard)
	}
}
