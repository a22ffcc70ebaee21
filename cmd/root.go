package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/YohanssenPardede/proyek-analisis-data/internal/config"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/logger"
)

var (
	// Global flags
	cfgFile string
	envFile string
	debug   bool

	// Loaded configuration and logger
	cfg *cfgpkg.Global
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "orderlens",
	Short: "OrderLens CLI: RFM customer segmentation for e-commerce order data",
	Long: `OrderLens scores every customer of an order dataset on recency, frequency and
monetary value, classifies them into Gold/Silver/Bronze segments and exports the
result as CSV, XLSX, Arrow, JSON, SQLite or Markdown. It can also serve the
scores over HTTP.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.orderlens/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with ORDERLENS_* overrides (ignored if missing)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile, envFile)
	if err != nil {
		// Non-fatal: fall back to defaults so read-only commands still work
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log = logger.New(logger.Options{Level: level, Format: cfg.LogFormat})
}

// settings returns the loaded configuration, loading it if no initializer ran.
func settings() *cfgpkg.Global {
	if cfg == nil || log == nil {
		loadConfig()
	}
	return cfg
}
