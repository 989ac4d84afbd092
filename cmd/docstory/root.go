package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/docstory/config"
	"github.com/tsawler/docstory/logging"
)

var (
	// Global flags
	cfgFile   string
	debugFlag string
	// HTTP/retry flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int

	// Loaded configuration
	cfg *config.Global
)

var rootCmd = &cobra.Command{
	Use:   "docstory",
	Short: "Turn DOCX and HTML documents into StoryMap stories",
	Long: `docstory extracts headings, paragraphs, lists, images, tables and code from
DOCX and HTML documents and publishes them as a StoryMap story.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.docstory/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&debugFlag, "debug", "", "verbosity: none, basic or full (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
}

func loadConfig() {
	c, err := config.Load(cfgFile)
	if err != nil {
		// Non-fatal: extract works without a config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("debug") {
		cfg.Debug = debugFlag
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
}

// verbosity returns the effective verbosity, falling back to the flag when
// no config was loaded.
func verbosity() (logging.Verbosity, error) {
	v := debugFlag
	if cfg != nil {
		v = cfg.Debug
	}
	return logging.ParseVerbosity(v)
}

// stderrLogger builds a logger for commands that do not keep a debug log.
func stderrLogger(w io.Writer) (*slog.Logger, error) {
	v, err := verbosity()
	if err != nil {
		return nil, err
	}
	return logging.New(w, v), nil
}

// requireConfig returns the loaded configuration after validating it.
func requireConfig() (*config.Global, error) {
	if cfg == nil {
		c, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}
