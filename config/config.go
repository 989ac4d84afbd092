// Package config loads docstory settings from a YAML file, the environment
// and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user configuration directory under the home directory.
const DirName = ".docstory"

// Global configuration structure.
type Global struct {
	PortalURL string `mapstructure:"portal_url" yaml:"portal_url"`
	Username  string `mapstructure:"username" yaml:"username"`
	Password  string `mapstructure:"password" yaml:"password"`

	// Debug is the verbosity: none, basic or full.
	Debug             string `mapstructure:"debug" yaml:"debug"`
	DebugOutputFolder string `mapstructure:"debug_output_folder" yaml:"debug_output_folder"`

	MediaDir    string `mapstructure:"media_dir" yaml:"media_dir"`
	JournalPath string `mapstructure:"journal_path" yaml:"journal_path"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.docstory/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := userDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// The file may hold a password.
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command-line flags are applied
// by the caller on top.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCSTORY")
	v.AutomaticEnv()

	v.SetDefault("portal_url", "https://www.arcgis.com")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("debug", "none")
	v.SetDefault("debug_output_folder", "")
	v.SetDefault("media_dir", "")
	v.SetDefault("journal_path", "")
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := userDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if c.JournalPath == "" || c.MediaDir == "" {
		dir, err := userDir()
		if err != nil {
			return nil, err
		}
		if c.JournalPath == "" {
			c.JournalPath = filepath.Join(dir, "journal.db")
		}
		if c.MediaDir == "" {
			c.MediaDir = filepath.Join(os.TempDir(), "docstory-media")
		}
	}
	return &c, nil
}

// Validate reports settings a publish run cannot do without.
func (c *Global) Validate() error {
	var errs []error
	if c.PortalURL == "" {
		errs = append(errs, errors.New("portal_url is not set"))
	}
	if c.Username == "" {
		errs = append(errs, errors.New("username is not set (DOCSTORY_USERNAME)"))
	}
	if c.Password == "" {
		errs = append(errs, errors.New("password is not set (DOCSTORY_PASSWORD)"))
	}
	switch c.Debug {
	case "", "none", "basic", "full":
	default:
		errs = append(errs, fmt.Errorf("debug must be none, basic or full, got %q", c.Debug))
	}
	return errors.Join(errs...)
}

// HTTPTimeout returns the request timeout.
func (c *Global) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// RetryBaseDelay returns the first retry delay.
func (c *Global) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// RetryMaxDelay returns the cap on retry delays.
func (c *Global) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}

func userDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}
