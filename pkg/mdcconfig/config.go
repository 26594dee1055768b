// Package mdcconfig loads cmd/mdcmodem's runtime configuration from a
// YAML file, environment variables, and built-in defaults.
//
// Viper-backed, with mapstructure-tagged nested structs; defaults
// apply when no config file is present.
package mdcconfig

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is cmd/mdcmodem's full runtime configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Modem   ModemConfig   `mapstructure:"modem"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig identifies this modem instance in logs and output files.
type ServerConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// ModemConfig holds the encoder/decoder tuning parameters exposed to
// the CLI harness.
type ModemConfig struct {
	SampleRate     int     `mapstructure:"sample_rate"`
	SampleFormat   string  `mapstructure:"sample_format"` // u8, u16, s16, float
	DemodMode      string  `mapstructure:"demod_mode"`    // differentiator, fourpoint
	SlotCount      int     `mapstructure:"slot_count"`
	GDThresh       int     `mapstructure:"gd_threshold"`
	Hysteresis     float64 `mapstructure:"hysteresis"`
	FillFinal      bool    `mapstructure:"fill_final"`
	FullAmplitude  bool    `mapstructure:"full_amplitude"`
}

// LoggingConfig holds structured-logger settings (see pkg/logger).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig toggles decode-statistics collection.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from configFile (or the default search
// path, if empty), environment variables prefixed MDCMODEM_, and
// built-in defaults. Environment variables take precedence over the
// config file, which takes precedence over the defaults.
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/mdcmodem")
	}

	viper.SetEnvPrefix("MDCMODEM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file is fine, defaults apply.
		} else if os.IsNotExist(err) {
			// Explicitly-named file missing is also fine.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.name", "mdcmodem")
	viper.SetDefault("server.description", "MDC-1200 encode/decode utility")

	viper.SetDefault("modem.sample_rate", 22050)
	viper.SetDefault("modem.sample_format", "s16")
	viper.SetDefault("modem.demod_mode", "differentiator")
	viper.SetDefault("modem.slot_count", 5)
	viper.SetDefault("modem.gd_threshold", 5)
	viper.SetDefault("modem.hysteresis", 3.0/256.0)
	viper.SetDefault("modem.fill_final", false)
	viper.SetDefault("modem.full_amplitude", false)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stdout")

	viper.SetDefault("metrics.enabled", true)
}

func validate(cfg *Config) error {
	if cfg.Modem.SampleRate <= 0 {
		return fmt.Errorf("modem.sample_rate must be positive, got %d", cfg.Modem.SampleRate)
	}
	if cfg.Modem.SlotCount <= 0 {
		return fmt.Errorf("modem.slot_count must be positive, got %d", cfg.Modem.SlotCount)
	}
	switch cfg.Modem.SampleFormat {
	case "u8", "u16", "s16", "float":
	default:
		return fmt.Errorf("modem.sample_format must be one of u8, u16, s16, float, got %q", cfg.Modem.SampleFormat)
	}
	switch cfg.Modem.DemodMode {
	case "differentiator", "fourpoint":
	default:
		return fmt.Errorf("modem.demod_mode must be one of differentiator, fourpoint, got %q", cfg.Modem.DemodMode)
	}
	return nil
}
