// Package config loads the tool's defaults (reader selection, key number,
// SDM base URL) from built-in defaults, a config file, and environment
// variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the defaults a command picks up when its flags are left
// unset.
type Config struct {
	// ReaderIndex selects which PC/SC reader to use when more than one is
	// present.
	ReaderIndex int `mapstructure:"reader_index" yaml:"reader_index"`

	// KeyNo is the default application key number used to authenticate
	// before privileged operations.
	KeyNo byte `mapstructure:"key_no" yaml:"key_no"`

	// FileNo is the default file number targeted by ChangeFileSettings,
	// GetFileSettings, and GetSDMReadCounter (NDEF file = 2 on NTAG 424 DNA).
	FileNo byte `mapstructure:"file_no" yaml:"file_no"`

	// BaseURL is the default URL template used when building an SDM NDEF
	// record.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// SDMOptions is the default SDMOptions byte applied when none is given
	// on the command line.
	SDMOptions byte `mapstructure:"sdm_options" yaml:"sdm_options"`
}

// Default returns the tool's built-in defaults, used when no config file,
// flag, or environment variable overrides a field.
func Default() Config {
	return Config{
		ReaderIndex: 0,
		KeyNo:       0,
		FileNo:      2,
		BaseURL:     "https://example.com/tap",
		SDMOptions:  0xC1,
	}
}

const envPrefix = "NTAG424CTL"

// Load reads configuration from configPath (or the default search path if
// empty), layering the config file and then environment variables over the
// built-in defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	cfg := Default()
	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if found {
		bindDefaults(v, cfg)
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	} else {
		bindDefaults(v, cfg)
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read: %w", err)
	}
	return true, nil
}

// bindDefaults seeds viper with Default()'s values so AutomaticEnv overrides
// apply to every key, including keys a config file does not set and when no
// config file was found.
func bindDefaults(v *viper.Viper, d Config) {
	v.SetDefault("reader_index", d.ReaderIndex)
	v.SetDefault("key_no", d.KeyNo)
	v.SetDefault("file_no", d.FileNo)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("sdm_options", d.SDMOptions)
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ntag424ctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ntag424ctl"
	}
	return filepath.Join(home, ".config", "ntag424ctl")
}
