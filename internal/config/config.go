// Package config loads go_dukpt settings from a YAML file, the environment
// and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	appDir    = ".go_dukpt"
	envPrefix = "GODUKPT"
)

var (
	configData Config
	v          *viper.Viper
)

// Config holds all configuration settings.
type Config struct {
	Server struct {
		Host string
		Port int
	}
	HSM struct {
		LMK      string
		Firmware string
	}
	Cache struct {
		Size int
	}
	Metrics struct {
		Address string
	}
	Log struct {
		Level  string
		Format string
	}
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Initialize sets up the configuration system. An explicit configFile
// overrides the search path.
func Initialize(configFile string) error {
	v = viper.New()

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", appDir))
		v.AddConfigPath("/etc/go_dukpt/")
	}

	setDefaults()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		if err := ensureConfig(); err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Defaults apply when no file is found.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	configData = Config{}
	if err := v.Unmarshal(&configData); err != nil {
		return fmt.Errorf("unable to decode into config struct: %w", err)
	}

	return nil
}

func setDefaults() {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 1500)

	v.SetDefault("hsm.lmk", "0123456789ABCDEFFEDCBA9876543210")
	v.SetDefault("hsm.firmware", "0007-E000")

	v.SetDefault("cache.size", 1024)

	v.SetDefault("metrics.address", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "human")
}

const defaultConfig = `# go_dukpt configuration file
server:
  host: localhost
  port: 1500

hsm:
  lmk: 0123456789ABCDEFFEDCBA9876543210
  firmware: 0007-E000

cache:
  size: 1024

metrics:
  address: ""

log:
  level: info
  format: human
`

// ensureConfig creates a default config file under $HOME if none exists.
func ensureConfig() error {
	home := os.Getenv("HOME")
	if home == "" {
		return nil
	}

	dir := filepath.Join(home, appDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := os.WriteFile(configFile, []byte(defaultConfig), 0o600); err != nil {
			return err
		}
	}

	return nil
}

// Get returns the current configuration.
func Get() *Config {
	return &configData
}

// GetViper returns the viper instance.
func GetViper() *viper.Viper {
	return v
}
