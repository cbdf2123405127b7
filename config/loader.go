package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort          = 16181
	DefaultScanIntervalS = 60
	DefaultMaxDepartures = 5

	// EnvConfigPath overrides the config file search.
	EnvConfigPath = "SIRI_DEPARTURES_CONFIG"
	EnvPort       = "SIRI_DEPARTURES_PORT"
	EnvLogLevel   = "SIRI_DEPARTURES_LOG_LEVEL"
)

// Config is the global application configuration
var Config AppConfig

// ErrNoInstance is returned by SelectInstance when nothing is configured.
var ErrNoInstance = errors.New("config: no instance configured")

// LoadAppConfig loads a .env file if present, then reads, expands and validates the
// first config file found on the search path, and stores it in Config.
func LoadAppConfig() error {
	_ = godotenv.Load()

	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, "config.yml", "./config/config.yml")

	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	cfg, err := Parse(data)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

// Parse expands ${VAR} references in data, decodes it, applies defaults and environment
// overrides, and validates the result.
func Parse(data []byte) (AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return AppConfig{}, err
	}
	applyDefaults(&cfg)
	if err := validator.New().Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	for i := range cfg.Instances {
		inst := &cfg.Instances[i]
		if inst.ScanIntervalS == 0 {
			inst.ScanIntervalS = DefaultScanIntervalS
		}
		if inst.MaxDepartures == 0 {
			inst.MaxDepartures = DefaultMaxDepartures
		}
	}
}

// SelectInstance chooses an instance by name; fallback to first.
func SelectInstance(name string) (Instance, error) {
	return Config.Instance(name)
}

// Instance returns the named instance, or the first one when name is empty or unknown.
func (c AppConfig) Instance(name string) (Instance, error) {
	if name != "" {
		for _, inst := range c.Instances {
			if inst.Name == name {
				return inst, nil
			}
		}
	}
	if len(c.Instances) > 0 {
		return c.Instances[0], nil
	}
	return Instance{}, ErrNoInstance
}
