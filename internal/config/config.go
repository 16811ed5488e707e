package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Quiz struct {
		Duration string `yaml:"duration"`
	} `yaml:"quiz"`
	TokenFile string `yaml:"token_file"`
	Debug     bool   `yaml:"debug"`
}

// Load reads YAML config from path. A missing file yields an empty config,
// since every key has a default or an env override.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets environment variables override file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("QUIZ_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("QUIZ_TOKEN_FILE"); v != "" {
		c.TokenFile = v
	}
	if v := os.Getenv("QUIZ_API_DEBUG"); v != "" {
		c.Debug = strings.EqualFold(v, "true") || v == "1"
	}
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// DefaultTokenFile places the token file under the user config directory.
func DefaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".quiz-tokens.json"
	}
	return filepath.Join(dir, "quiz-client", "tokens.json")
}
