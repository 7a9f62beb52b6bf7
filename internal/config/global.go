// Package config resolves the global configuration and the data directory
// layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/pgraph/config.yml.
type GlobalConfig struct {
	DataDir       string `yaml:"data_dir,omitempty"`
	HFAPIToken    string `yaml:"hf_api_token,omitempty"`
	OllamaURL     string `yaml:"ollama_url,omitempty"`
	OllamaModel   string `yaml:"ollama_model,omitempty"`
	K             int    `yaml:"k,omitempty"`
	ScrapeWorkers int    `yaml:"scrape_workers,omitempty"`
	LogLevel      string `yaml:"log_level,omitempty"`
	LogFormat     string `yaml:"log_format,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "pgraph"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// DefaultDataDir is used when neither config nor environment set one.
	DefaultDataDir = "data"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/pgraph/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadEnvFile loads .env from the working directory if present. Variables
// already set in the environment win.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. Returns an empty config (not an error) if the
// file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg := &GlobalConfig{}
	if path := GlobalConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	applyEnv(cfg)
	if cfg.DataDir != "" {
		cfg.DataDir = ExpandTilde(cfg.DataDir)
	}

	globalConfigCache = cfg
	return cfg, nil
}

// applyEnv lets environment variables override file values.
func applyEnv(cfg *GlobalConfig) {
	if v := os.Getenv("PGRAPH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("HF_API_TOKEN"); v != "" {
		cfg.HFAPIToken = v
	} else if v := os.Getenv("HUGGINGFACE_TOKEN"); v != "" && cfg.HFAPIToken == "" {
		cfg.HFAPIToken = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.OllamaURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("PGRAPH_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			cfg.K = k
		}
	}
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ExpandTilde replaces a leading ~ with the user's home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ResolveDataDir picks the data directory: an explicit flag, then config
// and environment, then DefaultDataDir.
func (c *GlobalConfig) ResolveDataDir(flag string) string {
	if flag != "" {
		return ExpandTilde(flag)
	}
	if c.DataDir != "" {
		return c.DataDir
	}
	return DefaultDataDir
}
