// Package config resolves the installer's runtime settings from flags,
// environment variables and an optional settings.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AGENT_SKILLS"

// SettingsFile is read from the config directory when present.
const SettingsFile = "settings.toml"

// Setting keys.
const (
	KeyConfigDir    = "config_dir"
	KeySkillsDir    = "skills_dir"
	KeyListen       = "listen"
	KeyOAuthPort    = "oauth_port"
	KeyOAuthTimeout = "oauth_timeout"
	KeyTokenTimeout = "token_timeout"
	KeyRateLimit    = "rate_limit"
	KeyRateBurst    = "rate_burst"
	KeyVerbose      = "verbose"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	ConfigDir    string        `mapstructure:"config_dir"`
	SkillsDir    string        `mapstructure:"skills_dir"`
	Listen       string        `mapstructure:"listen"`
	OAuthPort    int           `mapstructure:"oauth_port"`
	OAuthTimeout time.Duration `mapstructure:"oauth_timeout"`
	TokenTimeout time.Duration `mapstructure:"token_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
	Verbose      bool          `mapstructure:"verbose"`
}

// DataDir holds the history database.
func (s *Settings) DataDir() string {
	return filepath.Join(s.ConfigDir, "data")
}

// New returns a viper instance with defaults and environment bindings.
// SKILLS_DIR is honoured alongside AGENT_SKILLS_SKILLS_DIR.
func New() *viper.Viper {
	v := viper.New()

	configDir := ".agent-skills"
	if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".agent-skills")
	}

	v.SetDefault(KeyConfigDir, configDir)
	v.SetDefault(KeySkillsDir, "skills")
	v.SetDefault(KeyListen, "localhost:8765")
	v.SetDefault(KeyOAuthPort, 9876)
	v.SetDefault(KeyOAuthTimeout, 5*time.Minute)
	v.SetDefault(KeyTokenTimeout, 30*time.Second)
	v.SetDefault(KeyRateLimit, 20.0)
	v.SetDefault(KeyRateBurst, 40)
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeySkillsDir, EnvPrefix+"_SKILLS_DIR", "SKILLS_DIR")

	return v
}

// Load merges settings.toml from the resolved config directory, then
// decodes and validates the result. A missing settings file is not an error.
func Load(v *viper.Viper) (*Settings, error) {
	v.SetConfigFile(filepath.Join(v.GetString(KeyConfigDir), SettingsFile))
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", SettingsFile, err)
	}

	cfg := &Settings{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings are usable.
func (s *Settings) Validate() error {
	if s.ConfigDir == "" {
		return errors.New("config_dir is required")
	}
	if s.SkillsDir == "" {
		return errors.New("skills_dir is required")
	}
	if s.Listen == "" {
		return errors.New("listen address is required")
	}
	if s.OAuthPort < 1 || s.OAuthPort > 65535 {
		return fmt.Errorf("oauth_port must be between 1 and 65535, got %d", s.OAuthPort)
	}
	if s.OAuthTimeout <= 0 {
		return errors.New("oauth_timeout must be positive")
	}
	if s.TokenTimeout <= 0 {
		return errors.New("token_timeout must be positive")
	}
	if s.RateLimit <= 0 {
		return errors.New("rate_limit must be positive")
	}
	if s.RateBurst < 1 {
		return errors.New("rate_burst must be at least 1")
	}
	return nil
}
