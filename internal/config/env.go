package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	env "github.com/Netflix/go-env"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Env holds the process environment the CLI reads.
type Env struct {
	ConfigPath    string `env:"AUDIODIARY_CONFIG"`
	SettingsPath  string `env:"AUDIODIARY_SETTINGS"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	SMTPPassword  string `env:"AUDIODIARY_SMTP_PASSWORD"`
	DashboardAddr string `env:"AUDIODIARY_DASHBOARD_ADDR,default=127.0.0.1:8080"`
}

// LoadEnv reads the optional dotenv files, then the environment. Variables
// already set in the process win over dotenv values.
func LoadEnv(dotenvFiles ...string) (Env, error) {
	for _, f := range dotenvFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Env{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var e Env
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return e, nil
}

// GetConfigPath picks the config document: flag, then AUDIODIARY_CONFIG,
// then $XDG_CONFIG_HOME/audiodiary/config.json.
func (e Env) GetConfigPath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if e.ConfigPath != "" {
		return e.ConfigPath, nil
	}
	p, err := xdg.ConfigFile(filepath.Join("audiodiary", "config.json"))
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return p, nil
}

// GetSettingsPath defaults to settings.toml next to the config document.
func (e Env) GetSettingsPath(configPath string) string {
	if e.SettingsPath != "" {
		return e.SettingsPath
	}
	return filepath.Join(filepath.Dir(configPath), "settings.toml")
}
