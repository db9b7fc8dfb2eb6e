// Package config loads CLI settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParsingConfig is returned when environment variables cannot be parsed.
var ErrParsingConfig = errors.New("failed to parse environment variables into config")

// Config holds the settings of the formstate CLI.
type Config struct {
	// Lang selects the message catalog (en, ja).
	Lang string `env:"FORMSTATE_LANG" envDefault:"en"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"FORMSTATE_LOG_LEVEL" envDefault:"warn"`
	// LogFormat is text or json.
	LogFormat string `env:"FORMSTATE_LOG_FORMAT" envDefault:"text"`
}

// Load reads the optional dotenv files (".env" when none are given) and then
// parses the environment into a Config. Missing dotenv files are ignored;
// variables already set in the environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}
