package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/Brownie44l1/oral-api/internal/model"
)

const DefaultPort = "7000"

type Config struct {
	ModelPath string
	Port      string
}

// Load reads MODEL_PATH and PORT, from the environment or a .env file in the working directory.
// Nothing else is configurable.
func Load() (*Config, error) {
	// A missing .env file is fine, a broken one is not
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		ModelPath: os.Getenv("MODEL_PATH"),
		Port:      os.Getenv("PORT"),
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = model.DefaultModelPath
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}

	return cfg, nil
}

// Addr is the address to listen on.
func (c *Config) Addr() string {
	return ":" + c.Port
}
