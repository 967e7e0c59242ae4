package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the configuration.
const (
	EnvAlpha         = "LINKRANK_ALPHA"
	EnvTolerance     = "LINKRANK_TOLERANCE"
	EnvMaxIterations = "LINKRANK_MAX_ITERATIONS"
	EnvDBDir         = "LINKRANK_DB_DIR"
	EnvCacheDir      = "LINKRANK_CACHE_DIR"
)

// LoadDotEnv reads a .env file from the current directory into the process
// environment. Variables already set are not overwritten, and a missing
// file is not an error.
func LoadDotEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// ApplyEnv overlays LINKRANK_* environment variables onto cfg.
// Unset or empty variables are ignored; a variable that does not parse is
// reported so a typo does not silently fall back to the default.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAlpha); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAlpha, err)
		}
		c.Alpha = f
	}

	if v, ok := lookup(EnvTolerance); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTolerance, err)
		}
		c.Tolerance = f
	}

	if v, ok := lookup(EnvMaxIterations); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxIterations, err)
		}
		c.MaxIterations = n
	}

	if v, ok := lookup(EnvDBDir); ok && v != "" {
		c.DBDir = v
	}

	if v, ok := lookup(EnvCacheDir); ok && v != "" {
		c.CacheDir = v
	}

	return nil
}
