// Package env provides environment variable loading from .env files.
// This allows sensitive configuration (like authenticated indexer URLs) to be
// stored in .env files that are gitignored, rather than in YAML config files.
package env

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Load reads KEY=VALUE pairs from the .env files in paths (default ".env")
// into the process environment. Missing files are skipped. Variables that
// are already set are left alone, so the real environment always wins.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}
