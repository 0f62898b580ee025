package file

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from .env files so API keys never
// need to live in the TOML config. Files are loaded in order, first
// value wins, and missing files are skipped:
//
//  1. ./.env (project-local overrides)
//  2. ~/.folio/.env
func LoadEnv() error {
	candidates := []string{".env"}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".folio", ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}
