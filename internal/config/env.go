package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env from the working directory and, when root is not
// empty, from the repository root. Variables already set in the process
// environment are never overwritten. Missing files are not an error.
func LoadEnv(root string) error {
	paths := []string{EnvFile}
	if root != "" {
		paths = append(paths, filepath.Join(root, EnvFile))
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}
