package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvFile reads a dotenv file relative to root. A missing file yields
// an empty map.
func LoadEnvFile(root, path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}

// MergeEnv layers maps left to right; later maps win.
func MergeEnv(layers ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}
