package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultEnvFile = ".env"

// LocateEnvFile looks for name in the working directory and then in each
// parent up to the filesystem root. Package tests run from their own
// directory, so a file at the module root is still found.
func LocateEnvFile(name string) (string, error) {
	if name == "" {
		name = defaultEnvFile
	}
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", err
		}
		return name, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("env file %s: %w", name, os.ErrNotExist)
		}
		dir = parent
	}
}

// redact keeps enough of a secret or DSN to recognise it in logs.
func redact(value string) string {
	switch {
	case value == "":
		return ""
	case len(value) <= 6:
		return "****"
	}
	return value[:2] + "****" + value[len(value)-4:]
}
