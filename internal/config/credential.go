package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// MissingCredentialMessage is what users see when the API key is absent.
const MissingCredentialMessage = "Please set the Groq API key in the .env file."

var ErrMissingCredential = errors.New("llm api credential is not set")

// LoadDotEnv copies values from .env files into the process environment.
// Variables that are already set are left alone and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// RequireCredential reads the named credential once. An unset or blank value
// yields ErrMissingCredential.
func RequireCredential(lookup LookupFunc, key string) (string, error) {
	if lookup == nil {
		return "", fmt.Errorf("lookup function is required")
	}
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%s: %w", key, ErrMissingCredential)
	}
	return strings.TrimSpace(raw), nil
}
