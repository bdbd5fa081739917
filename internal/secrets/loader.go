package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when a source carries no secret at all.
var ErrNotConfigured = errors.New("secret is not configured")

// Source describes how to load a secret value. File wins over Env, Env wins over Value.
type Source struct {
	// Name is used in error messages.
	Name  string `mapstructure:"-"`
	Value string `mapstructure:"value"`
	Env   string `mapstructure:"env"`
	File  string `mapstructure:"file"`
}

// Configured reports whether any of the secret locations is set.
func (s Source) Configured() bool {
	return strings.TrimSpace(s.Value) != "" || strings.TrimSpace(s.Env) != "" || strings.TrimSpace(s.File) != ""
}

// Load returns the trimmed secret value from src.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		secret := strings.TrimSpace(os.Getenv(env))
		if secret == "" {
			return "", fmt.Errorf("%s env %s is empty: %w", name, env, ErrNotConfigured)
		}
		return secret, nil
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}

	return secret, nil
}
