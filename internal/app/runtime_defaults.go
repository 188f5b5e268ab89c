package app

import (
	"fmt"
	"strings"

	"github.com/rsvphq/guestlist/pkg/crypto"
)

const cancelSecretBytes = 32

// ApplyRuntimeDefaults ensures critical secrets are populated even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Auth.CancelSecret) == "" {
		secret, err := crypto.GenerateToken(cancelSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate cancel secret: %w", err)
		}
		cfg.Auth.CancelSecret = secret
		generated["auth.cancel_secret"] = true
	}

	return generated, nil
}
