package commands

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/petal-labs/anthropic/anthropic"
	"github.com/petal-labs/anthropic/cli/config"
	"github.com/petal-labs/anthropic/cli/keystore"
)

// defaultClientFactory builds a client from the CLI config. Environment
// overrides for the base URL take precedence over the config file.
func defaultClientFactory(apiKey string, cfg *config.Config, logger *zap.Logger) (*anthropic.Client, error) {
	opts := []anthropic.Option{
		anthropic.WithLogger(logger),
		anthropic.WithBackoff(cfg.BackoffPolicy()),
	}
	if cfg != nil {
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Version != "" {
			opts = append(opts, anthropic.WithVersion(cfg.Version))
		}
		if cfg.Beta != "" {
			opts = append(opts, anthropic.WithBeta(cfg.Beta))
		}
	}
	return anthropic.New(apiKey, opts...), nil
}

// resolveAPIKey returns the key from ANTHROPIC_API_KEY, falling back to the
// keystore profile.
func (a *App) resolveAPIKey() (string, error) {
	if key := strings.TrimSpace(a.getenv(anthropic.DefaultAPIKeyEnvVar)); key != "" {
		return key, nil
	}

	ks, err := a.newKeystore()
	if err != nil {
		return "", fmt.Errorf("open keystore: %w", err)
	}
	secret, err := ks.Get(a.profile)
	if err != nil {
		if errors.Is(err, keystore.ErrKeyNotFound) {
			return "", fmt.Errorf("%w: set %s or run 'anthropic keys set %s'",
				anthropic.ErrAPIKeyNotFound, anthropic.DefaultAPIKeyEnvVar, a.profile)
		}
		return "", fmt.Errorf("read keystore: %w", err)
	}
	return secret.Expose(), nil
}

// client resolves the API key and builds a client for one command.
func (a *App) client() (*anthropic.Client, error) {
	key, err := a.resolveAPIKey()
	if err != nil {
		return nil, exitWithCode(ExitValidation, err)
	}

	cfg := a.cfg
	if cfg != nil && cfg.BaseURL == "" {
		if base := a.getenv(anthropic.BaseURLEnvVar); base != "" {
			c := *cfg
			c.BaseURL = base
			cfg = &c
		}
	}

	c, err := a.createClient(key, cfg, a.logger)
	if err != nil {
		return nil, exitWithCode(ExitValidation, err)
	}
	return c, nil
}
