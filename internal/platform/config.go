package platform

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds the defaults read from the environment.
type EnvConfig struct {
	Adapter   string        `env:"DODO_ADAPTER"   envDefault:"fs"`
	Path      string        `env:"DODO_PATH"      envDefault:"."`
	Namespace string        `env:"DODO_NAMESPACE" envDefault:"dodo-storage"`
	Format    string        `env:"DODO_FORMAT"    envDefault:"json"`
	Timeout   time.Duration `env:"DODO_TIMEOUT"`
}

// LoadEnv parses EnvConfig from environment variables.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Options converts the config to functional options. The path is not an
// option: it is the URI passed to New.
func (c EnvConfig) Options() []Option {
	opts := []Option{
		WithAdapter(c.Adapter),
		WithNamespace(c.Namespace),
		WithFormat(c.Format),
	}
	if c.Timeout > 0 {
		opts = append(opts, WithOperationTimeout(c.Timeout))
	}
	return opts
}
