package commands

import (
	"fmt"

	"github.com/maksimkurb/hostgate/src/internal/config"
)

type Runner interface {
	Init(args []string, globalArgs *AppContext) error
	Run() error
	Name() string
}

type AppContext struct {
	ConfigPath string
	EnvFile    string
	Verbose    bool
}

// loadAndValidateConfigOrFail loads the configuration file, applies
// environment overrides (after loading EnvFile, if any) and validates the
// result.
func loadAndValidateConfigOrFail(ctx *AppContext) (*config.Config, error) {
	if err := config.LoadEnvFiles(ctx.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(ctx.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %v", err)
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return cfg, nil
}
