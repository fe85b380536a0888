package main

import (
	"os"

	"playbook-runner/internal/ansible"
	"playbook-runner/internal/config"
	"playbook-runner/internal/runner"
	"playbook-runner/internal/vault"
)

// engine is a runner.Engine holding resources released after the run.
type engine interface {
	runner.Engine
	Close() error
}

// appContext bundles the services the root command needs.
type appContext struct {
	LoadConfig func() (*config.Config, error)
	NewEngine  func(cfg *config.Config) (engine, error)
	Getwd      func() (string, error)
}

func newAppContext() *appContext {
	return &appContext{
		LoadConfig: config.Load,
		NewEngine:  newAnsibleEngine,
		Getwd:      os.Getwd,
	}
}

func newAnsibleEngine(cfg *config.Config) (engine, error) {
	if cfg.SSHKeyVaultPath == "" {
		return ansible.NewClient(cfg.AnsibleBinary), nil
	}

	vaultClient, err := vault.NewClient(vault.OptionsFromEnv())
	if err != nil {
		return nil, err
	}
	return ansible.NewClientWithKey(cfg.AnsibleBinary, vaultClient, cfg.SSHKeyVaultPath)
}
