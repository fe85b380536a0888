package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Environment variables read by Load.
const (
	EnvPrivateDataDir  = "RUNNER_PRIVATE_DATA_DIR"
	EnvExtraVarsFile   = "RUNNER_EXTRAVARS_FILE"
	EnvPlaybookDir     = "RUNNER_PLAYBOOK_DIR"
	EnvAnsibleBinary   = "ANSIBLE_PLAYBOOK_BINARY"
	EnvSSHKeyVaultPath = "RUNNER_SSH_KEY_VAULT_PATH"
	EnvUser            = "USER"
)

var validate = validator.New()

// New creates a new Config instance with default values
func New() *Config {
	baseDir := getBaseDir()
	return &Config{
		PrivateDataDir: baseDir,
		ExtraVarsFile:  ExtraVarsPath(baseDir),
		PlaybookDir:    playbooksFolderName,
		AnsibleBinary:  defaultBinary,
	}
}

// Load returns the defaults overridden by environment variables.
func Load() (*Config, error) {
	return LoadWith(os.Getenv)
}

// LoadWith is Load with an injectable environment lookup.
func LoadWith(getenv func(string) string) (*Config, error) {
	cfg := New()

	if dir := getenv(EnvPrivateDataDir); dir != "" {
		cfg.PrivateDataDir = dir
		cfg.ExtraVarsFile = ExtraVarsPath(dir)
	}
	setString(&cfg.ExtraVarsFile, getenv(EnvExtraVarsFile))
	setString(&cfg.PlaybookDir, getenv(EnvPlaybookDir))
	setString(&cfg.AnsibleBinary, getenv(EnvAnsibleBinary))
	setString(&cfg.SSHKeyVaultPath, getenv(EnvSSHKeyVaultPath))
	cfg.Username = getenv(EnvUser)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setString(field *string, value string) {
	if value != "" {
		*field = value
	}
}
