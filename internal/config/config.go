package config

import (
	"os"
	"path/filepath"
)

const (
	installerFolderName = "qubinode-installer"
	envFolderName       = "env"
	extraVarsFileName   = "extravars"
	playbooksFolderName = "playbooks"
	defaultBinary       = "ansible-playbook"
)

// getBaseDir returns the default private data directory
func getBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home, err = os.Getwd()
		if err != nil {
			home = "."
		}
	}
	return filepath.Join(home, installerFolderName)
}

// ExtraVarsPath returns the ansible-runner extravars location inside a private data directory.
func ExtraVarsPath(privateDataDir string) string {
	return filepath.Join(privateDataDir, envFolderName, extraVarsFileName)
}
