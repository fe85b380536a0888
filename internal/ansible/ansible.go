package ansible

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// NewClient creates a client that runs the given ansible-playbook binary.
func NewClient(binary string) *Client {
	return &Client{
		Binary: binary,
		Stderr: os.Stderr,
		logger: log.With().Str("component", "ansible").Logger(),
	}
}

// NewClientWithKey creates a client that authenticates with the SSH key stored at keyPath.
// The key is written to a private temporary file; call Close to remove it.
func NewClientWithKey(binary string, keys KeySource, keyPath string) (*Client, error) {
	sshKey, err := keys.GetSSHKey(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get SSH key from Vault: %w", err)
	}

	tmpFile, err := os.CreateTemp("", "ansible-ssh-key-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}

	if err := os.Chmod(tmpFile.Name(), 0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("failed to set permissions on temporary file: %w", err)
	}

	if _, err := tmpFile.WriteString(sshKey); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("failed to write SSH key to temporary file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("failed to close temporary file: %w", err)
	}

	client := NewClient(binary)
	client.SSHKeyPath = tmpFile.Name()
	client.logger.Debug().Str("key_file", client.SSHKeyPath).Msg("SSH key written")
	return client, nil
}

// Close removes the temporary SSH key file, if any.
func (c *Client) Close() error {
	if c.SSHKeyPath == "" {
		return nil
	}
	err := os.Remove(c.SSHKeyPath)
	c.SSHKeyPath = ""
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove SSH key file: %w", err)
	}
	return nil
}
