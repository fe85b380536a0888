package vault

import (
	"fmt"
	"os"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/rs/zerolog/log"
)

const defaultAddress = "http://127.0.0.1:8200"

// OptionsFromEnv reads VAULT_ADDR, VAULT_TOKEN, VAULT_ROLE_ID and VAULT_SECRET_ID.
func OptionsFromEnv() Options {
	return Options{
		Address:  os.Getenv("VAULT_ADDR"),
		Token:    os.Getenv("VAULT_TOKEN"),
		RoleID:   os.Getenv("VAULT_ROLE_ID"),
		SecretID: os.Getenv("VAULT_SECRET_ID"),
	}
}

// NewClient creates an authenticated Vault client.
func NewClient(opts Options) (*Client, error) {
	logger := log.With().Str("component", "vault").Logger()
	logger.Info().Msg("Initializing Vault client")

	addr := opts.Address
	if addr == "" {
		addr = defaultAddress
		logger.Debug().Str("vault_addr", addr).Msg("Using default Vault address")
	} else {
		logger.Debug().Str("vault_addr", addr).Msg("Using configured Vault address")
	}

	config := vault.DefaultConfig()
	if config.Error != nil {
		return nil, fmt.Errorf("failed to read vault configuration: %w", config.Error)
	}
	config.Address = addr

	client, err := vault.NewClient(config)
	if err != nil {
		logger.Error().Err(err).Str("vault_addr", addr).Msg("Failed to create Vault client")
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if opts.Token != "" {
		client.SetToken(opts.Token)
		logger.Debug().Str("token", maskString(opts.Token)).Msg("Using Vault token")
		return &Client{client: client, logger: logger}, nil
	}

	if opts.RoleID == "" || opts.SecretID == "" {
		logger.Error().
			Bool("role_id_set", opts.RoleID != "").
			Bool("secret_id_set", opts.SecretID != "").
			Msg("Required Vault credentials not set")
		return nil, fmt.Errorf("VAULT_TOKEN or VAULT_ROLE_ID and VAULT_SECRET_ID must be set")
	}

	logger.Debug().
		Str("role_id", maskString(opts.RoleID)).
		Str("secret_id", maskString(opts.SecretID)).
		Msg("Vault credentials found, attempting authentication")

	loginSecret, err := client.Logical().Write("auth/approle/login", map[string]interface{}{
		"role_id":   opts.RoleID,
		"secret_id": opts.SecretID,
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("role_id", maskString(opts.RoleID)).
			Str("vault_addr", addr).
			Msg("Failed to authenticate with Vault")
		return nil, fmt.Errorf("failed to login to vault: %w", err)
	}
	if loginSecret == nil || loginSecret.Auth == nil {
		return nil, fmt.Errorf("failed to login to vault: no auth info returned")
	}

	client.SetToken(loginSecret.Auth.ClientToken)
	logger.Info().
		Str("vault_addr", addr).
		Dur("lease", time.Duration(loginSecret.Auth.LeaseDuration)*time.Second).
		Msg("Vault client initialized successfully")
	return &Client{client: client, logger: logger}, nil
}

// GetSecret reads the data map stored at kv/data/<path>.
func (c *Client) GetSecret(path string) (map[string]interface{}, error) {
	fullPath := fmt.Sprintf("kv/data/%s", path)

	c.logger.Debug().
		Str("path", path).
		Str("full_path", fullPath).
		Msg("Retrieving secret from Vault")

	secret, err := c.client.Logical().Read(fullPath)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Str("full_path", fullPath).
			Msg("Failed to read secret from Vault")
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	if secret == nil || secret.Data == nil {
		c.logger.Warn().
			Str("path", path).
			Str("full_path", fullPath).
			Msg("Secret not found in Vault")
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	// KV v2 nests the payload under "data"
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		c.logger.Error().
			Str("path", path).
			Str("full_path", fullPath).
			Msg("Invalid secret data format")
		return nil, fmt.Errorf("invalid secret data format")
	}

	c.logger.Debug().
		Str("path", path).
		Int("data_keys", len(data)).
		Msg("Secret retrieved successfully")

	return data, nil
}

// GetSSHKey returns the private_key field of the secret at path.
func (c *Client) GetSSHKey(path string) (string, error) {
	data, err := c.GetSecret(path)
	if err != nil {
		return "", fmt.Errorf("failed to read SSH key from Vault: %w", err)
	}

	privateKey, ok := data["private_key"].(string)
	if !ok || privateKey == "" {
		c.logger.Error().Str("path", path).Msg("Invalid SSH key format")
		return "", fmt.Errorf("invalid SSH key format at %s", path)
	}

	return privateKey, nil
}

// maskString returns a masked version of a string for logging
func maskString(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
