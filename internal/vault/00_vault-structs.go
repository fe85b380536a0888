package vault

import (
	vault "github.com/hashicorp/vault/api"
	"github.com/rs/zerolog"
)

// Options selects the Vault server and how to authenticate against it.
// Token wins over AppRole credentials when both are set.
type Options struct {
	Address  string
	Token    string
	RoleID   string
	SecretID string
}

// Client reads secrets from a Vault KV v2 mount named kv.
type Client struct {
	client *vault.Client
	logger zerolog.Logger
}
