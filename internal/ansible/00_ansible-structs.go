package ansible

import (
	"io"

	"github.com/rs/zerolog"
)

// KeySource hands out SSH private keys by secret path.
type KeySource interface {
	GetSSHKey(path string) (string, error)
}

// Client runs ansible-playbook inside an ansible-runner style private data directory.
type Client struct {
	Binary     string
	SSHKeyPath string
	Stderr     io.Writer
	logger     zerolog.Logger
}
