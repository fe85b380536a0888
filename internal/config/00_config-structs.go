package config

// Config holds the runner configuration settings
type Config struct {
	// PrivateDataDir is the ansible-runner style directory holding project/, inventory/ and env/
	PrivateDataDir string `json:"private_data_dir" validate:"required"`
	// ExtraVarsFile is the extra variables file written for a run and removed afterwards
	ExtraVarsFile string `json:"extravars_file" validate:"required"`
	// PlaybookDir is the directory, relative to the working directory, checked for the playbook
	PlaybookDir string `json:"playbook_dir" validate:"required"`
	// AnsibleBinary is the ansible-playbook executable
	AnsibleBinary string `json:"ansible_binary" validate:"required"`
	// SSHKeyVaultPath is the Vault KV path of the SSH private key, empty to disable
	SSHKeyVaultPath string `json:"ssh_key_vault_path"`
	// Username is the invoking user, read once at startup
	Username string `json:"username"`
}
