package ansible

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/apenella/go-ansible/pkg/options"
	"github.com/apenella/go-ansible/pkg/playbook"
	"gopkg.in/yaml.v3"

	run_model "playbook-runner/datamodel/run-model"
)

const (
	projectFolderName   = "project"
	inventoryFolderName = "inventory"
	stdoutCallbackEnv   = "ANSIBLE_STDOUT_CALLBACK"
	stdoutCallback      = "json"
)

var bufPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// Run executes spec.Playbook and blocks until ansible-playbook exits. Nil
// spec.ExtraVars runs the playbook without an extravars file.
// A non-zero exit status is reported in the result, not as an error; errors
// mean the run could not be started.
func (c *Client) Run(ctx context.Context, spec run_model.RunSpec) (*run_model.RunResult, error) {
	projectDir := filepath.Join(spec.PrivateDataDir, projectFolderName)
	if info, err := os.Stat(projectDir); err != nil {
		return nil, fmt.Errorf("project directory %s: %w", projectDir, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", projectDir)
	}

	if spec.ExtraVars != nil {
		if err := writeExtraVars(spec.ExtraVarsFile, spec.ExtraVars); err != nil {
			return nil, err
		}
	}

	args, err := c.command(spec)
	if err != nil {
		return nil, err
	}

	buff := bufPool.Get().(*bytes.Buffer)
	buff.Reset()
	defer bufPool.Put(buff)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = projectDir
	cmd.Env = append(os.Environ(), stdoutCallbackEnv+"="+stdoutCallback)
	cmd.Stdout = buff
	cmd.Stderr = c.Stderr

	c.logger.Debug().
		Str("command", strings.Join(args, " ")).
		Str("dir", projectDir).
		Msg("Running playbook")

	result := &run_model.RunResult{}
	runErr := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		result.RC = 0
	case errors.As(runErr, &exitErr):
		result.RC = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("failed to run %s: %w", args[0], runErr)
	}

	switch {
	case ctx.Err() != nil:
		result.Status = run_model.StatusCanceled
	case result.RC == 0:
		result.Status = run_model.StatusSuccessful
	default:
		result.Status = run_model.StatusFailed
	}

	stats, err := c.parseResults(buff.Bytes())
	if err != nil {
		c.logger.Warn().Err(err).Msg("Could not parse playbook results")
		stats = map[string]run_model.HostStats{}
	}
	result.Stats = stats

	c.logger.Debug().
		Str("status", result.Status).
		Int("rc", result.RC).
		Int("hosts", len(stats)).
		Msg("Playbook finished")
	return result, nil
}

// command builds the ansible-playbook argv for spec.
func (c *Client) command(spec run_model.RunSpec) ([]string, error) {
	pb := &playbook.AnsiblePlaybookCmd{
		Binary:    c.Binary,
		Playbooks: []string{spec.Playbook},
		Options:   &playbook.AnsiblePlaybookOptions{},
	}

	inventory := filepath.Join(spec.PrivateDataDir, inventoryFolderName)
	if _, err := os.Stat(inventory); err == nil {
		pb.Options.Inventory = inventory
	}

	if c.SSHKeyPath != "" {
		pb.ConnectionOptions = &options.AnsibleConnectionOptions{
			PrivateKey: c.SSHKeyPath,
		}
	}

	args, err := pb.Command()
	if err != nil {
		return nil, fmt.Errorf("failed to build playbook command: %w", err)
	}

	if spec.ExtraVars != nil {
		args = append(args, "--extra-vars", "@"+spec.ExtraVarsFile)
	}
	if spec.Verbosity > 0 {
		args = append(args, "-"+strings.Repeat("v", spec.Verbosity))
	}
	return args, nil
}

// writeExtraVars persists vars the way ansible-runner lays out env/extravars.
// json.Number values are written as literal integers or floats.
func writeExtraVars(path string, vars map[string]any) error {
	if path == "" {
		return fmt.Errorf("extravars file path is empty")
	}

	out, err := yaml.Marshal(vars)
	if err != nil {
		return fmt.Errorf("failed to encode extravars: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write extravars file: %w", err)
	}
	return nil
}
