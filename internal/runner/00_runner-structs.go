package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	run_model "playbook-runner/datamodel/run-model"
)

// ErrFailedHosts is returned when the engine exits with FailedHostsRC.
var ErrFailedHosts = errors.New("one or more hosts failed")

// FailedHostsRC is the only engine return code treated as a failure.
const FailedHostsRC = 2

// TeardownVar is the extra variable set from the destroy flag.
const TeardownVar = "vm_teardown"

// Engine runs a playbook and reports its outcome.
type Engine interface {
	Run(ctx context.Context, spec run_model.RunSpec) (*run_model.RunResult, error)
}

// Invoker turns an invocation request into an engine run and prints the outcome.
type Invoker struct {
	Engine         Engine
	PrivateDataDir string
	ExtraVarsFile  string
	Out            io.Writer
	logger         zerolog.Logger
}

// ExtraVarsError reports an --extravars value that is not a JSON object.
type ExtraVarsError struct {
	Raw string
	Err error
}

func (e *ExtraVarsError) Error() string {
	return fmt.Sprintf("invalid extravars %q: %v", e.Raw, e.Err)
}

func (e *ExtraVarsError) Unwrap() error {
	return e.Err
}
