package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	run_model "playbook-runner/datamodel/run-model"
	"playbook-runner/internal/config"
)

// Numbers stay json.Number so integers reach env/extravars untouched.
var json = jsoniter.Config{UseNumber: true, SortMapKeys: true}.Froze()

// NewInvoker creates an Invoker running playbooks from cfg's private data directory.
func NewInvoker(engine Engine, cfg *config.Config, out io.Writer) *Invoker {
	return &Invoker{
		Engine:         engine,
		PrivateDataDir: cfg.PrivateDataDir,
		ExtraVarsFile:  cfg.ExtraVarsFile,
		Out:            out,
		logger:         log.With().Str("component", "runner").Logger(),
	}
}

// Verbosity maps the verbose flag to an engine verbosity level.
func Verbosity(verbose bool) int {
	if verbose {
		return 3
	}
	return 1
}

// ExtraVars returns the extra variables for req. When req carries a JSON
// string it is used as is and the destroy flag plays no part; JSON null
// yields nil, a run without extra variables.
func ExtraVars(req run_model.InvocationRequest) (map[string]any, error) {
	if req.ExtraVars == nil {
		return map[string]any{TeardownVar: req.Destroy}, nil
	}

	var decoded any
	if err := json.UnmarshalFromString(*req.ExtraVars, &decoded); err != nil {
		return nil, &ExtraVarsError{Raw: *req.ExtraVars, Err: err}
	}
	switch v := decoded.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	default:
		return nil, &ExtraVarsError{Raw: *req.ExtraVars, Err: errors.New("not a JSON object")}
	}
}

// Invoke runs req.Playbook and prints the engine's status, return code and
// stats. It returns ErrFailedHosts when the engine exits with FailedHostsRC;
// every other return code is reported and treated as success.
func (i *Invoker) Invoke(ctx context.Context, workDir string, req run_model.InvocationRequest) (*run_model.RunResult, error) {
	level := Verbosity(req.Verbose)

	if req.ExtraVars != nil {
		fmt.Fprintln(i.Out, *req.ExtraVars)
	} else {
		fmt.Fprintln(i.Out, "<nil>")
	}

	vars, err := ExtraVars(req)
	if err != nil {
		return nil, err
	}
	if req.ExtraVars != nil && req.Destroy {
		i.logger.Warn().Msg("--destroy has no effect when --extravars is given")
	}

	i.logger.Debug().
		Str("workdir", workDir).
		Str("private_data_dir", i.PrivateDataDir).
		Str("playbook", req.Playbook).
		Int("verbosity", level).
		Msg("Invoking playbook")

	result, err := i.Engine.Run(ctx, run_model.RunSpec{
		PrivateDataDir: i.PrivateDataDir,
		Playbook:       req.Playbook,
		Verbosity:      level,
		ExtraVars:      vars,
		ExtraVarsFile:  i.ExtraVarsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run playbook %s: %w", req.Playbook, err)
	}

	if err := i.report(result); err != nil {
		return nil, err
	}

	if result.RC == FailedHostsRC {
		return result, fmt.Errorf("playbook %s: %w", req.Playbook, ErrFailedHosts)
	}
	return result, nil
}

func (i *Invoker) report(result *run_model.RunResult) error {
	encoded, err := json.MarshalToString(GroupStats(result.Stats))
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	fmt.Fprintf(i.Out, "%s: %d\n", result.Status, result.RC)
	fmt.Fprintln(i.Out, "Final status:")
	fmt.Fprintln(i.Out, encoded)
	fmt.Fprintf(i.Out, "error code: %d\n", result.RC)
	return nil
}

// GroupStats reshapes per-host counters into ansible-runner's stats layout:
// one map per category, holding only hosts with a non-zero count. Unreachable
// hosts are listed under "dark" and every reported host under "processed".
func GroupStats(stats map[string]run_model.HostStats) map[string]map[string]int {
	grouped := map[string]map[string]int{
		"changed":   {},
		"dark":      {},
		"failures":  {},
		"ignored":   {},
		"ok":        {},
		"processed": {},
		"rescued":   {},
		"skipped":   {},
	}
	add := func(category, host string, n int) {
		if n != 0 {
			grouped[category][host] = n
		}
	}
	for host, s := range stats {
		add("changed", host, s.Changed)
		add("dark", host, s.Unreachable)
		add("failures", host, s.Failures)
		add("ignored", host, s.Ignored)
		add("ok", host, s.Ok)
		add("rescued", host, s.Rescued)
		add("skipped", host, s.Skipped)
		grouped["processed"][host] = 1
	}
	return grouped
}
