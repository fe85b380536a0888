package runner

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	run_model "playbook-runner/datamodel/run-model"
)

type fakeEngine struct {
	result *run_model.RunResult
	err    error
	calls  []run_model.RunSpec
}

func (f *fakeEngine) Run(_ context.Context, spec run_model.RunSpec) (*run_model.RunResult, error) {
	f.calls = append(f.calls, spec)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestInvoker(engine Engine, out *bytes.Buffer) *Invoker {
	return &Invoker{
		Engine:         engine,
		PrivateDataDir: "/srv/runner",
		ExtraVarsFile:  "/srv/runner/env/extravars",
		Out:            out,
		logger:         zerolog.Nop(),
	}
}

func strPtr(s string) *string { return &s }

func TestVerbosity(t *testing.T) {
	require.Equal(t, 1, Verbosity(false))
	require.Equal(t, 3, Verbosity(true))
}

func TestExtraVarsDefaultsToTeardownFlag(t *testing.T) {
	for _, destroy := range []bool{false, true} {
		vars, err := ExtraVars(run_model.InvocationRequest{Playbook: "site.yml", Destroy: destroy})
		require.NoError(t, err)
		require.Equal(t, map[string]any{TeardownVar: destroy}, vars)
	}
}

func TestExtraVarsIgnoresDestroyWhenJSONGiven(t *testing.T) {
	vars, err := ExtraVars(run_model.InvocationRequest{
		Playbook:  "site.yml",
		ExtraVars: strPtr(`{"vm_name": "rhel9", "disks": [1, 2], "opts": {"ha": true}}`),
		Destroy:   true,
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"vm_name": "rhel9",
		"disks":   []any{stdjson.Number("1"), stdjson.Number("2")},
		"opts":    map[string]any{"ha": true},
	}, vars)
	require.NotContains(t, vars, TeardownVar)
}

func TestExtraVarsRejectsMalformedJSON(t *testing.T) {
	for _, raw := range []string{`{"vm_name":`, `[1, 2]`, `"text"`, ``} {
		_, err := ExtraVars(run_model.InvocationRequest{ExtraVars: strPtr(raw)})
		var varsErr *ExtraVarsError
		require.ErrorAs(t, err, &varsErr, raw)
		require.Equal(t, raw, varsErr.Raw)
	}
}

func TestInvokeDefaultRun(t *testing.T) {
	engine := &fakeEngine{result: &run_model.RunResult{
		Status: run_model.StatusSuccessful,
		RC:     0,
		Stats:  map[string]run_model.HostStats{"localhost": {Ok: 3, Changed: 1}},
	}}
	out := &bytes.Buffer{}

	result, err := newTestInvoker(engine, out).Invoke(context.Background(), "/work", run_model.InvocationRequest{Playbook: "playbook.yml"})
	require.NoError(t, err)
	require.Equal(t, 0, result.RC)

	require.Len(t, engine.calls, 1)
	spec := engine.calls[0]
	require.Equal(t, "/srv/runner", spec.PrivateDataDir)
	require.Equal(t, "/srv/runner/env/extravars", spec.ExtraVarsFile)
	require.Equal(t, "playbook.yml", spec.Playbook)
	require.Equal(t, 1, spec.Verbosity)
	require.Equal(t, map[string]any{TeardownVar: false}, spec.ExtraVars)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, []string{
		"<nil>",
		"successful: 0",
		"Final status:",
		`{"changed":{"localhost":1},"dark":{},"failures":{},"ignored":{},"ok":{"localhost":3},"processed":{"localhost":1},"rescued":{},"skipped":{}}`,
		"error code: 0",
	}, lines)
}

func TestInvokeDestroyFailedHosts(t *testing.T) {
	engine := &fakeEngine{result: &run_model.RunResult{Status: run_model.StatusFailed, RC: 2}}
	out := &bytes.Buffer{}

	result, err := newTestInvoker(engine, out).Invoke(context.Background(), "/work", run_model.InvocationRequest{
		Playbook: "playbook.yml",
		Destroy:  true,
		Verbose:  true,
	})
	require.ErrorIs(t, err, ErrFailedHosts)
	require.NotNil(t, result)

	require.Equal(t, map[string]any{TeardownVar: true}, engine.calls[0].ExtraVars)
	require.Equal(t, 3, engine.calls[0].Verbosity)
	require.Contains(t, out.String(), "failed: 2\n")
	require.Contains(t, out.String(), `Final status:
{"changed":{},"dark":{},"failures":{},"ignored":{},"ok":{},"processed":{},"rescued":{},"skipped":{}}
`)
	require.Contains(t, out.String(), "error code: 2\n")
}

func TestInvokeOtherNonZeroCodesAreSuccess(t *testing.T) {
	for _, rc := range []int{1, 3, 4, 99, 250} {
		engine := &fakeEngine{result: &run_model.RunResult{Status: run_model.StatusFailed, RC: rc}}
		_, err := newTestInvoker(engine, &bytes.Buffer{}).Invoke(context.Background(), "/work", run_model.InvocationRequest{Playbook: "site.yml"})
		require.NoError(t, err, "rc %d", rc)
	}
}

func TestInvokeMalformedJSONSkipsEngine(t *testing.T) {
	engine := &fakeEngine{}

	_, err := newTestInvoker(engine, &bytes.Buffer{}).Invoke(context.Background(), "/work", run_model.InvocationRequest{
		Playbook:  "site.yml",
		ExtraVars: strPtr("{not json"),
	})
	var varsErr *ExtraVarsError
	require.ErrorAs(t, err, &varsErr)
	require.Empty(t, engine.calls)
}

func TestInvokePassesJSONVerbatim(t *testing.T) {
	engine := &fakeEngine{result: &run_model.RunResult{Status: run_model.StatusSuccessful}}
	out := &bytes.Buffer{}

	_, err := newTestInvoker(engine, out).Invoke(context.Background(), "/work", run_model.InvocationRequest{
		Playbook:  "site.yml",
		ExtraVars: strPtr(`{"vm_teardown": false, "region": "lab"}`),
		Destroy:   true,
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"vm_teardown": false, "region": "lab"}, engine.calls[0].ExtraVars)
	require.True(t, strings.HasPrefix(out.String(), `{"vm_teardown": false, "region": "lab"}`+"\n"))
}

func TestInvokeEngineError(t *testing.T) {
	engine := &fakeEngine{err: errors.New("exec: not found")}

	_, err := newTestInvoker(engine, &bytes.Buffer{}).Invoke(context.Background(), "/work", run_model.InvocationRequest{Playbook: "site.yml"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrFailedHosts)
	require.Contains(t, err.Error(), "not found")
}

func TestExtraVarsKeepsIntegers(t *testing.T) {
	vars, err := ExtraVars(run_model.InvocationRequest{
		ExtraVars: strPtr(`{"vm_memory_kb": 1000000, "disk_bytes": 21474836480, "big": 9007199254740993, "ratio": 0.5}`),
	})
	require.NoError(t, err)

	require.Equal(t, stdjson.Number("1000000"), vars["vm_memory_kb"])
	require.Equal(t, stdjson.Number("21474836480"), vars["disk_bytes"])
	require.Equal(t, stdjson.Number("9007199254740993"), vars["big"])
	require.Equal(t, stdjson.Number("0.5"), vars["ratio"])
}

func TestExtraVarsNullRunsWithoutVars(t *testing.T) {
	vars, err := ExtraVars(run_model.InvocationRequest{ExtraVars: strPtr(`null`), Destroy: true})
	require.NoError(t, err)
	require.Nil(t, vars)

	engine := &fakeEngine{result: &run_model.RunResult{Status: run_model.StatusSuccessful}}
	_, err = newTestInvoker(engine, &bytes.Buffer{}).Invoke(context.Background(), "/work", run_model.InvocationRequest{
		Playbook:  "site.yml",
		ExtraVars: strPtr(`null`),
	})
	require.NoError(t, err)
	require.Len(t, engine.calls, 1)
	require.Nil(t, engine.calls[0].ExtraVars)
}

func TestGroupStats(t *testing.T) {
	grouped := GroupStats(map[string]run_model.HostStats{
		"web1": {Ok: 4, Changed: 2},
		"db1":  {Ok: 1, Failures: 1, Unreachable: 1, Skipped: 3, Rescued: 1, Ignored: 2},
	})

	require.Equal(t, map[string]int{"web1": 2}, grouped["changed"])
	require.Equal(t, map[string]int{"db1": 1}, grouped["dark"])
	require.Equal(t, map[string]int{"db1": 1}, grouped["failures"])
	require.Equal(t, map[string]int{"db1": 2}, grouped["ignored"])
	require.Equal(t, map[string]int{"web1": 4, "db1": 1}, grouped["ok"])
	require.Equal(t, map[string]int{"web1": 1, "db1": 1}, grouped["processed"])
	require.Equal(t, map[string]int{"db1": 1}, grouped["rescued"])
	require.Equal(t, map[string]int{"db1": 3}, grouped["skipped"])
}
