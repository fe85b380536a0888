package run_model

// InvocationRequest is what the command line asked for. It is built once per
// process and not changed afterwards.
type InvocationRequest struct {
	Playbook  string
	ExtraVars *string
	Verbose   bool
	Destroy   bool
}

// RunSpec is the input handed to the automation engine.
type RunSpec struct {
	PrivateDataDir string
	Playbook       string
	Verbosity      int
	ExtraVars      map[string]any
	// ExtraVarsFile is where the engine persists ExtraVars for the run.
	ExtraVarsFile string
}

// HostStats are the recap counters the engine reports for a single host.
type HostStats struct {
	Ok          int `json:"ok"`
	Changed     int `json:"changed"`
	Failures    int `json:"failures"`
	Unreachable int `json:"unreachable"`
	Skipped     int `json:"skipped"`
	Rescued     int `json:"rescued"`
	Ignored     int `json:"ignored"`
}

// RunResult is what the engine reports after a run.
type RunResult struct {
	Status string               `json:"status"`
	RC     int                  `json:"rc"`
	Stats  map[string]HostStats `json:"stats"`
}

const (
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)
