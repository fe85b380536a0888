package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	run_model "playbook-runner/datamodel/run-model"
	"playbook-runner/internal/envfile"
	"playbook-runner/internal/runner"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// unsetUsername is shown when USER is not set.
const unsetUsername = "None"

type rootOptions struct {
	extraVars string
	destroy   bool
	verbose   bool
}

// usageError marks command line mistakes, reported with the usage text.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func newRootCmd(app *appContext) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "playbook-runner <playbook>",
		Short:         "Run ansible playbooks using ansible runner",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 0:
				return &usageError{errors.New("the following arguments are required: playbook")}
			case len(args) > 1:
				return &usageError{fmt.Errorf("unrecognized arguments: %v", args[1:])}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := run_model.InvocationRequest{
				Playbook: args[0],
				Verbose:  opts.verbose,
				Destroy:  opts.destroy,
			}
			if cmd.Flags().Changed("extravars") {
				raw := opts.extraVars
				req.ExtraVars = &raw
			}
			return runPlaybook(cmd, app, req)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	cmd.Flags().StringVarP(&opts.extraVars, "extravars", "e", "", "set if you would like to pass an extravars command to the script.")
	cmd.Flags().BoolVarP(&opts.destroy, "destroy", "d", false, "set if you would like to destroy environment.")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Set Verbosity of ansible playbook")

	return cmd
}

func runPlaybook(cmd *cobra.Command, app *appContext, req run_model.InvocationRequest) error {
	out := cmd.OutOrStdout()
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if req.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := log.With().Str("component", "cli").Logger()

	username := cfg.Username
	if username == "" {
		username = unsetUsername
	}
	fmt.Fprintln(out, "Test this username: "+username)
	fmt.Fprintf(out, "%+v\n", describeRequest(req))
	fmt.Fprintln(out, req.Playbook)

	cwd, err := app.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	fmt.Fprintln(out, "PATH "+cwd)
	_, statErr := os.Stat(filepath.Join(cwd, cfg.PlaybookDir, req.Playbook))
	fmt.Fprintf(out, "File exists:%t\n", statErr == nil)

	eng, err := app.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to prepare ansible: %w", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn().Err(err).Msg("Could not release ansible resources")
		}
	}()

	invoker := runner.NewInvoker(eng, cfg, out)
	if _, err := invoker.Invoke(cmd.Context(), cwd, req); err != nil {
		return err
	}

	return envfile.Clean(cfg.ExtraVarsFile, out)
}

// describeRequest renders the parsed request for the startup echo.
func describeRequest(req run_model.InvocationRequest) string {
	extraVars := "<nil>"
	if req.ExtraVars != nil {
		extraVars = fmt.Sprintf("%q", *req.ExtraVars)
	}
	return fmt.Sprintf("Namespace(playbook=%q, extravars=%s, destroy=%t, verbose=%t)",
		req.Playbook, extraVars, req.Destroy, req.Verbose)
}

// exitCode reports err and returns the process exit status for it.
func exitCode(cmd *cobra.Command, err error) int {
	if err == nil {
		return exitOK
	}

	var usage *usageError
	if errors.As(err, &usage) {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: error: %v\n", cmd.Name(), err)
		return exitUsage
	}

	logger := log.With().Str("component", "cli").Logger()
	if errors.Is(err, runner.ErrFailedHosts) {
		logger.Error().Err(err).Msg("Playbook failed")
		return exitError
	}

	var varsErr *runner.ExtraVarsError
	if errors.As(err, &varsErr) {
		logger.Error().Err(err).Msg("Could not decode extravars")
		return exitError
	}

	logger.Error().Err(err).Msg("Playbook run aborted")
	return exitError
}
