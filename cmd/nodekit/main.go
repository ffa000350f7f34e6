package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nodekit/internal/app"
	"nodekit/internal/apperr"
	"nodekit/internal/dispatch"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

const (
	exitFailure   = 1
	exitNotFound  = 3
	exitIntercept = 4
)

func main() {
	ctx := context.Background()

	var err error
	if tool := dispatch.ToolName(os.Args[0]); tool != "" {
		err = runShim(ctx, os.Args)
	} else {
		err = newRootCmd().ExecuteContext(ctx)
	}
	if err != nil {
		os.Exit(reportError(err))
	}
}

// reportError prints err unless it is a child exit status, and returns the
// process exit code.
func reportError(err error) int {
	if code, ok := dispatch.ExitStatus(err); ok {
		return code
	}
	fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
	return exitCode(err)
}

func exitCode(err error) int {
	var ex ExitCoder
	if errors.As(err, &ex) {
		return ex.ExitCode()
	}
	switch apperr.CodeOf(err) {
	case apperr.CodeNoGlobalInstall:
		return exitIntercept
	case apperr.CodeVersionNotFound:
		return exitNotFound
	}
	return exitFailure
}

// runShim handles nodekit invoked as node, npm, npx or yarn.
func runShim(ctx context.Context, argv []string) error {
	svc, err := app.New(app.Options{LogWriter: os.Stderr})
	if err != nil {
		return err
	}
	cmd, err := svc.Command(ctx, argv)
	if err != nil {
		return err
	}
	return cmd.Run(ctx, dispatch.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

func newRootCmd() *cobra.Command {
	var configPath string
	var jsonOutput bool
	var verbose bool

	newSvc := func() (*app.Service, error) {
		return app.New(app.Options{ConfigPath: configPath, LogWriter: os.Stderr, Verbose: verbose})
	}

	cmd := &cobra.Command{
		Use:           "nodekit",
		Short:         "Per-project JavaScript toolchain manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newFetchCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newInstallCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newListCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newCacheCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newRunCmd(newSvc))
	cmd.AddCommand(newWhichCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newDoctorCmd(newSvc, &jsonOutput))

	return cmd
}
