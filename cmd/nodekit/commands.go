package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nodekit/internal/app"
	"nodekit/internal/dispatch"
)

func newFetchCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <tool[@version]>",
		Short: "Download a tool into the local inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return print(*jsonOutput, res, fetchMessage(res))
		},
	}
}

func newInstallCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "install <node|yarn>[@version]",
		Aliases: []string{"i", "use"},
		Short:   "Fetch node or yarn and make it the user default",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Install(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return print(*jsonOutput, res, fetchMessage(res))
		},
	}
}

func newListCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "list [node|yarn|packages]",
		Aliases: []string{"ls"},
		Short:   "List locally available versions",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := ""
			if len(args) == 1 {
				tool = args[0]
				if tool != "node" && tool != "yarn" && tool != "packages" {
					return &exitError{code: exitFailure, msg: fmt.Sprintf("RUN_UNKNOWN_TOOL: unknown tool %q (want node, yarn or packages)", tool)}
				}
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			entries, err := svc.List(tool)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, entries, "")
			}
			if len(entries) == 0 {
				fmt.Println(styleDim.Render("nothing fetched yet"))
				return nil
			}
			for _, e := range entries {
				fmt.Println(listLine(e))
			}
			return nil
		},
	}
}

func newCacheCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	cacheCmd := &cobra.Command{Use: "cache", Short: "Manage the registry index cache"}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the cached Node index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			if err := svc.ClearCache(); err != nil {
				return err
			}
			return print(*jsonOutput, map[string]string{"cleared": svc.CachePath()}, success("cleared "+svc.CachePath()))
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			return print(*jsonOutput, map[string]string{"path": svc.CachePath()}, svc.CachePath())
		},
	})
	return cacheCmd
}

func newRunCmd(newSvc func() (*app.Service, error)) *cobra.Command {
	return &cobra.Command{
		Use:                "run <node|npm|npx|yarn> [args...]",
		Short:              "Run a tool the way its shim would",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dispatch.ToolName(args[0]) == "" {
				return &exitError{code: exitFailure, msg: fmt.Sprintf("RUN_UNKNOWN_TOOL: %s is not managed by nodekit", args[0])}
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			tc, err := svc.Command(cmd.Context(), args)
			if err != nil {
				return err
			}
			return tc.Run(cmd.Context(), dispatch.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
		},
	}
}

func newWhichCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "which <node|npm|npx|yarn>",
		Short: "Show the executable a tool resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			path, err := svc.Which(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return print(*jsonOutput, map[string]string{"tool": args[0], "path": path}, path)
		},
	}
}

func newDoctorCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the nodekit installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			report := svc.Doctor(cmd.Context())
			if *jsonOutput {
				if err := print(true, report, ""); err != nil {
					return err
				}
			} else {
				for _, f := range report.Findings {
					fmt.Println(findingLine(f))
				}
				if report.Healthy {
					fmt.Println(success("healthy"))
				}
			}
			if !report.Healthy {
				return &exitError{code: exitFailure, msg: "DOC_UNHEALTHY: doctor found errors"}
			}
			return nil
		},
	}
}
