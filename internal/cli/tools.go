package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"wakatime/internal/tools"
	"wakatime/internal/tui"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and maintain wakatime-cli",
	}

	cmd.AddCommand(newToolsStatusCmd())
	cmd.AddCommand(newToolsInstallCmd("install", "Download and install wakatime-cli", "installing", (*tools.Manager).Install))
	cmd.AddCommand(newToolsInstallCmd("upgrade", "Reinstall wakatime-cli from the latest archive", "upgrading", (*tools.Manager).Upgrade))

	return cmd
}

func newToolsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the installed and latest wakatime-cli versions",
		RunE:  runToolsStatus,
	}
}

func runToolsStatus(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	a, err := newAgent(cmd.Context(), env, agentOptions{})
	if err != nil {
		return err
	}
	return writeToolStatus(cmd, a.Tools().Detect(cmd.Context()))
}

func newToolsInstallCmd(use, short, progress string, action func(*tools.Manager, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			a, err := newAgent(cmd.Context(), env, agentOptions{})
			if err != nil {
				return err
			}
			mgr := a.Tools()

			var activity *tui.Activity
			if !outputJSON && tui.IsTerminal(cmd.ErrOrStderr()) {
				activity = tui.StartActivity(cmd.ErrOrStderr(), progress+" "+tools.ToolName)
			}
			actionErr := action(mgr, cmd.Context())
			if activity != nil {
				activity.Stop()
			}

			status := mgr.Detect(cmd.Context())
			if actionErr != nil {
				status.Error = actionErr.Error()
			}
			if err := writeToolStatus(cmd, status); err != nil {
				return err
			}
			return actionErr
		},
	}
}

func writeToolStatus(cmd *cobra.Command, st tools.Status) error {
	if outputJSON {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printStatusTable(cmd, st)
	return nil
}

func printStatusTable(cmd *cobra.Command, st tools.Status) {
	installed := "no"
	if st.Installed {
		installed = "yes"
	}
	outdated := "-"
	if st.Installed {
		outdated = "no"
		if st.Outdated {
			outdated = "yes"
		}
	}

	cmd.Printf("%-14s %-10s %-10s %-9s %-8s %s\n", "Tool", "Version", "Latest", "Installed", "Outdated", "Path")
	cmd.Printf("%-14s %-10s %-10s %-9s %-8s %s\n", st.Tool, tui.NonEmptyOrDash(st.Version), tui.NonEmptyOrDash(st.Latest), installed, outdated, st.Path)
	if st.Interpreter != "" {
		cmd.Printf("  python: %s\n", st.Interpreter)
	}
	if st.InstalledAt != "" {
		cmd.Printf("  installed at: %s\n", st.InstalledAt)
	}
	if st.Error != "" {
		cmd.Printf("  error: %s\n", st.Error)
	}
}
