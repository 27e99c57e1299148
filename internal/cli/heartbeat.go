package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wakatime/internal/agent"
)

var (
	heartbeatFile    string
	heartbeatWrite   bool
	heartbeatProject string
)

func newHeartbeatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Send a single heartbeat",
		Long: `Send a single heartbeat for --file.

Python and wakatime-cli are installed first when missing. An existing
wakatime-cli is used as is: run "tools upgrade" or "bootstrap" to update it.
Each call is a fresh process, so the two-minute debounce does not apply
across calls. Editors that report every change should pipe events to "serve".`,
		RunE: runHeartbeat,
	}
	cmd.Flags().StringVar(&heartbeatFile, "file", "", "File the heartbeat is for")
	cmd.Flags().BoolVar(&heartbeatWrite, "write", false, "The file was saved")
	cmd.Flags().StringVar(&heartbeatProject, "project", "", "Project name; detected from the file when empty")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runHeartbeat(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	a, err := newAgent(cmd.Context(), env, agentOptions{project: heartbeatProject})
	if err != nil {
		return err
	}
	if _, err := a.Resume(cmd.Context()); errors.Is(err, agent.ErrNoInterpreter) {
		return err
	}

	task := a.Notify(heartbeatFile, heartbeatWrite)
	if task == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "skipped %s\n", heartbeatFile)
		return nil
	}
	if err := task.Wait(); err != nil {
		return fmt.Errorf("send heartbeat: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s (%s)\n", heartbeatFile, task.ID)
	return nil
}
