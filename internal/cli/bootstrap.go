package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"wakatime/internal/agent"
	"wakatime/internal/config"
	"wakatime/internal/tui"
)

var noProgress bool

func newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Locate or install Python and install or upgrade wakatime-cli",
		RunE:  runBootstrap,
	}
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the interactive progress display")
	return cmd
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	out := cmd.OutOrStdout()
	mode := tui.DetectMode(out, noProgress, outputJSON)
	alerter := tui.NewWriterAlerter(cmd.ErrOrStderr(), mode == tui.ModeTUI)

	opts := agentOptions{alerter: alerter}
	if mode != tui.ModeJSON && isInteractive(cmd) {
		opts.prompt = keyPrompter(cmd.InOrStdin(), out)
	}

	var (
		result   agent.Result
		startErr error
	)
	switch mode {
	case tui.ModeTUI:
		// The key prompt and the progress table share the terminal; ask first.
		if opts.prompt != nil && env.settings.APIKey() == "" {
			if key, ok := opts.prompt(); ok {
				if err := saveKey(env, key); err != nil {
					return err
				}
			}
			opts.prompt = nil
		}
		// RunBootstrap hands startErr back; it is already rendered in the table.
		err := tui.RunBootstrap(out, func(r agent.Reporter) error {
			opts.reporter = r
			a, err := newAgent(cmd.Context(), env, opts)
			if err != nil {
				return err
			}
			result, startErr = a.Start(cmd.Context())
			return startErr
		})
		if err != nil && err != startErr {
			return err
		}
	case tui.ModePlain:
		opts.reporter = tui.NewLineReporter(out)
		fallthrough
	default:
		a, err := newAgent(cmd.Context(), env, opts)
		if err != nil {
			return err
		}
		result, startErr = a.Start(cmd.Context())
	}

	if mode == tui.ModeJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
	}
	return startErr
}

func saveKey(env *environment, key string) error {
	if err := config.SaveAPIKey(env.settings.Path, key); err != nil {
		return err
	}
	env.settings.Key = key
	return nil
}
