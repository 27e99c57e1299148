package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"wakatime/internal/config"
	"wakatime/internal/heartbeat"
	"wakatime/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit agent and user configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigEditCmd())
	cmd.AddCommand(newConfigSetKeyCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective agent configuration and user settings",
		RunE:  runConfigShow,
	}
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open wakatime-agent.yaml in $EDITOR",
		RunE:  runConfigEdit,
	}
}

func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key KEY",
		Short: "Store the WakaTime API key in ~/.wakatime.cfg",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigSetKey,
	}
}

type settingsView struct {
	Path   string `json:"path"`
	APIKey string `json:"api_key"`
	Debug  bool   `json:"debug"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	view := settingsView{
		Path:   env.settings.Path,
		APIKey: heartbeat.ObfuscateKey(env.settings.APIKey()),
		Debug:  env.settings.Debug(),
	}

	if outputJSON {
		data, err := json.MarshalIndent(struct {
			Agent    config.Config `json:"agent"`
			Settings settingsView  `json:"settings"`
		}{env.cfg, view}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	data, err := env.cfg.Marshal()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "# %s\n", view.Path)
	fmt.Fprintf(out, "# api_key: %s\n", nonEmptyOr(view.APIKey, "(unset)"))
	fmt.Fprintf(out, "# debug: %t\n", view.Debug)
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(args[0])
	if !config.ValidAPIKey(key) {
		return fmt.Errorf("invalid api key %q: expected a UUID", heartbeat.ObfuscateKey(key))
	}

	pp, err := paths.Resolve(resourcesDir)
	if err != nil {
		return err
	}
	if err := config.SaveAPIKey(pp.UserConfig, key); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved api key %s to %s\n", heartbeat.ObfuscateKey(key), pp.UserConfig)
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pp, err := paths.Resolve(resourcesDir)
	if err != nil {
		return err
	}
	cfgFile := configPath
	if cfgFile == "" {
		cfgFile = pp.ConfigFile
	}
	if err := ensureConfigFileExists(cfgFile); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := splitEditorCommand(editor)
	if len(parts) == 0 {
		return fmt.Errorf("invalid EDITOR value: %q", editor)
	}
	parts = append(parts, cfgFile)

	execCmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	execCmd.Stdout = cmd.OutOrStdout()
	execCmd.Stderr = cmd.ErrOrStderr()
	execCmd.Stdin = cmd.InOrStdin()

	if err := execCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}

func ensureConfigFileExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return config.Default().Save(path)
}

func splitEditorCommand(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	// Handles simple EDITOR values like "nano" or "code -w".
	return strings.Fields(value)
}

func nonEmptyOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
