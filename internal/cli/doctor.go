package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"wakatime/internal/config"
	"wakatime/internal/heartbeat"
	"wakatime/internal/paths"
	"wakatime/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the agent's health without changing anything",
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	a, err := newAgent(cmd.Context(), env, agentOptions{})
	if err != nil {
		return err
	}
	status := a.Tools().Detect(cmd.Context())

	checks := []healthCheck{
		checkPython(status),
		checkTool(status),
		checkConfig(env.cfg),
		checkAPIKey(env.settings),
		checkResources(env.paths),
	}
	return writeDoctorResult(cmd, env.paths.Resources, checks)
}

func checkPython(st tools.Status) healthCheck {
	if st.Interpreter == "" {
		return healthCheck{Name: "Python", Status: "error", Summary: "not found; run bootstrap to install or see https://www.python.org/downloads/"}
	}
	return healthCheck{Name: "Python", Status: "ok", Summary: st.Interpreter}
}

func checkTool(st tools.Status) healthCheck {
	switch {
	case !st.Installed:
		return healthCheck{Name: "CLI", Status: "error", Summary: "wakatime-cli is not installed"}
	case st.Outdated:
		return healthCheck{Name: "CLI", Status: "warning", Summary: fmt.Sprintf("%s installed, %s available", nonEmptyOr(st.Version, "unknown"), st.Latest)}
	}
	return healthCheck{Name: "CLI", Status: "ok", Summary: st.Version}
}

func checkConfig(cfg config.Config) healthCheck {
	results := cfg.Validate()
	if len(results) == 0 {
		return healthCheck{Name: "Config", Status: "ok", Summary: fmt.Sprintf("%s/%s, %d workers", cfg.Host.Name, cfg.Host.Version, cfg.Workers)}
	}
	status := "warning"
	if config.HasErrors(results) {
		status = "error"
	}
	messages := make([]string, len(results))
	for i, r := range results {
		messages[i] = r.Message
	}
	return healthCheck{Name: "Config", Status: status, Summary: joinComma(messages)}
}

func checkAPIKey(settings config.UserSettings) healthCheck {
	key := settings.APIKey()
	switch {
	case key == "":
		return healthCheck{Name: "API key", Status: "error", Summary: "not set; run config set-key"}
	case !config.ValidAPIKey(key):
		return healthCheck{Name: "API key", Status: "warning", Summary: heartbeat.ObfuscateKey(key) + " does not look like a UUID"}
	}
	return healthCheck{Name: "API key", Status: "ok", Summary: heartbeat.ObfuscateKey(key)}
}

func checkResources(pp paths.AgentPaths) healthCheck {
	ok, err := paths.DirExists(pp.Resources)
	if err != nil {
		return healthCheck{Name: "Resources", Status: "error", Summary: err.Error()}
	}
	if !ok {
		return healthCheck{Name: "Resources", Status: "warning", Summary: pp.Resources + " does not exist yet"}
	}
	return healthCheck{Name: "Resources", Status: "ok", Summary: pp.Resources}
}

func writeDoctorResult(cmd *cobra.Command, resources string, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("AGENT HEALTH:")+" "+resources)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}
	return nil
}

func joinComma(items []string) string {
	if len(items) == 0 {
		return ""
	}
	result := items[0]
	for _, item := range items[1:] {
		result += ", " + item
	}
	return result
}
