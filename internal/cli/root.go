package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	resourcesDir string
	debugFlag    bool
	outputJSON   bool
	hostName     string
	hostVersion  string
)

// Execute runs the root cobra command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wakatime-agent",
		Short:         "WakaTime editor agent: bootstraps wakatime-cli and sends heartbeats",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to wakatime-agent.yaml (default: inside the resources directory)")
	cmd.PersistentFlags().StringVar(&resourcesDir, "resources", "", "Resources directory (default: $WAKATIME_RESOURCES_DIR or next to the executable)")
	cmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging regardless of ~/.wakatime.cfg")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().StringVar(&hostName, "host-name", "", "Editor name reported to wakatime-cli")
	cmd.PersistentFlags().StringVar(&hostVersion, "host-version", "", "Editor version reported to wakatime-cli")

	cmd.AddCommand(newBootstrapCmd())
	cmd.AddCommand(newHeartbeatCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}
