package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"wakatime/internal/agent"
	"wakatime/internal/tui"
)

// fileEvent is one line of the serve protocol.
type fileEvent struct {
	File  string `json:"file"`
	Write bool   `json:"write"`
}

func parseEvent(line string) (fileEvent, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return fileEvent{}, false, nil
	}
	var ev fileEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return fileEvent{}, false, fmt.Errorf("decode event: %w", err)
	}
	if ev.File == "" {
		return fileEvent{}, false, errors.New("decode event: missing file")
	}
	return ev, true, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: `Bootstrap, then read {"file":..,"write":..} events from stdin, one JSON object per line`,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	a, err := newAgent(cmd.Context(), env, agentOptions{alerter: tui.NewWriterAlerter(cmd.ErrOrStderr(), false)})
	if err != nil {
		return err
	}

	// Bootstrap in the background; events that arrive before it finishes are
	// dropped by the readiness check.
	started := make(chan error, 1)
	go func() {
		_, err := a.Start(cmd.Context())
		started <- err
	}()

	stats, err := consumeEvents(cmd.InOrStdin(), a.Notify, cmd.ErrOrStderr())
	a.Wait()
	if startErr := <-started; errors.Is(startErr, agent.ErrNoInterpreter) {
		return startErr
	}
	env.logger.Info().Int("accepted", stats.accepted).Int("dropped", stats.dropped).Int("invalid", stats.invalid).Msg("serve finished")
	return err
}

type serveStats struct {
	accepted int
	dropped  int
	invalid  int
}

func consumeEvents[T comparable](in io.Reader, notify func(file string, isWrite bool) T, errOut io.Writer) (serveStats, error) {
	var (
		stats serveStats
		zero  T
	)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		ev, ok, err := parseEvent(scanner.Text())
		if err != nil {
			stats.invalid++
			fmt.Fprintf(errOut, "warning: %v\n", err)
			continue
		}
		if !ok {
			continue
		}
		if notify(ev.File, ev.Write) == zero {
			stats.dropped++
		} else {
			stats.accepted++
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read events: %w", err)
	}
	return stats, nil
}
