package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wakatime/internal/agent"
	"wakatime/internal/config"
	"wakatime/internal/logx"
	"wakatime/internal/paths"
	"wakatime/internal/project"
	"wakatime/internal/tui"
)

// environment is the resolved state shared by every command.
type environment struct {
	paths    paths.AgentPaths
	cfg      config.Config
	settings config.UserSettings
	debug    bool
	logger   zerolog.Logger
	closer   io.Closer
}

func (e *environment) Close() {
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

// loadEnvironment resolves paths, reads both configuration files, applies
// flag overrides and opens the log file.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	pp, err := paths.Resolve(resourcesDir)
	if err != nil {
		return nil, err
	}

	cfgFile := configPath
	if cfgFile == "" {
		cfgFile = pp.ConfigFile
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if resourcesDir == "" && cfg.ResourcesDir != "" {
		if pp, err = paths.Resolve(cfg.ResourcesDir); err != nil {
			return nil, err
		}
	}
	if hostName != "" {
		cfg.Host.Name = hostName
	}
	if hostVersion != "" {
		cfg.Host.Version = hostVersion
	}
	if err := validationError(cfg.Validate()); err != nil {
		return nil, err
	}

	settings, err := config.LoadUserSettings(pp.UserConfig)
	if err != nil {
		return nil, err
	}
	if debugFlag {
		settings.DebugEnabled = true
	}

	env := &environment{paths: pp, cfg: cfg, settings: settings, debug: settings.Debug()}
	logger, closer, err := logx.New(pp, env.debug)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; logging to stderr\n", err)
		logger = logx.Console(cmd.ErrOrStderr(), env.debug)
	}
	if !env.debug {
		logger = logx.ParseLevel(logger, cfg.LogLevel)
	}
	env.logger = logger
	env.closer = closer
	return env, nil
}

func validationError(results []config.ValidationResult) error {
	var errs []error
	for _, r := range results {
		if r.Level == "error" {
			errs = append(errs, errors.New(r.Message))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

// agentOptions carries the per-command collaborators for newAgent.
type agentOptions struct {
	reporter agent.Reporter
	alerter  agent.Alerter
	prompt   func() (string, bool)
	project  string
}

func newAgent(ctx context.Context, env *environment, opts agentOptions) (*agent.Agent, error) {
	resolver, err := project.NewResolver(project.DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("project resolver: %w", err)
	}
	resolver.SetOverride(opts.project)

	return agent.New(ctx, agent.Options{
		Paths:     env.paths,
		Config:    env.cfg,
		Settings:  env.settings,
		Projects:  resolver,
		Alerter:   opts.alerter,
		Reporter:  opts.reporter,
		PromptKey: opts.prompt,
		Logger:    env.logger,
	}), nil
}

// keyPrompter asks for an API key on out and reads one line from in.
func keyPrompter(in io.Reader, out io.Writer) func() (string, bool) {
	return func() (string, bool) {
		fmt.Fprint(out, "WakaTime API key (https://wakatime.com/api-key): ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", false
		}
		key := strings.TrimSpace(line)
		if !config.ValidAPIKey(key) {
			fmt.Fprintln(out, "invalid api key, skipping")
			return "", false
		}
		return key, true
	}
}

func isInteractive(cmd *cobra.Command) bool {
	return tui.IsTerminal(cmd.InOrStdin()) && tui.IsTerminal(cmd.OutOrStdout())
}
