package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// RunOptions configures a captured run.
type RunOptions struct {
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Result holds the captured output of a process that was started.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Combined returns stdout followed by stderr.
func (r Result) Combined() string {
	return string(r.Stdout) + string(r.Stderr)
}

// StartError reports that a process could not be launched at all.
type StartError struct {
	Command string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Command, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// IsStartError reports whether err came from a failed launch.
func IsStartError(err error) bool {
	var se *StartError
	return errors.As(err, &se)
}

// Runner spawns subprocesses.
type Runner interface {
	// Launch starts the command and returns once it is running. ctx only
	// bounds the start; cancelling it later does not stop the process. The
	// process is reaped in the background and its exit status is ignored.
	Launch(ctx context.Context, command string, args ...string) error
	// Run starts the command and waits for it to exit. A non-nil error means
	// the process could not be started; a non-zero exit is reported through
	// Result.ExitCode.
	Run(ctx context.Context, command string, args []string, opts RunOptions) (Result, error)
}

// CmdRunner runs commands with os/exec.
type CmdRunner struct{}

func (CmdRunner) Launch(ctx context.Context, command string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return &StartError{Command: command, Err: err}
	}
	cmd := exec.Command(command, args...)
	if err := cmd.Start(); err != nil {
		return &StartError{Command: command, Err: err}
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func (CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (Result, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer

	stdoutWriter := io.Writer(&stdoutBuf)
	if opts.Stdout != nil {
		stdoutWriter = io.MultiWriter(&stdoutBuf, opts.Stdout)
	}
	stderrWriter := io.Writer(&stderrBuf)
	if opts.Stderr != nil {
		stderrWriter = io.MultiWriter(&stderrBuf, opts.Stderr)
	}

	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	if err := cmd.Start(); err != nil {
		return Result{}, &StartError{Command: command, Err: err}
	}

	res := Result{}
	waitErr := cmd.Wait()
	res.Stdout = stdoutBuf.Bytes()
	res.Stderr = stderrBuf.Bytes()
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("wait %s: %w", command, waitErr)
	}
	return res, nil
}

var _ Runner = CmdRunner{}
