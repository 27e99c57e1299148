package proc

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestLaunchMissingBinary(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-python")
	err := CmdRunner{}.Launch(context.Background(), missing, "--version")
	if err == nil {
		t.Fatalf("expected launch failure")
	}
	if !IsStartError(err) {
		t.Fatalf("expected StartError, got %T", err)
	}
}

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	res, err := CmdRunner{}.Run(context.Background(), "sh", []string{"-c", "echo out; echo err 1>&2; exit 3"}, RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", res.ExitCode)
	}
	if got := res.Combined(); !strings.HasPrefix(got, "out\n") || !strings.HasSuffix(got, "err\n") {
		t.Fatalf("expected stdout then stderr, got %q", got)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := CmdRunner{}.Run(context.Background(), filepath.Join(t.TempDir(), "nope"), nil, RunOptions{})
	var se *StartError
	if !errors.As(err, &se) {
		t.Fatalf("expected StartError, got %v", err)
	}
}

func TestLaunchOutlivesCancelledContext(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	marker := filepath.Join(t.TempDir(), "sent")
	ctx, cancel := context.WithCancel(context.Background())
	if err := (CmdRunner{}).Launch(ctx, "sh", "-c", "sleep 0.3; touch "+marker); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	cancel()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(marker); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("launched process did not finish after its context was cancelled")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestLaunchRefusesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := CmdRunner{}.Launch(ctx, "sh", "-c", "true")
	if !IsStartError(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected start error wrapping context.Canceled, got %v", err)
	}
}
