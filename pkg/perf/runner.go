//go:build linux

package perf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

// Runner wraps a target command with perf stat.
type Runner struct {
	perfPath string
	sudoPath string // empty when no elevation is used
	events   []Counter

	waitDelay time.Duration
}

// _waitDelay bounds how long Run waits after an interrupt before killing the
// child and closing its pipes.
const _waitDelay = 5 * time.Second

// NewRunner resolves perf (and sudo when elevate is set and the process is not
// already root) up front, so a missing tool fails before anything is spawned.
func NewRunner(elevate bool) (*Runner, error) {
	perfPath, err := exec.LookPath("perf")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPerfNotFound, err)
	}

	r := &Runner{perfPath: perfPath, events: All(), waitDelay: _waitDelay}
	if elevate && unix.Geteuid() != 0 {
		sudoPath, err := exec.LookPath("sudo")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSudoNotFound, err)
		}
		r.sudoPath = sudoPath
	}
	return r, nil
}

// Elevated reports whether the runner prefixes perf with sudo.
func (r *Runner) Elevated() bool { return r.sudoPath != "" }

// Events returns the counters requested with -e.
func (r *Runner) Events() []Counter { return r.events }

// Args returns the full argv that Run executes for target.
func (r *Runner) Args(target []string) []string {
	args := make([]string, 0, 4+2*len(r.events)+len(target))
	if r.sudoPath != "" {
		args = append(args, r.sudoPath)
	}
	args = append(args, r.perfPath, "stat", "-B")
	for _, e := range r.events {
		args = append(args, "-e", e.String())
	}
	args = append(args, "--")
	return append(args, target...)
}

// Run executes target under perf stat and returns its combined stdout/stderr.
//
// A non-zero exit of perf or the target is logged and the output is still
// returned; whatever perf printed is parsed as-is.
func (r *Runner) Run(ctx context.Context, target []string) (string, error) {
	if len(target) == 0 {
		return "", ErrNoCommand
	}
	argv := r.Args(target)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	// a setuid sudo cannot always be killed by its caller but relays SIGINT;
	// perf also prints what it counted so far on SIGINT
	cmd.Cancel = func() error {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = r.waitDelay
	out, err := cmd.CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("run perf: %w", ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("run perf: %w", err)
		}
		slog.Warn("measured command exited with error", "code", exitErr.ExitCode(), "cmd", target[0])
	}
	return string(out), nil
}

// Measure runs target and parses the counters perf reported.
func (r *Runner) Measure(ctx context.Context, target []string) (Readings, error) {
	out, err := r.Run(ctx, target)
	if err != nil {
		return nil, err
	}
	return ParseOutput(out), nil
}
