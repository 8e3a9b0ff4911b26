package pipeline

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// CommandRunner abstracts external process invocation so tests can fake
// the native toolchain and signing tools.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec, inheriting the process
// environment (CI provides credentials and toolchain paths there).
type ExecRunner struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the command and waits for completion. External tools can
// take minutes (notarization); the caller bounds that with ctx.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %v", ErrExternalTool, name, ctx.Err())
		}
		return fmt.Errorf("%w: %s: %v", ErrExternalTool, name, err)
	}
	return nil
}
