// Package capture takes screenshots of the current output.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrCaptureUnavailable is returned when no screenshot could be taken.
var ErrCaptureUnavailable = errors.New("screen capture unavailable")

const commandTimeout = 10 * time.Second

// Capturer returns one encoded screenshot per call.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// CommandCapturer runs a screenshot tool that writes a PNG to stdout
// ("grim -" on Wayland).
type CommandCapturer struct {
	command string
	args    []string
}

// NewCommandCapturer builds a capturer for the given tool. When args is empty
// the tool is asked to write to stdout with "-".
func NewCommandCapturer(command string, args ...string) *CommandCapturer {
	if len(args) == 0 {
		args = []string{"-"}
	}
	return &CommandCapturer{command: command, args: args}
}

func (c *CommandCapturer) Capture(ctx context.Context) ([]byte, error) {
	execCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, c.command, c.args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrCaptureUnavailable, c.command, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: %s produced no output", ErrCaptureUnavailable, c.command)
	}
	return stdout.Bytes(), nil
}
