// Package notify delivers desktop notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

// Notification is a single user-facing message.
type Notification struct {
	Title   string
	Message string
	Urgency Urgency
	Expire  time.Duration
}

// Notifier delivers notifications. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// CommandNotifier shells out to a notify-send compatible binary.
type CommandNotifier struct {
	command string
	timeout time.Duration
}

func NewCommandNotifier(command string) *CommandNotifier {
	return &CommandNotifier{command: command, timeout: 5 * time.Second}
}

// Args returns the argument list passed to the notifier binary.
func (c *CommandNotifier) Args(n Notification) []string {
	urgency := n.Urgency
	if urgency == "" {
		urgency = UrgencyNormal
	}
	args := []string{"-u", string(urgency)}
	if n.Expire > 0 {
		args = append(args, "-t", strconv.FormatInt(n.Expire.Milliseconds(), 10))
	}
	return append(args, n.Title, n.Message)
}

func (c *CommandNotifier) Notify(ctx context.Context, n Notification) error {
	execCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := exec.CommandContext(execCtx, c.command, c.Args(n)...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", c.command, err, string(out))
	}
	return nil
}

// LogNotifier writes notifications to the log. Used when no notification
// daemon is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Warn("notification", "title", n.Title, "message", n.Message, "urgency", string(n.Urgency))
	return nil
}
