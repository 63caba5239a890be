package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandNotifierArgs(t *testing.T) {
	c := NewCommandNotifier("notify-send")
	args := c.Args(Notification{
		Title:   "Focus",
		Message: "Back to work",
		Urgency: UrgencyCritical,
		Expire:  7 * time.Second,
	})
	assert.Equal(t, []string{"-u", "critical", "-t", "7000", "Focus", "Back to work"}, args)

	assert.Equal(t, []string{"-u", "normal", "t", "m"}, c.Args(Notification{Title: "t", Message: "m"}))
}

func TestCommandNotifierMissingBinary(t *testing.T) {
	err := NewCommandNotifier("no-such-notifier-binary").Notify(context.Background(), Notification{Title: "x"})
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, l.Notify(context.Background(), Notification{Title: "Focus", Message: "hi", Urgency: UrgencyCritical}))
	assert.Contains(t, buf.String(), `"title":"Focus"`)
}
