// Package notify delivers desktop notifications about available releases.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/muesli/reflow/wordwrap"
)

// DefaultCommand is the notification helper shipped with libnotify.
const DefaultCommand = "notify-send"

const (
	appName   = "Pop!_OS Upgrade"
	icon      = "distributor-logo"
	bodyWidth = 60
)

// Notification is a single desktop notification.
type Notification struct {
	Summary string
	Body    string
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) error

// Command delivers notifications by running notify-send.
type Command struct {
	name string
	run  Runner
}

// NewCommand creates a Command that runs name, or DefaultCommand if empty.
// A nil run executes the command with os/exec.
func NewCommand(name string, run Runner) *Command {
	if name == "" {
		name = DefaultCommand
	}
	if run == nil {
		run = execRunner
	}
	return &Command{name: name, run: run}
}

// Notify implements Notifier.
func (c *Command) Notify(ctx context.Context, n Notification) error {
	args := []string{
		"--app-name=" + appName,
		"--icon=" + icon,
		"--urgency=normal",
		n.Summary,
		wordwrap.String(n.Body, bodyWidth),
	}

	slog.Info("sending notification", "summary", n.Summary)
	if err := c.run(ctx, c.name, args...); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

// ReleaseAvailable is the notification for a new release.
func ReleaseAvailable(next string) Notification {
	return Notification{
		Summary: "Upgrade Available",
		Body:    fmt.Sprintf("Pop!_OS %s is available to download", next),
	}
}
