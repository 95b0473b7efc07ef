// Command pop-upgrade drives the Pop!_OS upgrade daemon from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tessro/pop-upgrade/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		switch {
		case cli.IsReported(err):
			// The daemon's result line was already printed.
		case errors.Is(err, cli.ErrDaemonNotRunning):
			fmt.Fprintf(os.Stderr, "pop-upgrade: %v\n", err)
			fmt.Fprintln(os.Stderr, "   Start it with: systemctl start pop-upgrade")
		default:
			fmt.Fprintf(os.Stderr, "pop-upgrade: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
