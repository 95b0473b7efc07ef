package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"syscall"

	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/listener"
	"github.com/tessro/pop-upgrade/internal/prompt"
)

// ErrDaemonNotRunning indicates the daemon is not running.
var ErrDaemonNotRunning = errors.New("pop-upgrade daemon is not running")

// socketPath is the path to the daemon socket (can be overridden for testing).
var socketPath string

// SetSocketPath overrides the default socket path.
func SetSocketPath(path string) {
	socketPath = path
}

// getSocketPath returns the socket path to use.
func getSocketPath() string {
	if socketPath != "" {
		return socketPath
	}
	return daemon.DefaultSocketPath()
}

// NewClient creates a new daemon client with the configured socket path.
func NewClient() *daemon.Client {
	return daemon.NewClient(getSocketPath())
}

// ConnectClient creates and connects a daemon client.
// Returns ErrDaemonNotRunning if nothing listens on the socket.
func ConnectClient() (*daemon.Client, error) {
	client := NewClient()
	if err := client.Connect(); err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && isNotListening(opErr) {
			return nil, fmt.Errorf("%w (socket %s)", ErrDaemonNotRunning, client.SocketPath())
		}
		return nil, fmt.Errorf("%w: %w", daemon.ErrConnectionFailed, err)
	}
	return client, nil
}

// isNotListening reports whether the dial failed because no daemon is listening.
func isNotListening(err *net.OpError) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENOENT) || os.IsNotExist(err.Err)
}

// newListener wires a Listener to the terminal.
func newListener(client *daemon.Client) *listener.Listener {
	l := listener.New(client, prompt.NewTerminal(os.Stdin, os.Stdout), os.Stdout)
	l.SetProgressBar(stdoutIsTerminal())
	l.OnEvent(func(ev *daemon.StreamEvent) {
		slog.Debug("daemon event", "type", ev.Type, "code", ev.Code, "package", ev.Package)
	})
	return l
}
