// Package listener attaches to the upgrade daemon and follows an operation
// to its end.
//
// A session subscribes to the daemon's event stream, reconciles against the
// daemon's current status (the operation may already be over), and then
// dispatches events to a per-operation handler until one of them stops the
// session. The daemon outlives the client, so a session never assumes it
// started the operation it observes.
package listener

import (
	"errors"
	"fmt"
	"io"

	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/event"
	"github.com/tessro/pop-upgrade/internal/prompt"
)

// ErrTransport marks failures of the channel to the daemon, as opposed to
// failures the daemon reports about an operation.
var ErrTransport = errors.New("daemon transport failed")

// transportError wraps err so that errors.Is(err, ErrTransport) holds.
func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

// Transport is the daemon surface a Listener needs.
type Transport interface {
	Status() (*daemon.StatusResponse, error)

	FetchUpdates(packages []string, downloadOnly bool) (*daemon.FetchResponse, error)
	RecoveryUpgradeRelease(version, arch string, flags daemon.RecoveryFlags) error
	RecoveryUpgradeFile(path string) error
	ReleaseUpgrade(method daemon.UpgradeMethod, from, to string) error
	ReleaseUpgradeFinalize() error
	RepoModify(decisions map[string]bool) error

	StreamEvents() (<-chan daemon.EventResult, error)
	StopEventStream()
}

var _ Transport = (*daemon.Client)(nil)

// Outcome is how a dispatch session ended.
type Outcome int

const (
	// OutcomeCompleted means a terminal result was reached (and reported
	// unless it was suppressed).
	OutcomeCompleted Outcome = iota
	// OutcomeRetry means the request must be re-issued and a new session run.
	OutcomeRetry
	// OutcomeAborted means the operator declined to retry.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeRetry:
		return "retry"
	case OutcomeAborted:
		return "aborted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the disposition of a session or of a whole driven operation.
type Result struct {
	Outcome Outcome
	// Reported is the terminal result printed for the operation, if any.
	Reported *daemon.OperationResult
}

// Failed reports whether the printed terminal result was a failure.
func (r Result) Failed() bool {
	return r.Reported != nil && r.Reported.Code != 0
}

// Listener drives daemon operations and prints their progress.
type Listener struct {
	transport Transport
	asker     prompt.Asker
	out       io.Writer

	progressBar bool
	events      event.Emitter[*daemon.StreamEvent]
}

// New creates a Listener that prints to out and asks questions through asker.
func New(transport Transport, asker prompt.Asker, out io.Writer) *Listener {
	return &Listener{
		transport: transport,
		asker:     asker,
		out:       out,
	}
}

// SetProgressBar enables the graphical download bar for recovery upgrades.
// Only useful when out is a terminal.
func (l *Listener) SetProgressBar(enabled bool) {
	l.progressBar = enabled
}

// OnEvent registers an observer that sees every stream event before it is
// handled. It returns a function that removes the observer.
func (l *Listener) OnEvent(fn func(*daemon.StreamEvent)) (unsubscribe func()) {
	return l.events.Subscribe(fn)
}

func (l *Listener) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.out, format, args...)
}

func (l *Listener) println(args ...any) {
	_, _ = fmt.Fprintln(l.out, args...)
}
