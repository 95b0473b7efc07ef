package listener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tessro/pop-upgrade/internal/daemon"
)

// session is the mutable state of one dispatch pass.
type session struct {
	kind OperationKind

	// retry is set by recoverable failures; it lives for this pass only.
	retry    bool
	aborted  bool
	reported *daemon.OperationResult

	// progressOpen is true while an in-place progress line has no newline.
	progressOpen bool
}

func (s *session) result() Result {
	switch {
	case s.retry:
		return Result{Outcome: OutcomeRetry}
	case s.aborted:
		return Result{Outcome: OutcomeAborted, Reported: s.reported}
	default:
		return Result{Outcome: OutcomeCompleted, Reported: s.reported}
	}
}

// handler processes one event. Returning stop ends the session.
type handler func(l *Listener, s *session, ev *daemon.StreamEvent) (stop bool, err error)

func handlerFor(kind OperationKind) handler {
	switch kind {
	case FetchUpdates:
		return handleFetchEvent
	case RecoveryUpgrade:
		return handleRecoveryEvent
	case ReleaseUpgrade:
		return handleReleaseEvent
	default:
		return nil
	}
}

// Listen follows the operation of the given kind until it ends.
//
// The event subscription is opened before the status is read so that no
// event emitted in between is missed. If the daemon already holds a
// terminal result for the operation, it is reported and the stream is
// never read. Otherwise events are handled strictly in arrival order.
//
// There is no timeout: a stalled daemon stalls the session. Cancel ctx to
// give up. A broken stream or a cancelled ctx is returned as an error
// wrapping ErrTransport.
func (l *Listener) Listen(ctx context.Context, kind OperationKind) (Result, error) {
	handle := handlerFor(kind)
	if handle == nil {
		return Result{}, fmt.Errorf("listen: unknown operation kind %d", int(kind))
	}

	events, err := l.transport.StreamEvents()
	if err != nil {
		return Result{}, transportError("subscribe to events", err)
	}
	defer l.transport.StopEventStream()

	s := &session{kind: kind}

	if res, err := l.reconcile(kind); err != nil {
		return Result{}, err
	} else if res != nil {
		s.reported = res
		slog.Info("operation already finished on attach", "kind", kind, "code", res.Code)
		return s.result(), nil
	}

	slog.Debug("dispatching events", "kind", kind)

	for {
		select {
		case <-ctx.Done():
			l.endProgressLine(s)
			return Result{}, transportError(fmt.Sprintf("listen for %s events", kind), ctx.Err())
		case er, ok := <-events:
			if !ok {
				l.endProgressLine(s)
				return Result{}, transportError("receive event", daemon.ErrStreamClosed)
			}
			if er.Err != nil {
				l.endProgressLine(s)
				return Result{}, transportError("receive event", er.Err)
			}

			l.events.Emit(er.Event)

			stop, err := handle(l, s, er.Event)
			if err != nil {
				return Result{}, err
			}
			if stop {
				res := s.result()
				slog.Info("session ended", "kind", kind, "outcome", res.Outcome)
				return res, nil
			}
		}
	}
}

// reconcile reports the daemon's existing terminal result for kind, if any.
// It is a pure read of daemon state.
func (l *Listener) reconcile(kind OperationKind) (*daemon.OperationResult, error) {
	status, err := l.transport.Status()
	if err != nil {
		return nil, transportError("query daemon status", err)
	}

	if status.Status != kind.DaemonStatus() || status.Result == nil {
		return nil, nil
	}

	l.report(kind, status.Result)
	return status.Result, nil
}

// ignore logs an event that is not part of the current operation's vocabulary.
// Newer daemons may emit tags this client does not know.
func ignore(s *session, ev *daemon.StreamEvent) (bool, error) {
	slog.Debug("ignoring event", "kind", s.kind, "type", ev.Type)
	return false, nil
}
