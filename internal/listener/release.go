package listener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/prompt"
	"github.com/tessro/pop-upgrade/internal/style"
)

// UpgradeRelease upgrades the system from one release to another and
// follows the upgrade to its end.
//
// With the Recovery method the recovery partition is refreshed first and
// the release upgrade is requested once that refresh has ended, whatever
// its result. Only a transport error stops the flow there.
// Passes that end with OutcomeRetry re-issue the same request. Once a pass
// ends without a retry the upgrade is finalized, unless the operator
// declined to retry.
func (l *Listener) UpgradeRelease(ctx context.Context, method daemon.UpgradeMethod, from, to string) (Result, error) {
	if method == daemon.UpgradeRecovery {
		res, err := l.UpgradeRecoveryFromRelease(ctx, "", "", 0)
		if err != nil {
			return Result{}, err
		}
		if res.Failed() {
			slog.Warn("recovery upgrade failed, continuing with release upgrade", "code", res.Reported.Code)
		}
	}

	var res Result
	for attempt := 1; ; attempt++ {
		slog.Info("requesting release upgrade", "method", method, "from", from, "to", to, "attempt", attempt)
		if err := l.transport.ReleaseUpgrade(method, from, to); err != nil {
			return Result{}, fmt.Errorf("request release upgrade: %w", err)
		}

		var err error
		res, err = l.Listen(ctx, ReleaseUpgrade)
		if err != nil {
			return Result{}, err
		}
		if res.Outcome != OutcomeRetry {
			break
		}

		l.printf("%s: %s\n", style.Primary("Event"), style.Secondary("attempting to perform upgrade again"))
	}

	if res.Outcome == OutcomeAborted {
		slog.Info("release upgrade aborted by operator")
		return res, nil
	}

	slog.Info("finalizing release upgrade")
	if err := l.transport.ReleaseUpgradeFinalize(); err != nil {
		return res, fmt.Errorf("finalize release upgrade: %w", err)
	}
	return res, nil
}

// handleReleaseEvent handles events of a release upgrade, including the
// recoverable failures that request another pass.
func handleReleaseEvent(l *Listener, s *session, ev *daemon.StreamEvent) (bool, error) {
	switch ev.Type {
	case daemon.EventPackageFetching:
		l.printFetching(ev)
	case daemon.EventPackageFetched:
		l.printFetched(ev, ":")
	case daemon.EventPackageFetchResult:
		res, err := terminalResult(ev)
		if err != nil {
			return true, err
		}
		l.report(FetchUpdates, res)
	case daemon.EventPackageUpgrade:
		l.printStep(ev)
	case daemon.EventReleaseEvent:
		l.printf("%s: %s\n", style.Primary("Event"), daemon.UpgradeEvent(ev.Code).String())
	case daemon.EventReleaseResult:
		res, err := terminalResult(ev)
		if err != nil {
			return true, err
		}
		if s.retry {
			slog.Debug("release result superseded by retry", "code", res.Code)
			return true, nil
		}
		l.report(ReleaseUpgrade, res)
		s.reported = res
		return true, nil
	case daemon.EventNoConnection:
		l.println(style.Error("Failed to connect to an apt repository. You may not be connected to the Internet."))
		if l.asker.Ask("    "+prompt.YesNo(style.Primary("Try again?"), false), false) {
			s.retry = true
		} else {
			s.aborted = true
		}
		slog.Info("no connection", "retry", s.retry)
		return true, nil
	case daemon.EventRepoCompatError:
		decisions := ResolveConflicts(l.out, l.asker, ev.Succeeded, ev.Failed)
		if err := l.transport.RepoModify(decisions); err != nil {
			return true, transportError("modify repositories", err)
		}
		s.retry = true
		return true, nil
	default:
		return ignore(s, ev)
	}
	return false, nil
}
