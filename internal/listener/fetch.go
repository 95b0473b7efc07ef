package listener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tessro/pop-upgrade/internal/daemon"
)

// FetchUpdates asks the daemon to download pending package updates and
// follows the fetch to its end. When nothing is pending it says so and
// returns without listening.
func (l *Listener) FetchUpdates(ctx context.Context, packages []string, downloadOnly bool) (Result, error) {
	fetched, err := l.transport.FetchUpdates(packages, downloadOnly)
	if err != nil {
		return Result{}, fmt.Errorf("request package fetch: %w", err)
	}

	slog.Info("fetch requested",
		"updates_available", fetched.UpdatesAvailable,
		"completed", fetched.Completed,
		"total", fetched.Total)

	if !fetched.UpdatesAvailable || fetched.Total == 0 {
		l.println("no updates available to fetch")
		return Result{Outcome: OutcomeCompleted}, nil
	}

	l.printf("fetching updates: %d of %d updates fetched\n", fetched.Completed, fetched.Total)
	return l.Listen(ctx, FetchUpdates)
}

// handleFetchEvent handles events of a package fetch. It never retries.
func handleFetchEvent(l *Listener, s *session, ev *daemon.StreamEvent) (bool, error) {
	switch ev.Type {
	case daemon.EventPackageFetchResult:
		res, err := terminalResult(ev)
		if err != nil {
			return true, err
		}
		l.report(FetchUpdates, res)
		s.reported = res
		return true, nil
	case daemon.EventPackageFetched:
		l.printFetched(ev, "")
	case daemon.EventPackageFetching:
		l.printFetching(ev)
	case daemon.EventPackageUpgrade:
		l.printStep(ev)
	default:
		return ignore(s, ev)
	}
	return false, nil
}
