package listener

import (
	"fmt"
	"log/slog"

	"github.com/tessro/pop-upgrade/internal/apt"
	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/style"
)

// terminalResult extracts the result of a *.result event.
func terminalResult(ev *daemon.StreamEvent) (*daemon.OperationResult, error) {
	if ev.Result == nil {
		return nil, transportError("decode "+string(ev.Type),
			fmt.Errorf("%w: missing result", daemon.ErrMalformedEvent))
	}
	return ev.Result, nil
}

func (l *Listener) printFetching(ev *daemon.StreamEvent) {
	l.printf("%s %s\n", style.Primary("Fetching"), style.Secondary(ev.Package))
}

// printFetched prints a fetched-package line. sep follows the counters.
func (l *Listener) printFetched(ev *daemon.StreamEvent, sep string) {
	l.printf("%s (%s/%s)%s %s\n",
		style.Primary("Fetched"),
		style.Info(ev.Completed),
		style.Info(ev.Total),
		sep,
		style.Secondary(ev.Package))
}

// printStep prints a package-manager step. Undecodable steps are logged
// and skipped; they never end a session.
func (l *Listener) printStep(ev *daemon.StreamEvent) {
	step, err := apt.ParseStep(ev.Step)
	if err != nil {
		slog.Error("failed to unpack the upgrade event", "error", err, "step", ev.Step)
		return
	}

	switch step.Kind {
	case apt.StepProcessing:
		l.printf("%s for %s\n", style.Primary("Processing triggers"), style.Secondary(step.Package))
	case apt.StepProgress:
		l.printf("%s: %s%%\n", style.Primary("Progress"), style.Info(step.Percent))
	case apt.StepSettingUp:
		l.printf("%s %s\n", style.Primary("Setting up"), style.Secondary(step.Package))
	case apt.StepUnpacking:
		l.printf("%s %s (%s) over (%s)\n",
			style.Primary("Unpacking"),
			style.Secondary(step.Package),
			style.Info(step.Version),
			style.Info(step.Over))
	case apt.StepWaitingOnLock:
		l.printf("%s %s\n", style.Primary("Waiting"), style.Secondary("on a process holding an apt/dpkg lock file"))
	}
}
