package listener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/muesli/termenv"

	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/style"
)

const progressBarWidth = 30

// UpgradeRecoveryFromRelease refreshes the recovery partition from a release
// image and follows the upgrade to its end. Empty version and arch select
// the daemon's defaults.
func (l *Listener) UpgradeRecoveryFromRelease(ctx context.Context, version, arch string, flags daemon.RecoveryFlags) (Result, error) {
	slog.Info("requesting recovery upgrade", "version", version, "arch", arch, "flags", flags)
	if err := l.transport.RecoveryUpgradeRelease(version, arch, flags); err != nil {
		return Result{}, fmt.Errorf("request recovery upgrade: %w", err)
	}
	return l.Listen(ctx, RecoveryUpgrade)
}

// UpgradeRecoveryFromFile refreshes the recovery partition from a local ISO.
func (l *Listener) UpgradeRecoveryFromFile(ctx context.Context, path string) (Result, error) {
	slog.Info("requesting recovery upgrade from file", "path", path)
	if err := l.transport.RecoveryUpgradeFile(path); err != nil {
		return Result{}, fmt.Errorf("request recovery upgrade: %w", err)
	}
	return l.Listen(ctx, RecoveryUpgrade)
}

// handleRecoveryEvent handles events of a recovery partition refresh. It
// never retries.
func handleRecoveryEvent(l *Listener, s *session, ev *daemon.StreamEvent) (bool, error) {
	switch ev.Type {
	case daemon.EventRecoveryProgress:
		l.printDownload(s, ev.Progress, ev.ProgressSize)
	case daemon.EventRecoveryEvent:
		l.endProgressLine(s)
		l.printf("%s: %s\n", style.Primary("Recovery event"), daemon.RecoveryEvent(ev.Code).String())
	case daemon.EventRecoveryResult:
		l.endProgressLine(s)
		res, err := terminalResult(ev)
		if err != nil {
			return true, err
		}
		l.report(RecoveryUpgrade, res)
		s.reported = res
		return true, nil
	default:
		return ignore(s, ev)
	}
	return false, nil
}

// printDownload overwrites the current line with the download progress.
// Sizes arrive in KiB.
func (l *Listener) printDownload(s *session, done, total uint64) {
	line := fmt.Sprintf("\r%s: %s/%s %s",
		style.Primary("Fetched"),
		style.Info(done/1024),
		style.Info(total/1024),
		style.Primary("MiB"))

	if l.progressBar && total > 0 {
		ratio := float64(done) / float64(total)
		if ratio > 1 {
			ratio = 1
		}
		line += " " + newDownloadBar().ViewAs(ratio)
	}

	l.printf("%s", line)
	s.progressOpen = true
}

// endProgressLine terminates an open in-place progress line.
func (l *Listener) endProgressLine(s *session) {
	if !s.progressOpen {
		return
	}
	l.println()
	s.progressOpen = false
}

func newDownloadBar() progress.Model {
	opts := []progress.Option{progress.WithWidth(progressBarWidth), progress.WithDefaultGradient()}
	if !style.Enabled() {
		opts = append(opts, progress.WithColorProfile(termenv.Ascii))
	}
	return progress.New(opts...)
}
