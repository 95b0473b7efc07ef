package listener

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/style"
)

func TestMain(m *testing.M) {
	style.SetEnabled(false)
	os.Exit(m.Run())
}

func newTestListener(tr *fakeTransport, asker *scripted) (*Listener, *bytes.Buffer) {
	if asker == nil {
		asker = &scripted{}
	}
	var out bytes.Buffer
	return New(tr, asker, &out), &out
}

func TestFormatResult(t *testing.T) {
	for _, kind := range []OperationKind{FetchUpdates, RecoveryUpgrade, ReleaseUpgrade} {
		h := kind.Headlines()

		t.Run(kind.String()+" success", func(t *testing.T) {
			got := FormatResult(0, h, "disk on fire")
			want := h.Label + ": " + h.Success
			if got != want {
				t.Errorf("FormatResult() = %q, want %q", got, want)
			}
			if strings.Contains(got, "disk on fire") {
				t.Error("success line must not contain the reason")
			}
		})

		t.Run(kind.String()+" failure", func(t *testing.T) {
			got := FormatResult(3, h, "disk on fire")
			want := h.Label + ": " + h.Failure + ": disk on fire"
			if got != want {
				t.Errorf("FormatResult() = %q, want %q", got, want)
			}
		})
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{OutcomeCompleted, "completed"},
		{OutcomeRetry, "retry"},
		{OutcomeAborted, "aborted"},
		{Outcome(9), "outcome(9)"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(tt.outcome), got, tt.want)
		}
	}
}

func TestListenReportsExistingResult(t *testing.T) {
	tr := &fakeTransport{
		status: &daemon.StatusResponse{
			Status: daemon.StatusRecoveryUpgrade,
			Result: result(0, ""),
		},
		sessions: [][]*daemon.StreamEvent{{
			resultEvent(daemon.EventRecoveryResult, 1, "stale"),
		}},
	}
	l, out := newTestListener(tr, nil)

	res, err := l.Listen(context.Background(), RecoveryUpgrade)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if res.Outcome != OutcomeCompleted || res.Failed() {
		t.Errorf("Listen() = %+v, want completed success", res)
	}
	if got := len(tr.streams[0]); got != 1 {
		t.Errorf("stream was read: %d events left, want 1", got)
	}
	if tr.stops != 1 {
		t.Errorf("StopEventStream called %d times, want 1", tr.stops)
	}

	want := "Recovery upgrade status: recovery partition refueled and ready to go\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestListenSubscribesBeforeStatus(t *testing.T) {
	tr := &fakeTransport{streamErr: errors.New("refused")}
	l, _ := newTestListener(tr, nil)

	_, err := l.Listen(context.Background(), FetchUpdates)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Listen() error = %v, want ErrTransport", err)
	}
	if tr.statusReads != 0 {
		t.Errorf("status read %d times before subscribing, want 0", tr.statusReads)
	}
}

func TestReconcileIsPure(t *testing.T) {
	tr := &fakeTransport{
		status: &daemon.StatusResponse{
			Status: daemon.StatusReleaseUpgrade,
			Result: result(4, "dpkg exploded"),
		},
	}
	l, out := newTestListener(tr, nil)

	for i := 0; i < 2; i++ {
		res, err := l.reconcile(ReleaseUpgrade)
		if err != nil {
			t.Fatalf("reconcile() error = %v", err)
		}
		if res == nil || res.Code != 4 {
			t.Fatalf("reconcile() = %+v, want code 4", res)
		}
	}

	line := "Release upgrade status: release upgrade aborted: dpkg exploded\n"
	if out.String() != line+line {
		t.Errorf("output = %q, want the same line twice", out.String())
	}
}

func TestReconcileProceeds(t *testing.T) {
	tests := []struct {
		name   string
		status *daemon.StatusResponse
	}{
		{"inactive", &daemon.StatusResponse{Status: daemon.StatusInactive, Result: result(0, "")}},
		{"other operation", &daemon.StatusResponse{Status: daemon.StatusFetchingPackages, Result: result(0, "")}},
		{"in progress", &daemon.StatusResponse{Status: daemon.StatusReleaseUpgrade, SubStatus: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{status: tt.status}
			l, out := newTestListener(tr, nil)

			res, err := l.reconcile(ReleaseUpgrade)
			if err != nil {
				t.Fatalf("reconcile() error = %v", err)
			}
			if res != nil {
				t.Errorf("reconcile() = %+v, want nil", res)
			}
			if out.Len() != 0 {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}

func TestReconcileStatusError(t *testing.T) {
	tr := &fakeTransport{statusErr: daemon.ErrNotConnected}
	l, _ := newTestListener(tr, nil)

	_, err := l.Listen(context.Background(), FetchUpdates)
	if !errors.Is(err, ErrTransport) || !errors.Is(err, daemon.ErrNotConnected) {
		t.Fatalf("Listen() error = %v, want ErrTransport wrapping ErrNotConnected", err)
	}
}

func TestListenStreamClosed(t *testing.T) {
	tr := &fakeTransport{
		sessions: [][]*daemon.StreamEvent{{
			{Type: daemon.EventPackageFetching, Package: "linux-image"},
		}},
	}
	l, _ := newTestListener(tr, nil)

	_, err := l.Listen(context.Background(), FetchUpdates)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Listen() error = %v, want ErrTransport", err)
	}
	if !errors.Is(err, daemon.ErrStreamClosed) {
		t.Errorf("Listen() error = %v, want ErrStreamClosed", err)
	}
}

func TestListenStreamError(t *testing.T) {
	decodeErr := errors.New("decode event: invalid character")
	tr := &fakeTransport{hold: true}
	l, _ := newTestListener(tr, nil)

	ch := make(chan daemon.EventResult, 1)
	ch <- daemon.EventResult{Err: decodeErr}
	tr.streamOverride = ch

	_, err := l.Listen(context.Background(), ReleaseUpgrade)
	if !errors.Is(err, ErrTransport) || !errors.Is(err, decodeErr) {
		t.Fatalf("Listen() error = %v, want ErrTransport wrapping the decode error", err)
	}
}

func TestListenCancelled(t *testing.T) {
	tr := &fakeTransport{hold: true}
	l, _ := newTestListener(tr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Listen(ctx, RecoveryUpgrade)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Listen() error = %v, want context.Canceled", err)
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Listen() error = %v, want ErrTransport", err)
	}
	if tr.stops != 1 {
		t.Errorf("StopEventStream called %d times, want 1", tr.stops)
	}
}

func TestListenMissingResult(t *testing.T) {
	tr := &fakeTransport{
		sessions: [][]*daemon.StreamEvent{{ev(daemon.EventReleaseResult)}},
	}
	l, out := newTestListener(tr, nil)

	_, err := l.Listen(context.Background(), ReleaseUpgrade)
	if !errors.Is(err, ErrTransport) || !errors.Is(err, daemon.ErrMalformedEvent) {
		t.Fatalf("Listen() error = %v, want ErrTransport wrapping ErrMalformedEvent", err)
	}
	if strings.Contains(out.String(), "Release upgrade status") {
		t.Errorf("malformed result was reported: %q", out.String())
	}
}

func TestListenIgnoresUnknownEvents(t *testing.T) {
	tr := &fakeTransport{
		sessions: [][]*daemon.StreamEvent{{
			ev("firmware.update"),
			ev(daemon.EventReleaseEvent),
			ev(daemon.EventNoConnection),
			resultEvent(daemon.EventRecoveryResult, 0, ""),
		}},
	}
	l, out := newTestListener(tr, nil)

	res, err := l.Listen(context.Background(), RecoveryUpgrade)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if res.Outcome != OutcomeCompleted {
		t.Errorf("Outcome = %v, want completed", res.Outcome)
	}
	want := "Recovery upgrade status: recovery partition refueled and ready to go\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestOnEventObservesEveryEvent(t *testing.T) {
	tr := &fakeTransport{
		sessions: [][]*daemon.StreamEvent{{
			ev("firmware.update"),
			{Type: daemon.EventPackageFetching, Package: "gnome-shell"},
			resultEvent(daemon.EventPackageFetchResult, 0, ""),
		}},
	}
	l, _ := newTestListener(tr, nil)

	var seen []daemon.EventType
	unsubscribe := l.OnEvent(func(ev *daemon.StreamEvent) {
		seen = append(seen, ev.Type)
	})
	defer unsubscribe()

	if _, err := l.Listen(context.Background(), FetchUpdates); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if len(seen) != 3 || seen[0] != "firmware.update" {
		t.Errorf("observed %v, want all 3 events in order", seen)
	}
}
