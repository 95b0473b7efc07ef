package listener

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tessro/pop-upgrade/internal/daemon"
)

func TestFetchUpdatesNothingPending(t *testing.T) {
	tests := []struct {
		name  string
		fetch *daemon.FetchResponse
	}{
		{"no updates", &daemon.FetchResponse{UpdatesAvailable: false}},
		{"zero total", &daemon.FetchResponse{UpdatesAvailable: true, Total: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{fetch: tt.fetch}
			l, out := newTestListener(tr, nil)

			res, err := l.FetchUpdates(context.Background(), nil, false)
			if err != nil {
				t.Fatalf("FetchUpdates() error = %v", err)
			}
			if res.Outcome != OutcomeCompleted || res.Reported != nil {
				t.Errorf("FetchUpdates() = %+v, want completed with nothing reported", res)
			}
			if len(tr.streams) != 0 || tr.statusReads != 0 {
				t.Error("dispatcher ran for an empty fetch")
			}
			if out.String() != "no updates available to fetch\n" {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestFetchUpdatesDispatch(t *testing.T) {
	tr := &fakeTransport{
		fetch: &daemon.FetchResponse{UpdatesAvailable: true, Completed: 0, Total: 2},
		sessions: [][]*daemon.StreamEvent{{
			{Type: daemon.EventPackageFetching, Package: "mesa"},
			{Type: daemon.EventPackageFetched, Package: "mesa", Completed: 1, Total: 2},
			{Type: daemon.EventPackageUpgrade, Step: map[string]string{"event": "progress", "percent": "40"}},
			{Type: daemon.EventPackageUpgrade, Step: map[string]string{"event": "bogus"}},
			{Type: daemon.EventPackageUpgrade, Step: map[string]string{"event": "setting_up", "package": "mesa"}},
			{Type: daemon.EventPackageFetched, Package: "systemd", Completed: 2, Total: 2},
			resultEvent(daemon.EventPackageFetchResult, 0, ""),
			{Type: daemon.EventPackageFetching, Package: "never-printed"},
		}},
	}
	l, out := newTestListener(tr, nil)

	res, err := l.FetchUpdates(context.Background(), []string{"mesa"}, true)
	if err != nil {
		t.Fatalf("FetchUpdates() error = %v", err)
	}
	if res.Outcome != OutcomeCompleted || res.Failed() {
		t.Errorf("FetchUpdates() = %+v, want completed success", res)
	}

	want := strings.Join([]string{
		"fetching updates: 0 of 2 updates fetched",
		"Fetching mesa",
		"Fetched (1/2) mesa",
		"Progress: 40%",
		"Setting up mesa",
		"Fetched (2/2) systemd",
		"Package fetch status: cargo has been loaded successfully",
		"",
	}, "\n")
	if out.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestFetchUpdatesFailure(t *testing.T) {
	tr := &fakeTransport{
		fetch:    &daemon.FetchResponse{UpdatesAvailable: true, Total: 1},
		sessions: [][]*daemon.StreamEvent{{resultEvent(daemon.EventPackageFetchResult, 2, "mirror unreachable")}},
	}
	l, out := newTestListener(tr, nil)

	res, err := l.FetchUpdates(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("FetchUpdates() error = %v", err)
	}
	if !res.Failed() {
		t.Errorf("FetchUpdates() = %+v, want failed result", res)
	}
	if !strings.Contains(out.String(), "Package fetch status: package-fetching aborted: mirror unreachable") {
		t.Errorf("output = %q", out.String())
	}
}

func TestFetchUpdatesRequestError(t *testing.T) {
	tr := &fakeTransport{requestErr: daemon.NewServerError("fetch updates", "busy")}
	l, _ := newTestListener(tr, nil)

	_, err := l.FetchUpdates(context.Background(), nil, false)
	var serverErr *daemon.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("FetchUpdates() error = %v, want ServerError", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Error("daemon-reported request failure must not be a transport error")
	}
}
