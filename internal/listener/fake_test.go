package listener

import (
	"strings"
	"sync"

	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/prompt"
)

// fakeTransport is a scripted daemon. Each StreamEvents call serves the
// next queued session and then closes the channel, unless hold is set.
type fakeTransport struct {
	mu sync.Mutex

	status    *daemon.StatusResponse
	statusErr error
	fetch     *daemon.FetchResponse

	sessions  [][]*daemon.StreamEvent
	streamErr error
	hold      bool

	// streamOverride, if set, is served instead of the queued sessions.
	streamOverride chan daemon.EventResult

	requestErr  error
	repoErr     error
	finalizeErr error

	calls       []string
	decisions   []map[string]bool
	streams     []chan daemon.EventResult
	stops       int
	statusReads int
}

func (f *fakeTransport) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeTransport) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeTransport) Status() (*daemon.StatusResponse, error) {
	f.mu.Lock()
	f.statusReads++
	f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if f.status == nil {
		return &daemon.StatusResponse{Status: daemon.StatusInactive}, nil
	}
	return f.status, nil
}

func (f *fakeTransport) FetchUpdates(packages []string, downloadOnly bool) (*daemon.FetchResponse, error) {
	f.record("fetch.updates")
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	if f.fetch == nil {
		return &daemon.FetchResponse{}, nil
	}
	return f.fetch, nil
}

func (f *fakeTransport) RecoveryUpgradeRelease(version, arch string, flags daemon.RecoveryFlags) error {
	f.record("recovery.upgrade_release")
	return f.requestErr
}

func (f *fakeTransport) RecoveryUpgradeFile(path string) error {
	f.record("recovery.upgrade_file")
	return f.requestErr
}

func (f *fakeTransport) ReleaseUpgrade(method daemon.UpgradeMethod, from, to string) error {
	f.record("release.upgrade " + from + "->" + to)
	return f.requestErr
}

func (f *fakeTransport) ReleaseUpgradeFinalize() error {
	f.record("release.finalize")
	return f.finalizeErr
}

func (f *fakeTransport) RepoModify(decisions map[string]bool) error {
	f.record("repo.modify")
	f.mu.Lock()
	f.decisions = append(f.decisions, decisions)
	f.mu.Unlock()
	return f.repoErr
}

func (f *fakeTransport) StreamEvents() (<-chan daemon.EventResult, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.streamOverride != nil {
		f.streams = append(f.streams, f.streamOverride)
		return f.streamOverride, nil
	}

	var events []*daemon.StreamEvent
	if len(f.sessions) > 0 {
		events = f.sessions[0]
		f.sessions = f.sessions[1:]
	}

	ch := make(chan daemon.EventResult, len(events))
	for _, ev := range events {
		ch <- daemon.EventResult{Event: ev}
	}
	if !f.hold {
		close(ch)
	}
	f.streams = append(f.streams, ch)
	return ch, nil
}

func (f *fakeTransport) StopEventStream() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

// scripted answers questions by matching a substring of the message.
// Unmatched questions get the default.
type scripted struct {
	answers map[string]bool
	asked   []string
}

func (s *scripted) Ask(message string, def bool) bool {
	s.asked = append(s.asked, message)
	for substr, answer := range s.answers {
		if strings.Contains(message, substr) {
			return answer
		}
	}
	return def
}

var _ prompt.Asker = (*scripted)(nil)

func result(code uint8, why string) *daemon.OperationResult {
	return &daemon.OperationResult{Code: code, Why: why}
}

func ev(typ daemon.EventType) *daemon.StreamEvent {
	return &daemon.StreamEvent{Type: typ}
}

func resultEvent(typ daemon.EventType, code uint8, why string) *daemon.StreamEvent {
	return &daemon.StreamEvent{Type: typ, Result: result(code, why)}
}
