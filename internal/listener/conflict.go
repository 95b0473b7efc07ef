package listener

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/prompt"
	"github.com/tessro/pop-upgrade/internal/style"
)

const (
	reasonWidth  = 72
	reasonIndent = 8
)

// RepoDecision maps a repository URL to whether it is kept (true) or
// dropped (false) for the upgrade.
type RepoDecision map[string]bool

// ResolveConflicts prints the repository compatibility report and asks,
// for every failed repository, whether to keep it. Every answer is
// collected before the decision is returned; the daemon applies the set
// as a whole.
func ResolveConflicts(w io.Writer, asker prompt.Asker, succeeded []string, failed []daemon.RepoFailure) RepoDecision {
	fmt.Fprintln(w, style.Primary("Incompatible repositories detected:"))

	for _, f := range failed {
		fmt.Fprintf(w, "    %s: %s:\n", style.Error("Error"), style.Secondary(f.URL))
		fmt.Fprintln(w, indent.String(wordwrap.String(f.Why, reasonWidth), reasonIndent))
	}

	for _, url := range succeeded {
		fmt.Fprintf(w, "    %s: %s\n", style.Primary("Success"), style.Secondary(url))
	}

	fmt.Fprintln(w, style.Primary("Requesting user input:"))

	decisions := make(RepoDecision, len(failed))
	for _, f := range failed {
		question := fmt.Sprintf("%s (%s)?", style.Primary("Keep repository"), style.Secondary(f.URL))
		keep := asker.Ask("    "+prompt.YesNo(question, false), false)
		decisions[f.URL] = keep
		slog.Debug("repository decision", "url", f.URL, "keep", keep)
	}

	return decisions
}
