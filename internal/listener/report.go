package listener

import (
	"fmt"

	"github.com/tessro/pop-upgrade/internal/daemon"
	"github.com/tessro/pop-upgrade/internal/style"
)

// FormatResult renders the one-line summary of a terminal result.
// The reason is only shown for failures.
func FormatResult(code uint8, h Headlines, why string) string {
	if code == 0 {
		return fmt.Sprintf("%s: %s", style.Info(h.Label), style.Primary(h.Success))
	}
	return fmt.Sprintf("%s: %s: %s", style.Info(h.Label), style.Error(h.Failure), style.ErrorDesc(why))
}

// report prints res with the headlines of kind.
func (l *Listener) report(kind OperationKind, res *daemon.OperationResult) {
	l.println(FormatResult(res.Code, kind.Headlines(), res.Why))
}
