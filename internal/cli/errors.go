package cli

import (
	"errors"
	"fmt"

	"github.com/tessro/pop-upgrade/internal/listener"
)

// ErrAborted is returned when the operator declined to retry an upgrade.
var ErrAborted = errors.New("upgrade aborted: retry declined")

// OperationFailedError is returned after the daemon reported a failed
// operation. The result line has already been printed.
type OperationFailedError struct {
	Kind listener.OperationKind
	Code uint8
	Why  string
}

func (e *OperationFailedError) Error() string {
	return fmt.Sprintf("%s failed with code %d: %s", e.Kind, e.Code, e.Why)
}

// IsReported reports whether err was already shown to the operator.
func IsReported(err error) bool {
	var opErr *OperationFailedError
	return errors.As(err, &opErr)
}

// checkResult turns a printed failure into an error so the process exits non-zero.
func checkResult(kind listener.OperationKind, res listener.Result, err error) error {
	if err != nil {
		if errors.Is(err, listener.ErrTransport) {
			return fmt.Errorf("lost contact with the daemon: %w", err)
		}
		return err
	}
	if res.Outcome == listener.OutcomeAborted {
		return ErrAborted
	}
	if res.Failed() {
		return &OperationFailedError{Kind: kind, Code: res.Reported.Code, Why: res.Reported.Why}
	}
	return nil
}
