package listener

import "github.com/tessro/pop-upgrade/internal/daemon"

// OperationKind selects the daemon operation a session follows.
type OperationKind int

const (
	FetchUpdates OperationKind = iota
	RecoveryUpgrade
	ReleaseUpgrade
)

func (k OperationKind) String() string {
	switch k {
	case FetchUpdates:
		return "fetch-updates"
	case RecoveryUpgrade:
		return "recovery-upgrade"
	case ReleaseUpgrade:
		return "release-upgrade"
	default:
		return "unknown"
	}
}

// DaemonStatus is the status the daemon reports while running this operation.
func (k OperationKind) DaemonStatus() daemon.DaemonStatus {
	switch k {
	case FetchUpdates:
		return daemon.StatusFetchingPackages
	case RecoveryUpgrade:
		return daemon.StatusRecoveryUpgrade
	case ReleaseUpgrade:
		return daemon.StatusReleaseUpgrade
	default:
		return daemon.StatusInactive
	}
}

// Headlines are the fixed strings of a result line.
type Headlines struct {
	Label   string
	Success string
	Failure string
}

var headlines = map[OperationKind]Headlines{
	FetchUpdates: {
		Label:   "Package fetch status",
		Success: "cargo has been loaded successfully",
		Failure: "package-fetching aborted",
	},
	RecoveryUpgrade: {
		Label:   "Recovery upgrade status",
		Success: "recovery partition refueled and ready to go",
		Failure: "recovery upgrade aborted",
	},
	ReleaseUpgrade: {
		Label:   "Release upgrade status",
		Success: "systems are go for launch: reboot now",
		Failure: "release upgrade aborted",
	},
}

// Headlines returns the result-line strings for the operation.
func (k OperationKind) Headlines() Headlines {
	return headlines[k]
}
