// Package daemon provides the pop-upgrade daemon IPC protocol and client.
package daemon

import "time"

// MessageType identifies the type of IPC message.
type MessageType string

const (
	// Server management
	MsgPing   MessageType = "ping"
	MsgStatus MessageType = "status" // Coarse daemon status and sub-status

	// Package fetching
	MsgFetchUpdates MessageType = "fetch.updates"

	// Recovery partition
	MsgRecoveryUpgradeRelease MessageType = "recovery.upgrade_release"
	MsgRecoveryUpgradeFile    MessageType = "recovery.upgrade_file"
	MsgRecoveryVersion        MessageType = "recovery.version"

	// Release upgrades
	MsgReleaseCheck    MessageType = "release.check"
	MsgReleaseUpgrade  MessageType = "release.upgrade"
	MsgReleaseFinalize MessageType = "release.finalize"
	MsgReleaseRepair   MessageType = "release.repair"
	MsgRefreshOS       MessageType = "release.refresh"
	MsgDismiss         MessageType = "release.dismiss"
	MsgRepoModify      MessageType = "repo.modify"

	// Event streaming
	MsgAttach MessageType = "attach" // Subscribe to the daemon's event stream
)

// Request is the envelope for all IPC requests.
type Request struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id,omitempty"`      // Optional request ID for correlation
	Payload any         `json:"payload,omitempty"` // Type-specific payload
}

// Response is the envelope for all IPC responses.
type Response struct {
	Type    MessageType `json:"type"`
	ID      string      `json:"id,omitempty"` // Correlates with request ID
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Payload any         `json:"payload,omitempty"` // Type-specific payload
}

// PingResponse is the payload for ping responses.
type PingResponse struct {
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
}

// DaemonStatus is the daemon's coarse state. At most one non-inactive
// status is active at a time.
type DaemonStatus uint8

const (
	StatusInactive DaemonStatus = iota
	StatusFetchingPackages
	StatusRecoveryUpgrade
	StatusReleaseUpgrade
)

func (s DaemonStatus) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusFetchingPackages:
		return "fetching package updates"
	case StatusRecoveryUpgrade:
		return "upgrading recovery partition"
	case StatusReleaseUpgrade:
		return "upgrading distribution release"
	default:
		return "unknown status"
	}
}

// OperationResult is the terminal outcome of a daemon operation.
// Code 0 is success; Why explains a nonzero code.
type OperationResult struct {
	Code uint8  `json:"code"`
	Why  string `json:"why,omitempty"`
}

// StatusResponse is the payload for status responses.
type StatusResponse struct {
	Status    DaemonStatus `json:"status"`
	SubStatus uint8        `json:"sub_status"`
	// Result is set once the daemon has a terminal result for Status.
	Result *OperationResult `json:"result,omitempty"`
}

// SubStatusLabel renders the sub-status in the vocabulary of the status.
// Returns "" for statuses without a sub-status vocabulary.
func (s *StatusResponse) SubStatusLabel() string {
	switch s.Status {
	case StatusReleaseUpgrade:
		return UpgradeEvent(s.SubStatus).String()
	case StatusRecoveryUpgrade:
		return RecoveryEvent(s.SubStatus).String()
	default:
		return ""
	}
}

// RecoveryEvent is a recovery partition upgrade transition.
type RecoveryEvent uint8

const (
	RecoveryFetching RecoveryEvent = iota + 1
	RecoveryVerifying
	RecoverySyncing
	RecoveryComplete
)

func (e RecoveryEvent) String() string {
	switch e {
	case RecoveryFetching:
		return "fetching recovery files"
	case RecoveryVerifying:
		return "verifying checksums of fetched files"
	case RecoverySyncing:
		return "syncing recovery files with recovery partition"
	case RecoveryComplete:
		return "recovery partition upgrade completed"
	default:
		return "unknown sub_status"
	}
}

// UpgradeEvent is a release upgrade transition.
type UpgradeEvent uint8

const (
	UpgradeUpdatingPackageLists UpgradeEvent = iota + 1
	UpgradeFetchingPackages
	UpgradeUpgradingPackages
	UpgradeInstallingPackages
	UpgradeUpdatingSourceLists
	UpgradeFetchingPackagesForNewRelease
	UpgradeAttemptingLiveUpgrade
	UpgradeAttemptingSystemdUnit
	UpgradeAttemptingRecovery
	UpgradeSuccess
	UpgradeSuccessLive
	UpgradeFailure
	UpgradeDisablingApt
	UpgradeSimulating
)

var upgradeEventLabels = map[UpgradeEvent]string{
	UpgradeUpdatingPackageLists:          "updating package lists for the current release",
	UpgradeFetchingPackages:              "fetching updated packages for the current release",
	UpgradeUpgradingPackages:             "upgrading packages for the current release",
	UpgradeInstallingPackages:            "ensuring that system-critical packages are installed",
	UpgradeUpdatingSourceLists:           "updating the source lists to the new release",
	UpgradeFetchingPackagesForNewRelease: "fetching packages for the new release",
	UpgradeAttemptingLiveUpgrade:         "attempting live upgrade to the new release",
	UpgradeAttemptingSystemdUnit:         "setting up the system to perform an offline upgrade on the next boot",
	UpgradeAttemptingRecovery:            "setting up the recovery partition to install the new release",
	UpgradeSuccess:                       "new release is ready to install",
	UpgradeSuccessLive:                   "new release was successfully installed",
	UpgradeFailure:                       "an error occurred while setting up the release upgrade",
	UpgradeDisablingApt:                  "disabling apt sources",
	UpgradeSimulating:                    "simulating upgrade",
}

func (e UpgradeEvent) String() string {
	if label, ok := upgradeEventLabels[e]; ok {
		return label
	}
	return "unknown sub_status"
}

// UpgradeMethod selects how the daemon applies a release upgrade.
type UpgradeMethod uint8

const (
	// UpgradeOffline stages the upgrade for a systemd offline update on next boot.
	UpgradeOffline UpgradeMethod = 1
	// UpgradeRecovery installs the new release from the recovery partition.
	UpgradeRecovery UpgradeMethod = 2
)

func (m UpgradeMethod) String() string {
	switch m {
	case UpgradeOffline:
		return "offline"
	case UpgradeRecovery:
		return "recovery"
	default:
		return "unknown"
	}
}

// RecoveryFlags modify a recovery-from-release upgrade.
type RecoveryFlags uint8

// RecoveryNext fetches the next release's image rather than the current one.
const RecoveryNext RecoveryFlags = 1

// RefreshOp controls the refresh-on-next-boot setting.
type RefreshOp uint8

const (
	RefreshStatus RefreshOp = iota
	RefreshEnable
	RefreshDisable
)

// DismissEvent records why an upgrade notification was dismissed.
type DismissEvent uint8

const (
	DismissByTimestamp DismissEvent = 1
	DismissByUser      DismissEvent = 2
)

// FetchUpdatesRequest is the payload for fetch.updates requests.
type FetchUpdatesRequest struct {
	Packages     []string `json:"packages,omitempty"` // Extra packages to fetch
	DownloadOnly bool     `json:"download_only,omitempty"`
}

// FetchResponse is the payload for fetch.updates responses.
type FetchResponse struct {
	UpdatesAvailable bool   `json:"updates_available"`
	Completed        uint32 `json:"completed"`
	Total            uint32 `json:"total"`
}

// RecoveryUpgradeReleaseRequest is the payload for recovery.upgrade_release requests.
type RecoveryUpgradeReleaseRequest struct {
	Version string        `json:"version,omitempty"` // Empty selects the current release
	Arch    string        `json:"arch,omitempty"`
	Flags   RecoveryFlags `json:"flags,omitempty"`
}

// RecoveryUpgradeFileRequest is the payload for recovery.upgrade_file requests.
type RecoveryUpgradeFileRequest struct {
	Path string `json:"path"`
}

// RecoveryVersionResponse is the payload for recovery.version responses.
type RecoveryVersionResponse struct {
	Version string `json:"version" yaml:"version"`
	Build   int16  `json:"build" yaml:"build"`
}

// ReleaseCheckRequest is the payload for release.check requests.
type ReleaseCheckRequest struct {
	ForceNext bool `json:"force_next,omitempty"`
}

// ReleaseCheckResponse is the payload for release.check responses.
type ReleaseCheckResponse struct {
	Current string `json:"current" yaml:"current"`
	Next    string `json:"next" yaml:"next"`
	Build   int16  `json:"build" yaml:"build"`   // Negative when no new release is available
	Urgent  int64  `json:"urgent" yaml:"urgent"` // Unix time of an urgent recovery ISO, -1 if none
	IsLTS   bool   `json:"is_lts" yaml:"is_lts"`
}

// Available reports whether a new release build exists.
func (r *ReleaseCheckResponse) Available() bool {
	return r.Build >= 0
}

// ReleaseUpgradeRequest is the payload for release.upgrade requests.
type ReleaseUpgradeRequest struct {
	Method UpgradeMethod `json:"method"`
	From   string        `json:"from"`
	To     string        `json:"to"`
}

// RefreshRequest is the payload for release.refresh requests.
type RefreshRequest struct {
	Op RefreshOp `json:"op"`
}

// RefreshResponse is the payload for release.refresh responses.
type RefreshResponse struct {
	Enabled bool `json:"enabled"`
}

// DismissRequest is the payload for release.dismiss requests.
type DismissRequest struct {
	Event DismissEvent `json:"event"`
}

// RepoModifyRequest is the payload for repo.modify requests.
// Decisions map a repository URL to whether it is kept.
type RepoModifyRequest struct {
	Decisions map[string]bool `json:"decisions"`
}

// AttachRequest is the payload for attach requests.
type AttachRequest struct {
	Session string `json:"session,omitempty"` // Client-chosen subscription ID for daemon logs
}

// EventType tags a StreamEvent.
type EventType string

const (
	EventPackageFetching    EventType = "package.fetching"
	EventPackageFetched     EventType = "package.fetched"
	EventPackageFetchResult EventType = "package.fetch_result"
	EventPackageUpgrade     EventType = "package.upgrade"
	EventRecoveryProgress   EventType = "recovery.download_progress"
	EventRecoveryEvent      EventType = "recovery.event"
	EventRecoveryResult     EventType = "recovery.result"
	EventReleaseEvent       EventType = "release.event"
	EventReleaseResult      EventType = "release.result"
	EventNoConnection       EventType = "no_connection"
	EventRepoCompatError    EventType = "repo_compat_error"
)

// RepoFailure is a repository that is incompatible with the target release.
type RepoFailure struct {
	URL string `json:"url"`
	Why string `json:"why"`
}

// StreamEvent is sent to attached clients while an operation runs.
// Which fields are set depends on Type.
type StreamEvent struct {
	Type EventType `json:"type"`

	// package.fetching, package.fetched
	Package   string `json:"package,omitempty"`
	Completed uint32 `json:"completed,omitempty"`
	Total     uint32 `json:"total,omitempty"`

	// package.upgrade: raw package manager step
	Step map[string]string `json:"step,omitempty"`

	// recovery.download_progress, in KiB
	Progress     uint64 `json:"progress,omitempty"`
	ProgressSize uint64 `json:"progress_total,omitempty"`

	// recovery.event, release.event
	Code uint8 `json:"code,omitempty"`

	// *.result
	Result *OperationResult `json:"result,omitempty"`

	// repo_compat_error
	Succeeded []string      `json:"succeeded,omitempty"`
	Failed    []RepoFailure `json:"failed,omitempty"`
}
