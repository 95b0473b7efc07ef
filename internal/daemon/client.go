package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tessro/pop-upgrade/internal/logging"
)

// Client connects to the pop-upgrade daemon over Unix socket.
type Client struct {
	socketPath string

	mu sync.Mutex
	// +checklocks:mu
	conn net.Conn
	// +checklocks:mu
	encoder *json.Encoder
	// +checklocks:mu
	decoder *json.Decoder

	// ioMu serializes request/response cycles on the main connection.
	// Must be acquired AFTER mu if both are needed.
	ioMu sync.Mutex

	reqID atomic.Uint64

	// Event streaming via dedicated connection
	eventMu sync.Mutex
	// +checklocks:eventMu
	eventConn net.Conn
	// +checklocks:eventMu
	eventDone chan struct{}
}

// NewClient creates a new daemon client.
func NewClient(socketPath string) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	return &Client{
		socketPath: socketPath,
	}
}

// ConnectTimeout is the default timeout for connecting to the daemon.
const ConnectTimeout = 5 * time.Second

// RequestTimeout bounds a single request/response cycle. Requests only
// start or query operations; the event stream itself has no deadline.
const RequestTimeout = 2 * time.Minute

// Connect establishes a connection to the daemon.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil // Already connected
	}

	conn, err := net.DialTimeout("unix", c.socketPath, ConnectTimeout)
	if err != nil {
		return fmt.Errorf("dial daemon: %w", err)
	}

	c.conn = conn
	c.encoder = json.NewEncoder(conn)
	c.decoder = json.NewDecoder(conn)
	return nil
}

// Close closes the connection to the daemon.
func (c *Client) Close() error {
	c.StopEventStream()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	c.encoder = nil
	c.decoder = nil
	return err
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SocketPath returns the socket path this client connects to.
func (c *Client) SocketPath() string {
	return c.socketPath
}

func (c *Client) nextID() string {
	return fmt.Sprintf("req-%d", c.reqID.Add(1))
}

// decodePayload decodes the response payload into the given type.
// If payload is nil, returns a pointer to the zero value of T.
func decodePayload[T any](payload any) (*T, error) {
	var result T
	if payload == nil {
		return &result, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &result, nil
}

// DecodePayload decodes a request or response payload into T.
// Stub daemons use it to read typed request payloads.
func DecodePayload[T any](payload any) (*T, error) {
	return decodePayload[T](payload)
}

// Send sends a request and waits for the response.
// On connection errors, the connection is closed so that IsConnected() returns false.
func (c *Client) Send(req *Request) (*Response, error) {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	conn := c.conn
	encoder := c.encoder
	decoder := c.decoder
	c.mu.Unlock()

	if req.ID == "" {
		req.ID = c.nextID()
	}

	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	if err := conn.SetDeadline(time.Now().Add(RequestTimeout)); err != nil {
		c.closeConn()
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	defer func() { _ = conn.SetDeadline(time.Time{}) }()

	if err := encoder.Encode(req); err != nil {
		c.closeConn()
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var resp Response
	if err := decoder.Decode(&resp); err != nil {
		c.closeConn()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	slog.Debug("daemon request", "type", req.Type, "id", req.ID, "success", resp.Success)
	return &resp, nil
}

// closeConn closes the main connection and clears connection state.
// Caller must NOT hold c.mu.
func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.encoder = nil
		c.decoder = nil
	}
}

// call sends a request whose response carries no payload.
func (c *Client) call(op string, msg MessageType, payload any) error {
	resp, err := c.Send(&Request{Type: msg, Payload: payload})
	if err != nil {
		return err
	}
	if !resp.Success {
		return NewServerError(op, resp.Error)
	}
	return nil
}

// query sends a request and decodes its response payload into T.
func query[T any](c *Client, op string, msg MessageType, payload any) (*T, error) {
	resp, err := c.Send(&Request{Type: msg, Payload: payload})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, NewServerError(op, resp.Error)
	}
	return decodePayload[T](resp.Payload)
}

// Ping checks daemon connectivity.
func (c *Client) Ping() (*PingResponse, error) {
	return query[PingResponse](c, "ping", MsgPing, nil)
}

// Status returns the daemon's current coarse status. It never waits for a
// transition.
func (c *Client) Status() (*StatusResponse, error) {
	return query[StatusResponse](c, "status", MsgStatus, nil)
}

// FetchUpdates asks the daemon to fetch pending package updates plus any
// extra packages.
func (c *Client) FetchUpdates(packages []string, downloadOnly bool) (*FetchResponse, error) {
	return query[FetchResponse](c, "fetch updates", MsgFetchUpdates,
		FetchUpdatesRequest{Packages: packages, DownloadOnly: downloadOnly})
}

// RecoveryUpgradeRelease refreshes the recovery partition from a release image.
// Empty version and arch select the daemon's defaults.
func (c *Client) RecoveryUpgradeRelease(version, arch string, flags RecoveryFlags) error {
	return c.call("recovery upgrade", MsgRecoveryUpgradeRelease,
		RecoveryUpgradeReleaseRequest{Version: version, Arch: arch, Flags: flags})
}

// RecoveryUpgradeFile refreshes the recovery partition from a local ISO.
func (c *Client) RecoveryUpgradeFile(path string) error {
	return c.call("recovery upgrade", MsgRecoveryUpgradeFile, RecoveryUpgradeFileRequest{Path: path})
}

// RecoveryVersion reports the version installed on the recovery partition.
func (c *Client) RecoveryVersion() (*RecoveryVersionResponse, error) {
	return query[RecoveryVersionResponse](c, "recovery version", MsgRecoveryVersion, nil)
}

// ReleaseCheck asks the daemon whether a new release is available.
func (c *Client) ReleaseCheck(forceNext bool) (*ReleaseCheckResponse, error) {
	return query[ReleaseCheckResponse](c, "release check", MsgReleaseCheck, ReleaseCheckRequest{ForceNext: forceNext})
}

// ReleaseUpgrade starts, or restarts, a release upgrade from one version to another.
func (c *Client) ReleaseUpgrade(method UpgradeMethod, from, to string) error {
	return c.call("release upgrade", MsgReleaseUpgrade, ReleaseUpgradeRequest{Method: method, From: from, To: to})
}

// ReleaseUpgradeFinalize commits a completed release upgrade.
func (c *Client) ReleaseUpgradeFinalize() error {
	return c.call("release finalize", MsgReleaseFinalize, nil)
}

// ReleaseRepair asks the daemon to repair package sources for the current release.
func (c *Client) ReleaseRepair() error {
	return c.call("release repair", MsgReleaseRepair, nil)
}

// RefreshOS enables, disables, or queries booting into the refresh installer.
func (c *Client) RefreshOS(op RefreshOp) (*RefreshResponse, error) {
	return query[RefreshResponse](c, "refresh", MsgRefreshOS, RefreshRequest{Op: op})
}

// DismissNotification records that upgrade notifications should stop.
func (c *Client) DismissNotification(event DismissEvent) error {
	return c.call("dismiss", MsgDismiss, DismissRequest{Event: event})
}

// RepoModify applies keep/drop decisions for repositories as one set.
func (c *Client) RepoModify(decisions map[string]bool) error {
	return c.call("repo modify", MsgRepoModify, RepoModifyRequest{Decisions: decisions})
}

// EventResult contains either a stream event or an error.
type EventResult struct {
	Event *StreamEvent
	Err   error
}

// StreamEvents opens a dedicated connection for event streaming and returns a channel.
// Events are received on the channel in daemon order until an error occurs or
// StopEventStream is called. There is no read deadline: upgrades are long running.
func (c *Client) StreamEvents() (<-chan EventResult, error) {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()

	// Close any existing event stream
	if c.eventConn != nil {
		c.eventConn.Close()
		if c.eventDone != nil {
			close(c.eventDone)
		}
		c.eventConn = nil
		c.eventDone = nil
	}

	conn, err := net.DialTimeout("unix", c.socketPath, ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial daemon for events: %w", err)
	}

	encoder := json.NewEncoder(conn)
	decoder := json.NewDecoder(conn)

	session := uuid.NewString()
	req := &Request{
		ID:      "event-stream",
		Type:    MsgAttach,
		Payload: AttachRequest{Session: session},
	}
	if err := encoder.Encode(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("encode attach request: %w", err)
	}

	var resp Response
	if err := decoder.Decode(&resp); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode attach response: %w", err)
	}
	if !resp.Success {
		conn.Close()
		return nil, NewServerError("attach", resp.Error)
	}

	slog.Debug("event stream attached", "session", session)

	c.eventConn = conn
	c.eventDone = make(chan struct{})
	done := c.eventDone

	// Unbuffered: the reader stays one event ahead of the consumer at most.
	events := make(chan EventResult)

	go func() {
		defer logging.LogPanic("event-stream", nil)
		defer close(events)
		defer conn.Close()

		for {
			var event StreamEvent
			if err := decoder.Decode(&event); err != nil {
				if errors.Is(err, io.EOF) {
					err = ErrStreamClosed
				} else {
					err = fmt.Errorf("decode event: %w", err)
				}
				select {
				case <-done:
					// Clean shutdown, don't send error
				case events <- EventResult{Err: err}:
				}
				return
			}

			select {
			case <-done:
				return
			case events <- EventResult{Event: &event}:
			}
		}
	}()

	return events, nil
}

// StopEventStream stops the event streaming goroutine and closes the event connection.
func (c *Client) StopEventStream() {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()

	if c.eventDone != nil {
		close(c.eventDone)
		c.eventDone = nil
	}
	if c.eventConn != nil {
		c.eventConn.Close()
		c.eventConn = nil
	}
}
