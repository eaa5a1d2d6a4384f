// Package stream owns the push-channel lifecycle against the router: it
// dials the metrics websocket, decodes snapshot frames and feeds them into
// the rolling history store and the current-value state.
package stream

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/routerpulse/internal/history"
	"github.com/user/routerpulse/internal/model"
	"github.com/user/routerpulse/internal/util"
)

// Status is the state of the stream channel.
type Status int

const (
	StatusConnecting Status = iota
	StatusOpen
	StatusReconnecting
	StatusClosed
)

var statusNames = map[Status]string{
	StatusConnecting:   "connecting",
	StatusOpen:         "open",
	StatusReconnecting: "reconnecting",
	StatusClosed:       "closed",
}

// String returns the status name.
func (s Status) String() string {
	return statusNames[s]
}

// Conn is the subset of a websocket connection the client reads from.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

// Dialer opens a new stream connection. Injected so tests can drive the
// state machine without a network.
type Dialer func(ctx context.Context) (Conn, error)

// Frame is the wire envelope pushed by the router. Frames with a type other
// than "metrics" (pings, acks) are ignored.
type Frame struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Config holds stream connection settings.
type Config struct {
	RouterURL  string
	StreamPath string
	Token      string
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Client maintains the stream session. It is the only writer to the history
// store; views read current values and history through its accessors.
type Client struct {
	dial       Dialer
	history    *history.Store
	minBackoff time.Duration
	maxBackoff time.Duration

	mu         sync.RWMutex
	status     Status
	current    *model.MetricsSnapshot
	onSnapshot func(*model.MetricsSnapshot)

	closeOnce sync.Once
}

// NewClient creates a stream client dialing the router's metrics websocket.
func NewClient(cfg Config, store *history.Store) *Client {
	c := &Client{
		history:    store,
		minBackoff: cfg.MinBackoff,
		maxBackoff: cfg.MaxBackoff,
		status:     StatusConnecting,
	}
	if c.minBackoff <= 0 {
		c.minBackoff = time.Second
	}
	if c.maxBackoff < c.minBackoff {
		c.maxBackoff = 30 * time.Second
	}
	c.dial = websocketDialer(cfg)
	return c
}

// NewClientWithDialer creates a stream client with a custom dialer.
func NewClientWithDialer(dial Dialer, store *history.Store) *Client {
	return &Client{
		dial:       dial,
		history:    store,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
		status:     StatusConnecting,
	}
}

func websocketDialer(cfg Config) Dialer {
	return func(ctx context.Context) (Conn, error) {
		wsURL := strings.Replace(cfg.RouterURL, "http", "ws", 1) + cfg.StreamPath
		if cfg.Token != "" {
			wsURL += "?token=" + url.QueryEscape(cfg.Token)
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// OnSnapshot registers a callback invoked after each well-formed snapshot
// has been applied. Must be set before Run.
func (c *Client) OnSnapshot(fn func(*model.MetricsSnapshot)) {
	c.onSnapshot = fn
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Current returns the last received snapshot, or nil before the first frame.
func (c *Client) Current() *model.MetricsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusClosed {
		return
	}
	c.status = s
}

// Run drives the connect/receive/reconnect loop until ctx is cancelled.
// Cancellation is the explicit session teardown: it transitions to closed
// exactly once and clears the accumulated history. Transport errors only
// trigger a reconnect and never touch the history.
func (c *Client) Run(ctx context.Context) {
	defer c.teardown()

	backoff := c.minBackoff
	opened := false

	for {
		if ctx.Err() != nil {
			return
		}

		// Reconnecting is only reachable from an open channel; until the
		// first successful open every attempt reports connecting.
		if opened {
			c.setStatus(StatusReconnecting)
		} else {
			c.setStatus(StatusConnecting)
		}

		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			util.Warn("Stream dial failed: %v (retrying in %v)", err, backoff)
			if !sleep(ctx, backoff) {
				return
			}
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
			continue
		}

		c.setStatus(StatusOpen)
		backoff = c.minBackoff
		opened = true

		c.readLoop(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		util.Info("Stream connection lost, reconnecting")
	}
}

func (c *Client) readLoop(ctx context.Context, conn Conn) {
	// Closing the conn on cancellation unblocks ReadMessage.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		snapshot, err := decodeFrame(data)
		if err != nil {
			// Malformed frame: drop it and keep the session alive.
			util.Warn("Dropping undecodable frame: %v", err)
			continue
		}
		if snapshot == nil {
			continue
		}
		c.apply(snapshot)
	}
}

func decodeFrame(data []byte) (*model.MetricsSnapshot, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}
	if frame.Type != "metrics" {
		return nil, nil
	}

	var snapshot model.MetricsSnapshot
	if err := json.Unmarshal(frame.Data, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = frame.Timestamp
	}
	return &snapshot, nil
}

// apply publishes one snapshot: current projections are replaced wholesale
// (last-write-wins) and every interface present in the snapshot is appended
// to its rolling buffer. Interfaces absent from the snapshot are untouched.
func (c *Client) apply(snapshot *model.MetricsSnapshot) {
	c.mu.Lock()
	c.current = snapshot
	c.mu.Unlock()

	c.history.AppendAll(snapshot.Interfaces)

	if c.onSnapshot != nil {
		c.onSnapshot(snapshot)
	}
}

func (c *Client) teardown() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.status = StatusClosed
		c.current = nil
		c.mu.Unlock()
		c.history.Clear()
		util.Info("Stream session closed")
	})
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
