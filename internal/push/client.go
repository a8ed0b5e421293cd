package push

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"

	"kingo/internal/logger"
)

// sendBuffer bounds how many pending frames a slow client can accumulate
// before trySend starts dropping them.
const sendBuffer = 32

// JobCanceller is the subset of JobService the cancel_job message needs.
type JobCanceller interface {
	DeleteJob(ctx context.Context, jobID string) error
}

// Client wraps one live connection: its outbound frame queue and the set
// of job rooms it currently belongs to.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	jobs JobCanceller

	send chan map[string]any

	mu    sync.Mutex
	rooms map[string]struct{}
}

func newClient(id string, conn *websocket.Conn, hub *Hub, jobs JobCanceller) *Client {
	return &Client{
		id:    id,
		conn:  conn,
		hub:   hub,
		jobs:  jobs,
		send:  make(chan map[string]any, sendBuffer),
		rooms: make(map[string]struct{}),
	}
}

// trySend enqueues payload for delivery, dropping it if the client's
// buffer is already full rather than blocking the broadcaster.
func (c *Client) trySend(payload map[string]any) {
	select {
	case c.send <- payload:
	default:
		logger.Log.Warn().Str("client_id", c.id).Msg("push client send buffer full, dropping frame")
	}
}

// writeLoop drains send and writes each frame as a JSON text message until
// the connection closes.
func (c *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			data, err := json.Marshal(payload)
			if err != nil {
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// readLoop parses each inbound frame and dispatches it to the real-time
// protocol's client->server handlers, per §4.6/§6.
func (c *Client) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var msg struct {
			Type  string `json:"type"`
			JobID string `json:"job_id"`
			TS    int64  `json:"ts"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			c.trySend(map[string]any{"type": "error", "message": "malformed message"})
			continue
		}
		switch msg.Type {
		case "subscribe_job":
			c.subscribe(msg.JobID)
		case "unsubscribe_job":
			c.unsubscribe(msg.JobID)
		case "ping":
			c.trySend(map[string]any{"type": "pong", "timestamp": msg.TS})
		case "cancel_job":
			c.cancelJob(ctx, msg.JobID)
		default:
			c.trySend(map[string]any{"type": "error", "message": "unknown message type"})
		}
	}
}

func (c *Client) subscribe(jobID string) {
	if jobID == "" {
		c.trySend(map[string]any{"type": "error", "message": "job_id is required"})
		return
	}
	c.mu.Lock()
	c.rooms[jobID] = struct{}{}
	c.mu.Unlock()
	c.hub.join(jobID, c)
	c.trySend(map[string]any{"type": "subscribed", "job_id": jobID})
}

func (c *Client) unsubscribe(jobID string) {
	c.mu.Lock()
	delete(c.rooms, jobID)
	c.mu.Unlock()
	c.hub.leave(jobID, c)
	c.trySend(map[string]any{"type": "unsubscribed", "job_id": jobID})
}

// cancelJob calls JobService.DeleteJob; the resulting JobCancelledEvent
// flows through the event bus to the hub's own EmitCancelled, so this
// handler does not broadcast directly — it would otherwise double-send.
func (c *Client) cancelJob(ctx context.Context, jobID string) {
	if jobID == "" {
		c.trySend(map[string]any{"type": "error", "message": "job_id is required"})
		return
	}
	if err := c.jobs.DeleteJob(ctx, jobID); err != nil {
		c.trySend(map[string]any{"type": "error", "message": "could not cancel job"})
	}
}

// close removes c from every room it joined. The send channel is left for
// the garbage collector rather than closed — trySend may still be called
// concurrently by an in-flight broadcast, and sending on a closed channel
// would panic.
func (c *Client) close() {
	c.hub.leaveAll(c)
}
