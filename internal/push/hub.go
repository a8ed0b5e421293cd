// Package push implements the real-time client-push layer (§4.6): clients
// open a persistent bidirectional channel, subscribe to a job's room, and
// receive job_progress/job_completed/job_failed/job_cancelled frames.
// Rooms are kept in-process, the way the teacher kept Wails event listeners
// in-process — there is no cross-replica fan-out here, matching the KV
// store (not the push layer) being the system of record.
package push

import (
	"sync"

	"kingo/internal/logger"
)

// Hub owns room membership: job id -> subscribed clients. It implements
// handlers.Pusher so the event bus can drive it directly.
type Hub struct {
	enabled bool

	mu    sync.Mutex
	rooms map[string]map[*Client]struct{}
}

// NewHub constructs a Hub. enabled=false makes every Emit* call a silent
// no-op, per §4.6's "silently no-op if the push layer is disabled".
func NewHub(enabled bool) *Hub {
	return &Hub{enabled: enabled, rooms: make(map[string]map[*Client]struct{})}
}

// join adds c to jobID's room.
func (h *Hub) join(jobID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[jobID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[jobID] = room
	}
	room[c] = struct{}{}
}

// leave removes c from jobID's room, pruning the room if left empty.
func (h *Hub) leave(jobID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[jobID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, jobID)
	}
}

// leaveAll removes c from every room it belongs to, called when a
// connection closes.
func (h *Hub) leaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for jobID, room := range h.rooms {
		if _, ok := room[c]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, jobID)
			}
		}
	}
}

// broadcast fans payload out to every client subscribed to jobID. For a
// client whose send buffer is full the frame is dropped (the client stays
// subscribed) rather than blocking the whole room — a slow reader must not
// stall progress delivery to others.
func (h *Hub) broadcast(jobID string, payload map[string]any) {
	h.mu.Lock()
	room := h.rooms[jobID]
	targets := make([]*Client, 0, len(room))
	for c := range room {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.trySend(payload)
	}
}

// EmitProgress implements handlers.Pusher.
func (h *Hub) EmitProgress(jobID string, progress map[string]any) {
	h.emit(jobID, map[string]any{
		"type":     "job_progress",
		"job_id":   jobID,
		"progress": progress,
	})
}

// EmitCompleted implements handlers.Pusher.
func (h *Hub) EmitCompleted(jobID, downloadURL, expireAt string, hasExpireAt bool) {
	payload := map[string]any{
		"type":         "job_completed",
		"job_id":       jobID,
		"status":       "completed",
		"download_url": downloadURL,
	}
	if hasExpireAt {
		payload["expire_at"] = expireAt
	}
	h.emit(jobID, payload)
}

// EmitFailed implements handlers.Pusher.
func (h *Hub) EmitFailed(jobID, errorMessage, errorCategory string, hasCategory bool) {
	payload := map[string]any{
		"type":   "job_failed",
		"job_id": jobID,
		"status": "failed",
		"error":  errorMessage,
	}
	if hasCategory {
		payload["error_category"] = errorCategory
	}
	h.emit(jobID, payload)
}

// EmitCancelled implements handlers.Pusher.
func (h *Hub) EmitCancelled(jobID string) {
	h.emit(jobID, map[string]any{
		"type":   "job_cancelled",
		"job_id": jobID,
		"status": "cancelled",
	})
}

// emit applies the silently-no-op-when-disabled / swallow-and-warn policy
// shared by every emitter, then broadcasts.
func (h *Hub) emit(jobID string, payload map[string]any) {
	if !h.enabled {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Warn().Interface("panic", r).Str("job_id", jobID).Msg("push emit failed")
		}
	}()
	h.broadcast(jobID, payload)
}
