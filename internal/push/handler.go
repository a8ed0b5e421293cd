package push

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"kingo/internal/logger"
)

// Handler upgrades incoming requests to the real-time protocol's
// bidirectional channel and drives one Client's lifecycle to completion.
type Handler struct {
	hub  *Hub
	jobs JobCanceller
}

// NewHandler constructs a Handler bound to hub and the job-cancellation
// port the cancel_job message needs.
func NewHandler(hub *Hub, jobs JobCanceller) *Handler {
	return &Handler{hub: hub, jobs: jobs}
}

// ServeHTTP accepts the WebSocket upgrade, sends the connected{client_id}
// greeting, and blocks running the read/write pumps until the client
// disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Log.Warn().Err(err).Msg("push websocket accept failed")
		return
	}

	clientID := uuid.NewString()
	client := newClient(clientID, conn, h.hub, h.jobs)
	defer client.close()
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client.trySend(map[string]any{"type": "connected", "client_id": clientID})

	go client.writeLoop(ctx)
	client.readLoop(ctx)
}
