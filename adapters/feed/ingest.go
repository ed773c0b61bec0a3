package feed

import (
	"net/http"

	"centerout/internal"
	"centerout/ports"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Ingest accepts pushed position streams: each connected client sends the
// same packets the Client reads.
type Ingest struct {
	sink   ports.SampleSink
	clock  ports.Clock
	logger *internal.Logger
}

func NewIngest(sink ports.SampleSink, clock ports.Clock) *Ingest {
	return &Ingest{sink: sink, clock: clock, logger: internal.DefaultLogger.With("ingest")}
}

func (h *Ingest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()
	h.logger.Info("producer connected from %s", r.RemoteAddr)

	ctx := r.Context()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("read error from %s: %v", r.RemoteAddr, err)
			}
			return
		}
		if err := Dispatch(ctx, h.sink, h.clock, msg); err != nil {
			h.logger.Debug("dropped packet from %s: %v", r.RemoteAddr, err)
		}
	}
}
