package feed

import (
	"context"
	"time"

	"centerout/internal"
	"centerout/internal/errors"
	"centerout/ports"

	"github.com/gorilla/websocket"
)

// Client dials a position server and forwards what it receives to a sink.
// A dropped connection is redialled after ReconnectDelay until ctx ends.
type Client struct {
	URL            string
	Clock          ports.Clock
	ReconnectDelay time.Duration
	Dialer         *websocket.Dialer
	Logger         *internal.Logger
}

// NewClient returns a client for url that stamps untimed samples with clock.
func NewClient(url string, clock ports.Clock, reconnect time.Duration) *Client {
	return &Client{
		URL:            url,
		Clock:          clock,
		ReconnectDelay: reconnect,
		Dialer:         websocket.DefaultDialer,
		Logger:         internal.DefaultLogger.With("feed"),
	}
}

// Run blocks until ctx is cancelled.
func (c *Client) Run(ctx context.Context, sink ports.SampleSink) error {
	for {
		err := c.session(ctx, sink)
		if ctx.Err() != nil {
			return nil
		}
		c.Logger.Warn("connection to %s lost: %v, retrying in %s", c.URL, err, c.ReconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.ReconnectDelay):
		}
	}
}

func (c *Client) session(ctx context.Context, sink ports.SampleSink) error {
	conn, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return errors.ExternalServiceError("feed", err)
	}
	defer conn.Close()
	c.Logger.Info("connected to %s", c.URL)

	// unblock ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		if err := Dispatch(ctx, sink, c.Clock, msg); err != nil {
			c.Logger.Debug("dropped packet: %v", err)
		}
	}
}

// Dispatch decodes one message and hands it to sink. Untimed samples are
// stamped with clock when one is given.
func Dispatch(ctx context.Context, sink ports.SampleSink, clock ports.Clock, msg []byte) error {
	pkt, err := ParsePacket(msg)
	if err != nil {
		return err
	}
	switch pkt.Kind {
	case PacketSample:
		if pkt.Sample.TimestampMs == 0 && clock != nil {
			pkt.Sample.TimestampMs = clock.NowMs()
		}
		return sink.ProcessSample(ctx, pkt.Sample)
	case PacketCommand:
		return sink.HandleCommand(ctx, pkt.Command)
	}
	return nil
}

var _ ports.SampleSource = (*Client)(nil)
