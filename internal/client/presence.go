package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/timeshop/internal/gateway"
	"github.com/mcdev12/timeshop/internal/models"
)

// PresenceConn is a websocket connection to the realtime endpoint. It
// satisfies the session runner's PresenceReporter and surfaces the
// server's broadcast frames through optional callbacks.
type PresenceConn struct {
	conn *websocket.Conn

	// writeMu serializes frames; gorilla permits one concurrent writer.
	writeMu sync.Mutex

	// OnTotalTime is invoked for every global playtime broadcast.
	OnTotalTime func(total int)
	// OnOnlineUsers is invoked for every presence roster broadcast.
	OnOnlineUsers func(users []models.Presence)
}

// DialPresence connects to wsURL (e.g. ws://localhost:6020/ws).
func DialPresence(ctx context.Context, wsURL string) (*PresenceConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, res, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if res != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", wsURL, err, res.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	if res != nil && res.Body != nil {
		res.Body.Close()
	}
	return &PresenceConn{conn: conn}, nil
}

// Report sends a presence snapshot.
func (p *PresenceConn) Report(_ context.Context, presence models.Presence) error {
	frame, err := gateway.EncodePresenceUpdate(presence)
	if err != nil {
		return fmt.Errorf("encode presence: %w", err)
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send presence: %w", err)
	}
	return nil
}

// Listen reads server frames until the connection drops or ctx is
// cancelled. It dispatches to the callbacks and answers pings via the
// library's default handler. Run it on its own goroutine.
func (p *PresenceConn) Listen(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		p.Close()
	}()

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read frame: %w", err)
		}

		var msg gateway.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Msg("discarding malformed frame")
			continue
		}

		switch msg.Type {
		case gateway.MessageTypeTotalTime:
			var total int
			if err := json.Unmarshal(msg.Data, &total); err != nil {
				log.Warn().Err(err).Msg("discarding malformed totalTime frame")
				continue
			}
			if p.OnTotalTime != nil {
				p.OnTotalTime(total)
			}
		case gateway.MessageTypeOnlineUsers:
			var users []models.Presence
			if err := json.Unmarshal(msg.Data, &users); err != nil {
				log.Warn().Err(err).Msg("discarding malformed onlineUsers frame")
				continue
			}
			if p.OnOnlineUsers != nil {
				p.OnOnlineUsers(users)
			}
		default:
			log.Debug().Str("type", string(msg.Type)).Msg("ignoring unknown frame type")
		}
	}
}

// Close sends a close frame and tears down the connection.
func (p *PresenceConn) Close() error {
	p.writeMu.Lock()
	p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	p.writeMu.Unlock()
	return p.conn.Close()
}

// WSBaseURL derives the websocket endpoint from an HTTP base URL.
func WSBaseURL(httpBase string) string {
	switch {
	case len(httpBase) > 8 && httpBase[:8] == "https://":
		return "wss://" + httpBase[8:] + "/ws"
	case len(httpBase) > 7 && httpBase[:7] == "http://":
		return "ws://" + httpBase[7:] + "/ws"
	default:
		return httpBase + "/ws"
	}
}
