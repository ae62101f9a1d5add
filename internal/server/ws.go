package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/fsru-tools/fleet-timeline/pkg/core"
	"github.com/fsru-tools/fleet-timeline/pkg/streaming"
)

const writeWait = 10 * time.Second

// The default CheckOrigin stands: the embedded dashboard connects
// same-origin, browser clients from other origins are refused.
var upgrader = ws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// wsConn wraps a WebSocket connection with a write mutex so the read loop
// and the playback goroutine never interleave frames.
type wsConn struct {
	server *Server
	conn   *ws.Conn
	live   *liveSession

	writeMu sync.Mutex

	// stopPlay is guarded by live.mu.
	stopPlay chan struct{}
}

// httpWebSocket upgrades the connection and runs the command loop for a
// single session, identified by the session query parameter.
func (s *Server) httpWebSocket(w http.ResponseWriter, r *http.Request) {
	ls := s.registry.Get(r.URL.Query().Get("session"))
	if ls == nil {
		httpError(w, http.StatusNotFound, fmt.Errorf("unknown session"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsConn{server: s, conn: conn, live: ls}
	c.readLoop()
}

func (c *wsConn) readLoop() {
	defer func() {
		c.pause()
		c.conn.Close()
	}()

	for {
		var env streaming.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				c.server.logger.Warn("websocket read error", "session", c.live.id, "error", err)
			}
			return
		}

		switch env.Type {
		case streaming.TypePlay:
			c.play(env.Payload)
		case streaming.TypePause:
			c.pause()
			c.sendStatus()
		case streaming.TypeSelectFrame:
			c.selectFrame(env.Payload)
		case streaming.TypeTimeline:
			c.sendTimeline()
		case streaming.TypeStatus:
			c.sendStatus()
		default:
			c.sendError(fmt.Errorf("unknown message type: %s", env.Type))
		}
	}
}

func (c *wsConn) selectFrame(payload json.RawMessage) {
	var req streaming.SelectFramePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			c.sendError(fmt.Errorf("bad select_frame payload: %w", err))
			return
		}
	}
	c.renderAndSend(req.Index)
}

// renderAndSend renders one frame through the dispatcher and writes it out.
// Returns false when the index was rejected.
func (c *wsConn) renderAndSend(index int) bool {
	result, err := c.server.dispatch(streaming.TypeSelectFrame, selectFrameRequest{
		SessionID: c.live.id,
		Index:     index,
	})
	if err != nil {
		c.sendError(err)
		return false
	}

	frame := result.(*core.Frame)
	c.send(streaming.TypeFrame, streaming.FramePayload{Frame: frame})
	return true
}

// play starts a playback goroutine advancing one frame per interval from
// the current position. Playback stops at the end of the timeline, on
// pause, or when the connection drops.
func (c *wsConn) play(payload json.RawMessage) {
	interval := c.server.cfg.PlaybackInterval
	if len(payload) > 0 {
		var req streaming.PlayPayload
		if err := json.Unmarshal(payload, &req); err != nil {
			c.sendError(fmt.Errorf("bad play payload: %w", err))
			return
		}
		if req.IntervalMillis > 0 {
			interval = time.Duration(req.IntervalMillis) * time.Millisecond
		}
	}

	c.live.mu.Lock()
	if c.live.playing {
		c.live.mu.Unlock()
		return
	}
	c.live.playing = true
	stop := make(chan struct{})
	c.stopPlay = stop
	c.live.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.live.mu.Lock()
				next := c.live.current + 1
				length := c.live.session.Len()
				c.live.mu.Unlock()

				if next >= length {
					c.pause()
					c.sendStatus()
					return
				}
				if !c.renderAndSend(next) {
					c.pause()
					return
				}
			}
		}
	}()

	c.sendStatus()
}

func (c *wsConn) pause() {
	c.live.mu.Lock()
	c.live.playing = false
	stop := c.stopPlay
	c.stopPlay = nil
	c.live.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

func (c *wsConn) sendTimeline() {
	result, err := c.server.dispatch(streaming.TypeTimeline, sessionRequest{SessionID: c.live.id})
	if err != nil {
		c.sendError(err)
		return
	}
	c.send(streaming.TypeTimeline, result)
}

func (c *wsConn) sendStatus() {
	result, err := c.server.dispatch(streaming.TypeStatus, sessionRequest{SessionID: c.live.id})
	if err != nil {
		c.sendError(err)
		return
	}
	c.send(streaming.TypeStatus, result)
}

func (c *wsConn) sendError(err error) {
	c.send(streaming.TypeError, streaming.ErrorPayload{Message: err.Error()})
}

func (c *wsConn) send(msgType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.server.logger.Error("marshal ws payload", "type", msgType, "error", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(streaming.Envelope{Type: msgType, Payload: raw}); err != nil {
		c.server.logger.Warn("websocket write error", "session", c.live.id, "error", err)
	}
}
