// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Reflectix/CounselLab/internal/session"
	"github.com/Reflectix/CounselLab/internal/storage"
	"github.com/Reflectix/CounselLab/internal/utils"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks belong to the reverse proxy in production.
		return true
	},
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 45 * time.Second
)

// wsClient is one live socket bound to a practice session. Text frames
// carry JSON session events, binary frames carry recorded chunks, and
// session envelopes flow back over the subscription channel. Every
// outbound frame goes through writePump: the send channel carries
// direct replies (initial state, errors) so the read side never writes
// to the connection itself.
type wsClient struct {
	conn    *websocket.Conn
	session *session.Session
	sub     chan session.Envelope
	send    chan interface{}
	closed  int32
	logger  *utils.Logger
}

// SessionWebSocket upgrades the connection and binds it to a session.
// The client relays media-clock events up; the server pushes state
// snapshots and media commands down.
func (h *Handler) SessionWebSocket(c *gin.Context) {
	s, ok := h.sessionForRequest(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Response.InternalError(c, "websocket upgrade failed", err.Error())
		return
	}

	client := &wsClient{
		conn:    conn,
		session: s,
		sub:     s.Subscribe(),
		send:    make(chan interface{}, 16),
		logger:  utils.GetLogger(),
	}

	go client.writePump()
	client.sendState(s.Snapshot())
	client.readPump()
}

func (client *wsClient) close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		client.session.Unsubscribe(client.sub)
		client.conn.Close()
	}
}

func (client *wsClient) isClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

// writePump drains session envelopes onto the socket and keeps the
// connection alive with pings.
func (client *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.close()
	}()

	for {
		select {
		case env, ok := <-client.sub:
			if !ok {
				// Session closed underneath us.
				client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteJSON(env); err != nil {
				return
			}
		case msg := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump applies incoming frames to the session until the socket
// drops.
func (client *wsClient) readPump() {
	defer client.close()

	client.conn.SetReadLimit(storage.MaxObjectSize)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		messageType, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.logger.Warnf("session socket read error: %v", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if err := client.session.PushChunk(data); err != nil {
				client.sendError(err.Error())
			}
		case websocket.TextMessage:
			var req SessionEventRequest
			if err := json.Unmarshal(data, &req); err != nil {
				client.sendError("invalid event payload: " + err.Error())
				continue
			}
			if err := applySessionEvent(client.session, &req); err != nil {
				client.sendError(err.Error())
			}
		}
	}
}

// sendState and sendError enqueue direct replies for writePump. The
// channel is buffered and sends never block; a client too slow to
// drain its replies loses them, same as subscription envelopes.
func (client *wsClient) sendState(snap session.Snapshot) {
	client.enqueue(session.Envelope{Type: "state", State: &snap})
}

func (client *wsClient) sendError(message string) {
	client.enqueue(map[string]interface{}{
		"type":      "error",
		"error":     message,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (client *wsClient) enqueue(msg interface{}) {
	if client.isClosed() {
		return
	}
	select {
	case client.send <- msg:
	default:
	}
}
