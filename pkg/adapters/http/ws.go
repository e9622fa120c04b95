package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Websocket envelope types.
const (
	MsgCall       = "mesh:call"
	MsgResponse   = "mesh:response"
	MsgSubscribe  = "mesh:subscribe"
	MsgSubscribed = "mesh:subscribed"
	MsgEvent      = "mesh:event"
	MsgError      = "mesh:error"
)

const writeWait = 10 * time.Second

// Envelope is the single message shape of the push channel.
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	ShardID   string          `json:"shardId,omitempty"`
	Method    string          `json:"method,omitempty"`
	Path      string          `json:"path,omitempty"`
	Data      any             `json:"data,omitempty"`
	Result    any             `json:"result,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
	Error     string          `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(env)
}

// ServeWS handles GET /mesh/ws.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &wsConn{conn: conn}
	ctx := r.Context()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		subs = make(map[string]func())
	)
	defer func() {
		mu.Lock()
		for _, cancel := range subs {
			cancel()
		}
		mu.Unlock()
		wg.Wait()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Logger.Debug("websocket closed", "err", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			_ = c.send(Envelope{Type: MsgError, Error: "malformed envelope"})
			continue
		}

		switch env.Type {
		case MsgCall:
			if env.ShardID == "" || env.Path == "" {
				_ = c.send(Envelope{Type: MsgError, RequestID: env.RequestID, Error: "mesh:call needs shardId and path"})
				continue
			}
			wg.Add(1)
			go func(env Envelope) {
				defer wg.Done()
				resp := Envelope{Type: MsgResponse, RequestID: env.RequestID, ShardID: env.ShardID}
				result, err := s.Hive.RouteToShard(ctx, env.ShardID, env.Method, env.Path, env.Data)
				if err != nil {
					resp.Error = err.Error()
				} else {
					resp.Result = result
				}
				if err := c.send(resp); err != nil {
					s.Logger.Debug("websocket write failed", "err", err)
				}
			}(env)

		case MsgSubscribe:
			if env.ShardID == "" {
				_ = c.send(Envelope{Type: MsgError, Error: "mesh:subscribe needs shardId"})
				continue
			}
			mu.Lock()
			_, dup := subs[env.ShardID]
			if !dup {
				ch, cancel := s.Streams.Subscribe(env.ShardID)
				subs[env.ShardID] = cancel
				wg.Add(1)
				go func(shardID string, ch <-chan []byte) {
					defer wg.Done()
					for msg := range ch {
						if err := c.send(Envelope{Type: MsgEvent, ShardID: shardID, Event: msg}); err != nil {
							return
						}
					}
				}(env.ShardID, ch)
			}
			mu.Unlock()
			_ = c.send(Envelope{Type: MsgSubscribed, ShardID: env.ShardID})

		default:
			_ = c.send(Envelope{Type: MsgError, RequestID: env.RequestID, Error: "unknown envelope type: " + env.Type})
		}
	}
}
