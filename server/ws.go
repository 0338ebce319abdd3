package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocket methods.
const (
	MethodToolsList = "tools.list"
	MethodToolsCall = "tools.call"
	MethodContext   = "memory.context"
)

// maxWSMessageSize is the maximum allowed WebSocket message size (512KB).
const maxWSMessageSize = 512 * 1024

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// RequestFrame is a client request on the tool channel.
type RequestFrame struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ResponseFrame answers one RequestFrame.
type ResponseFrame struct {
	ID     string       `json:"id"`
	OK     bool         `json:"ok"`
	Result any          `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ToolCallParams are the params of tools.call.
type ToolCallParams struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type contextParams struct {
	Input string `json:"input"`
	Limit int    `json:"limit"`
}

// Client represents a single WebSocket connection.
type Client struct {
	id     string
	conn   *websocket.Conn
	server *Server
	send   chan []byte
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &Client{
		id:     uuid.NewString(),
		conn:   conn,
		server: s,
		send:   make(chan []byte, 256),
	}
	s.addClient(c)
	s.log.Debug("websocket client connected", "client", c.id)
	defer func() {
		s.removeClient(c)
		close(c.send)
		s.log.Debug("websocket client disconnected", "client", c.id)
	}()

	c.run(r.Context())
}

// run starts the write pump and blocks in the read pump.
func (c *Client) run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxWSMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.log.Warn("websocket read error", "client", c.id, "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleFrame(ctx, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleFrame(ctx context.Context, data []byte) {
	var req RequestFrame
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("", "invalid_request", "malformed frame: "+err.Error())
		return
	}

	switch req.Method {
	case MethodToolsList:
		c.sendResult(req.ID, c.server.registry.Definitions())

	case MethodToolsCall:
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			c.sendError(req.ID, "invalid_request", "tools.call needs params.name")
			return
		}
		result, err := c.server.registry.Call(ctx, params.Name, params.Input)
		if err != nil {
			_, errType := classify(err)
			c.sendError(req.ID, errType, err.Error())
			return
		}
		c.sendResult(req.ID, result)

	case MethodContext:
		var params contextParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Input == "" {
			c.sendError(req.ID, "invalid_request", "memory.context needs params.input")
			return
		}
		if params.Limit < 1 {
			params.Limit = 3
		}
		c.sendResult(req.ID, map[string]string{
			"context": c.server.store.RelevantContext(ctx, params.Input, params.Limit),
		})

	default:
		c.sendError(req.ID, "invalid_request", "unknown method: "+req.Method)
	}
}

func (c *Client) sendResult(id string, result any) {
	c.sendFrame(&ResponseFrame{ID: id, OK: true, Result: result})
}

func (c *Client) sendError(id, errType, message string) {
	c.sendFrame(&ResponseFrame{ID: id, Error: &ErrorDetail{Type: errType, Message: message}})
}

func (c *Client) sendFrame(resp *ResponseFrame) {
	data, err := json.Marshal(resp)
	if err != nil {
		c.server.log.Error("marshal response failed", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.server.log.Warn("client send buffer full, dropping message", "client", c.id)
	}
}
