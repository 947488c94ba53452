package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"market-screener/src/models"
)

// -----------------------------------------------------------------------------
// Connection tuning
// -----------------------------------------------------------------------------

const (
	writeWait  = 2 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inbound traffic is subscribe commands only: a verb plus a symbol list.
	maxCommandBytes = 4 * 1024

	// Outbound buffer per connection. The hub drops a client rather than
	// block the refresh loop, so this bounds how far one can lag.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client is one websocket consumer of table updates. Traffic is one-way in
// practice: full-table snapshots out, occasional subscribe commands in.
type Client struct {
	hub  *APIServer
	conn *websocket.Conn
	send chan *models.MScreenerUpdate
}

// handleWebSocket upgrades the HTTP request, registers the client with the
// hub and starts its pumps. The hub replies with the current table.
func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		send: make(chan *models.MScreenerUpdate, sendBuffer),
	}
	s.register <- client

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Inbound: commands and connection watchdog
// -----------------------------------------------------------------------------

// readPump dispatches subscribe commands and tears the connection down when
// the peer goes away. The pong handler keeps the read deadline moving.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.hub.Logger.Debug("Client disconnected")
	}()

	c.conn.SetReadLimit(maxCommandBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			return
		}
		c.handleCommand(message)
	}
}

// handleCommand answers a subscribe command with a snapshot of the latest
// table, filtered to the requested symbols; an empty list means everything.
// Malformed input drops the connection.
func (c *Client) handleCommand(message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.hub.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		c.conn.Close()
		return
	}
	if cmd.Command != "subscribe" {
		return
	}

	c.hub.stateMutex.RLock()
	table := c.hub.latestTable
	metrics := c.hub.latestState.Metrics
	c.hub.stateMutex.RUnlock()

	if len(cmd.Symbols) > 0 {
		table = table.Select(cmd.Symbols)
	}

	select {
	case c.send <- tableToUpdate(table, metrics, "INITIAL"):
	default:
		// Buffer full; the hub prunes the client on the next broadcast.
	}
}

// -----------------------------------------------------------------------------
// Outbound: snapshots and keepalive
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case update, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(update); err != nil {
				c.hub.Logger.Info("Write error: %v", err)
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
