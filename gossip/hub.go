package gossip

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ts4z/clicktunes/board"
	"github.com/ts4z/clicktunes/protocol"
	"github.com/ts4z/clicktunes/soundmodel"
	"github.com/ts4z/clicktunes/varz"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

var wsConnections = varz.NewInt("wsConnections")

// Message is what goes over the websocket in either direction.
type Message struct {
	Type    string                `json:"type"`
	Key     string                `json:"key,omitempty"`
	ID      int64                 `json:"id,omitempty"`
	Sound   *soundmodel.SoundSlug `json:"sound,omitempty"`
	Text    string                `json:"text,omitempty"`
	Visible []string              `json:"visible,omitempty"`
	Error   string                `json:"error,omitempty"`
	Version int                   `json:"version,omitempty"`
}

// Filtered answers a filter message.  Text and Visible are always sent, so
// the page can match a reply to the empty filter too.
type Filtered struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Visible []string `json:"visible"`
}

const (
	TypeHello    = "hello"
	TypeAdded    = "added"
	TypeRemoved  = "removed"
	TypeFilter   = "filter"
	TypeFiltered = "filtered"
	TypeError    = "error"
)

type client struct {
	mu    sync.Mutex
	conn  *websocket.Conn
	board *board.Board
}

func (c *client) write(m any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(m)
}

// Hub keeps the connected pages and pushes store changes to them.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

var _ Listener = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: map[*client]struct{}{},
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	wsConnections.Add(1)
	zap.S().Debugf("hub: register, %d connections", len(h.clients))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		wsConnections.Add(-1)
		c.conn.Close()
	}
	zap.S().Debugf("hub: unregister, %d connections", len(h.clients))
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(m *Message) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(m); err != nil {
			zap.S().Infof("hub: dropping connection: %v", err)
			h.unregister(c)
		}
	}
}

func (h *Hub) SoundAdded(sr *soundmodel.SoundRecord) {
	h.broadcast(&Message{Type: TypeAdded, Key: board.SoundKey(sr.ID), ID: sr.ID, Sound: sr.Slug()})
}

func (h *Hub) SoundRemoved(id int64) {
	h.broadcast(&Message{Type: TypeRemoved, Key: board.SoundKey(id), ID: id})
}

// Serve upgrades the request and reads filter events for b until the page
// goes away.  Set-Cookie headers already on w go out with the upgrade.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, b *board.Board) {
	var responseHeader http.Header
	if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
		responseHeader = http.Header{"Set-Cookie": cookies}
	}
	conn, err := h.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		// Upgrade has already answered the client.
		zap.S().Infof("hub: can't upgrade: %v", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn, board: b}
	h.register(c)
	defer h.unregister(c)

	if err := c.write(&Message{Type: TypeHello, Version: protocol.Version}); err != nil {
		zap.S().Infof("hub: can't say hello: %v", err)
		return
	}

	for {
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Infof("hub: read: %v", err)
			}
			return
		}
		h.handle(c, &m)
	}
}

func (h *Hub) handle(c *client, m *Message) {
	switch m.Type {
	case TypeFilter:
		c.board.FilterLater(m.Text, func(visible []string) {
			if err := c.write(&Filtered{Type: TypeFiltered, Text: m.Text, Visible: visible}); err != nil {
				zap.S().Debugf("hub: can't send filter result: %v", err)
			}
		})
	default:
		c.write(&Message{Type: TypeError, Error: fmt.Sprintf("unknown message type %q", m.Type)})
	}
}
