package websocket

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

const (
	sendBufferSize = 64
	writeTimeout   = 5 * time.Second
)

type client struct {
	remote string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub broadcasts board updates to spectators. Render never blocks: a client
// whose buffer is full is disconnected.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "spectators"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (that *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{remote: r.RemoteAddr, conn: conn, send: make(chan []byte, sendBufferSize)}
	that.register(c)
	log.Info("spectator connected", "remote", r.RemoteAddr, "spectators", that.Len())

	go that.writeLoop(c)

	// spectators only listen; reading detects the close
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}

	that.unregister(c)
	log.Info("spectator disconnected", "remote", r.RemoteAddr)
}

func (that *Hub) Render(board entity.Board) {
	message, err := encodeBoard(&board)
	if err != nil {
		that.logger.Error("failed to encode board", "error", err)
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for c := range that.clients {
		select {
		case c.send <- message:
		default:
			that.logger.Warn("dropping slow spectator", "remote", c.remote)
			that.drop(c)
		}
	}
}

// Len returns the number of connected spectators.
func (that *Hub) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.clients)
}

// Close disconnects every spectator.
func (that *Hub) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for c := range that.clients {
		that.drop(c)
	}
}

func (that *Hub) register(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[c] = struct{}{}
}

func (that *Hub) unregister(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.drop(c)
}

// drop must be called with mu held.
func (that *Hub) drop(c *client) {
	if _, ok := that.clients[c]; !ok {
		return
	}

	delete(that.clients, c)
	close(c.send)
}

func (that *Hub) writeLoop(c *client) {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			that.logger.Debug("failed to write to spectator", "error", err)
			return
		}
	}

	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
