package api

import (
	"net/http"
	"sync"
	"time"

	"proof_of_existence/internal/model"
	"proof_of_existence/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	feedSendBuffer = 16
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
	feedReadLimit  = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// FeedHub fans newly recorded public sessions out to websocket subscribers.
// A client whose buffer is full is dropped instead of blocking the publisher.
type FeedHub struct {
	mu      sync.RWMutex
	clients map[*feedClient]struct{}
}

func NewFeedHub() *FeedHub {
	return &FeedHub{
		clients: make(map[*feedClient]struct{}),
	}
}

func NewFeedRoutes(handler *gin.RouterGroup, hub *FeedHub) {
	handler.GET("/feed/ws", hub.handleWebSocket)
}

func (h *FeedHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *FeedHub) add(client *feedClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

func (h *FeedHub) remove(client *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Publish implements service.SessionPublisher.
func (h *FeedHub) Publish(session *model.Session) {
	log := logger.Logger()

	data, err := json.Marshal(Message{
		Type:    "session",
		Payload: toSessionResponse(session, false),
	})
	if err != nil {
		log.Error("failed to marshal feed message", zap.String("session_id", session.ID.String()), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			log.Info("dropping slow feed client")
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// Close disconnects every subscriber.
func (h *FeedHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *FeedHub) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Info("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &feedClient{
		conn: conn,
		send: make(chan []byte, feedSendBuffer),
	}
	h.add(client)

	go client.writeLoop()
	h.readLoop(client)
}

// readLoop only services control frames; the feed is one way.
func (h *FeedHub) readLoop(client *feedClient) {
	defer h.remove(client)

	client.conn.SetReadLimit(feedReadLimit)
	_ = client.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Logger().Info("feed websocket unexpected close", zap.Error(err))
			}
			return
		}
	}
}

func (c *feedClient) writeLoop() {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
