package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"casino-engine-backend/internal/models"
	"casino-engine-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler pushes settlement and balance events to connected clients.
// It implements services.Broadcaster.
type WebSocketHandler struct {
	settlement *services.Settlement
	logger     *zap.Logger
	hub        *WebSocketHub
}

type WebSocketHub struct {
	clients    map[string]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	logger     *zap.Logger
}

type Client struct {
	AccountID string
	Conn      *websocket.Conn
}

type Message struct {
	Type      string      `json:"type"`
	AccountID string      `json:"account_id,omitempty"`
	Data      interface{} `json:"data"`
}

func NewWebSocketHandler(settlement *services.Settlement, logger *zap.Logger) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
		logger:     logger,
	}

	go hub.run()

	return &WebSocketHandler{
		settlement: settlement,
		logger:     logger,
		hub:        hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	accountID := c.GetString("account_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		AccountID: accountID,
		Conn:      conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalance(c, client)

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", zap.Error(err))
			}
			break
		}

		h.handleMessage(c, client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(c *gin.Context, client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		h.sendPong(client)
	case "BALANCE":
		h.sendBalance(c, client)
	}
}

func (h *WebSocketHandler) sendBalance(c *gin.Context, client *Client) {
	summary, err := h.settlement.BalanceSummary(c.Request.Context(), client.AccountID)
	if err != nil {
		h.logger.Warn("failed to load balance for websocket",
			zap.String("account_id", client.AccountID),
			zap.Error(err))
		return
	}

	client.Conn.WriteJSON(Message{
		Type: "BALANCE_UPDATE",
		Data: summary,
	})
}

func (h *WebSocketHandler) sendPong(client *Client) {
	client.Conn.WriteJSON(Message{
		Type: "PONG",
		Data: gin.H{
			"timestamp": time.Now().Unix(),
		},
	})
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.handleRegister(client)

		case client := <-hub.unregister:
			hub.handleUnregister(client)

		case message := <-hub.broadcast:
			hub.deliver(message)
		}
	}
}

func (hub *WebSocketHub) handleRegister(client *Client) {
	hub.clients[client.AccountID] = client.Conn
	hub.logger.Debug("websocket client registered", zap.String("account_id", client.AccountID))
}

// handleUnregister drops the client only while its own connection is still
// the registered one, so a stale connection's deferred unregister cannot
// evict a newer connection for the same account.
func (hub *WebSocketHub) handleUnregister(client *Client) {
	if conn, ok := hub.clients[client.AccountID]; ok && conn == client.Conn {
		delete(hub.clients, client.AccountID)
		hub.logger.Debug("websocket client unregistered", zap.String("account_id", client.AccountID))
	}
}

func (hub *WebSocketHub) deliver(message *Message) {
	if message.AccountID != "" {
		if conn, ok := hub.clients[message.AccountID]; ok {
			conn.WriteJSON(message)
		}
		return
	}
	for _, conn := range hub.clients {
		conn.WriteJSON(message)
	}
}

// BroadcastBetSettled pushes a settled bet to the owning account's client.
func (h *WebSocketHandler) BroadcastBetSettled(accountID string, result *models.BetResult) {
	h.hub.broadcast <- &Message{
		Type:      "BET_SETTLED",
		AccountID: accountID,
		Data:      result,
	}
}

// BroadcastBalance pushes the new spendable balance after a settlement.
func (h *WebSocketHandler) BroadcastBalance(accountID string, balance int64) {
	h.hub.broadcast <- &Message{
		Type:      "BALANCE_UPDATE",
		AccountID: accountID,
		Data: gin.H{
			"balance":   balance,
			"timestamp": time.Now().Unix(),
		},
	}
}
