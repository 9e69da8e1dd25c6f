package web

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"matchops-service/logger"
	"matchops-service/services"
)

// WSMessage WebSocket消息结构
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Client WebSocket客户端
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	matchIDs map[int64]bool // 比赛过滤器,空则接收全部
}

// Hub WebSocket Hub,向后台前端推送比分/状态变化
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *scoreBroadcast
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// scoreBroadcast 待广播的比分变化
type scoreBroadcast struct {
	update services.ScoreUpdate
}

// NewHub 创建新的Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *scoreBroadcast, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run 运行Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Printf("[WS] Client registered. Total clients: %d", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			logger.Printf("[WS] Client unregistered. Total clients: %d", len(h.clients))

		case msg := <-h.broadcast:
			data := marshalScoreUpdate(msg.update)
			h.mu.RLock()
			for client := range h.clients {
				if !client.shouldReceive(msg.update.MatchID) {
					continue
				}
				select {
				case client.send <- data:
				default:
					// 写不进去的客户端直接踢掉,不阻塞广播
					h.mu.RUnlock()
					h.mu.Lock()
					close(client.send)
					delete(h.clients, client)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastScore 广播比分变化(实现 services.ScoreBroadcaster 接口)
func (h *Hub) BroadcastScore(update services.ScoreUpdate) {
	h.broadcast <- &scoreBroadcast{update: update}
}

// marshalScoreUpdate 序列化比分消息
func marshalScoreUpdate(update services.ScoreUpdate) []byte {
	data, err := json.Marshal(&WSMessage{
		Type: "score_update",
		Data: update,
	})
	if err != nil {
		logger.Errorf("[WS] Failed to marshal message: %v", err)
		return []byte("{}")
	}
	return data
}

// shouldReceive 检查客户端是否订阅了该比赛
func (c *Client) shouldReceive(matchID int64) bool {
	if len(c.matchIDs) == 0 {
		return true
	}
	return c.matchIDs[matchID]
}

// readPump 读取客户端消息
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("[WS] WebSocket error: %v", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump 向客户端写入消息
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()

	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// handleMessage 处理客户端发送的订阅指令
func (c *Client) handleMessage(message []byte) {
	var msg struct {
		Type     string  `json:"type"`
		MatchIDs []int64 `json:"match_ids"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Errorf("[WS] Failed to unmarshal client message: %v", err)
		return
	}

	switch msg.Type {
	case "subscribe":
		c.matchIDs = make(map[int64]bool)
		for _, id := range msg.MatchIDs {
			c.matchIDs[id] = true
		}
		logger.Printf("[WS] Client subscribed to matches: %v", msg.MatchIDs)

	case "unsubscribe":
		c.matchIDs = make(map[int64]bool)
		logger.Println("[WS] Client unsubscribed")
	}
}
