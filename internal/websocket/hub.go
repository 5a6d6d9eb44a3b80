// Package websocket 为在线服务者提供任务动态实时推送。
// 与通知扇出一样是尽力而为的旁路,推送失败不影响任务状态。
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event 推送给服务者的任务动态
type Event struct {
	Type      string    `json:"type"` // task_available, task_taken, task_completed
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub 管理所有 WebSocket 连接
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	// 互斥锁，保护 clients map
	mu sync.RWMutex

	log *logrus.Logger
}

// NewHub 创建新的 Hub
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		log:        log,
	}
}

// Run 运行 Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
		}
	}
}

// Publish 向指定用户集合推送事件,未在线的用户被跳过
func (h *Hub) Publish(userIDs []string, evt *Event) {
	if len(userIDs) == 0 {
		return
	}
	evt.Timestamp = time.Now()
	payload, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).Warn("failed to marshal feed event")
		return
	}

	targets := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		targets[id] = true
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !targets[client.UserID] {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

// ClientCount 获取客户端数量
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
