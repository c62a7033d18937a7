package sse

import (
	"fmt"
	"log"
	"sync"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// GlobalHub is the singleton SSE Hub instance
var GlobalHub = NewHub()

// NewHub creates a new SSE Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[SSE] Client registered: id=%s user=%s (total: %d)", client.ID, client.UserID, len(h.clients))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		log.Printf("[SSE] Client unregistered: id=%s (total: %d)", clientID, len(h.clients))
	}
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			log.Printf("[SSE] Client %s buffer full, skipping event", client.ID)
		}
	}
}

// SendToUser 给特定用户发送事件（而非广播）
func SendToUser(userID string, event Event) {
	GlobalHub.mu.RLock()
	defer GlobalHub.mu.RUnlock()
	for _, client := range GlobalHub.clients {
		if client.UserID == userID {
			select {
			case client.Events <- event:
			default:
				log.Printf("[SSE] Client %s buffer full, skipping user event", client.ID)
			}
		}
	}
}

// PublishAIProgress 给用户推送AI分析进度（uploading / ocr / analyzing / done / failed）
func PublishAIProgress(userID, formID, stage string) {
	data := fmt.Sprintf(`{"form_id":"%s","stage":"%s"}`, formID, stage)
	SendToUser(userID, Event{
		EventType: "ai_progress",
		Data:      data,
	})
	log.Printf("[SSE] Published ai_progress to user=%s: form=%s stage=%s", userID, formID, stage)
}

// PublishFormUpdate 给用户推送表单变更（自动保存、状态流转、自动填充）
func PublishFormUpdate(userID, formID, action string, version int) {
	data := fmt.Sprintf(`{"form_id":"%s","action":"%s","version":%d}`, formID, action, version)
	SendToUser(userID, Event{
		EventType: "form_update",
		Data:      data,
	})
	log.Printf("[SSE] Published form_update to user=%s: form=%s action=%s version=%d", userID, formID, action, version)
}
