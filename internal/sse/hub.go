package sse

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"unishare-hub/internal/metrics"
)

const (
	heartbeatInterval     = 30 * time.Second
	backpressureFullLimit = 5
)

// Hub fans events out to connected clients. One connection per user; a new
// registration for the same user replaces and closes the old one.
type Hub struct {
	clients  sync.Map
	eventBuf *RingBuffer

	logger *zap.Logger
	stopCh chan struct{}
}

var (
	globalHub     *Hub
	globalHubOnce sync.Once
)

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	hub := &Hub{
		eventBuf: NewRingBuffer(defaultRingBufferSize),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}

	go hub.startHeartbeat()

	return hub
}

func InitGlobal(logger *zap.Logger) *Hub {
	globalHubOnce.Do(func() {
		globalHub = NewHub(logger)
	})
	return globalHub
}

func Global() *Hub {
	return globalHub
}

func (h *Hub) Register(client *Client) {
	if h == nil || client == nil || client.UserID == "" {
		return
	}

	if current, loaded := h.clients.Load(client.UserID); loaded {
		if oldClient, ok := current.(*Client); ok && oldClient != client {
			oldClient.Close()
		}
	}

	h.clients.Store(client.UserID, client)
	metrics.SetSSEClients(h.ConnectedCount())
}

func (h *Hub) Unregister(userID string) {
	if h == nil || userID == "" {
		return
	}

	value, loaded := h.clients.LoadAndDelete(userID)
	if !loaded {
		return
	}

	if client, ok := value.(*Client); ok {
		client.Close()
	}
	metrics.SetSSEClients(h.ConnectedCount())
}

func (h *Hub) Broadcast(event Event) {
	if h == nil {
		return
	}

	h.eventBuf.Push(event)
	h.clients.Range(func(_, value interface{}) bool {
		if client, ok := value.(*Client); ok {
			h.dispatch(client, event)
		}
		return true
	})
}

func (h *Hub) SendToUser(userID string, event Event) {
	if h == nil || userID == "" {
		return
	}

	h.eventBuf.Push(event)
	value, ok := h.clients.Load(userID)
	if !ok {
		return
	}

	client, ok := value.(*Client)
	if !ok {
		return
	}

	h.dispatch(client, event)
}

func (h *Hub) SendToRole(role string, event Event) {
	if h == nil || role == "" {
		return
	}

	h.eventBuf.Push(event)
	h.clients.Range(func(_, value interface{}) bool {
		client, ok := value.(*Client)
		if !ok {
			return true
		}
		if strings.EqualFold(client.Role, role) {
			h.dispatch(client, event)
		}
		return true
	})
}

func (h *Hub) Since(lastID string) []Event {
	if h == nil {
		return nil
	}
	return h.eventBuf.Since(lastID)
}

func (h *Hub) Close() {
	if h == nil {
		return
	}

	select {
	case <-h.stopCh:
		return
	default:
		close(h.stopCh)
	}
}

func (h *Hub) ConnectedCount() int {
	if h == nil {
		return 0
	}

	count := 0
	h.clients.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

func (h *Hub) dispatch(client *Client, event Event) {
	if client == nil {
		return
	}

	select {
	case <-client.Done:
		return
	case client.Ch <- event:
		client.markDispatchSuccess()
		return
	default:
		streak := client.markDispatchFull()
		h.logger.Warn("drop sse event due to full buffer",
			zap.String("user_id", client.UserID),
			zap.String("type", event.Type),
			zap.Int32("full_streak", streak),
		)
		if streak >= backpressureFullLimit {
			h.logger.Warn("disconnect slow sse client due to backpressure",
				zap.String("user_id", client.UserID),
				zap.Int32("full_streak", streak),
			)
			h.Unregister(client.UserID)
		}
	}
}

func (h *Hub) startHeartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case now := <-ticker.C:
			heartbeat := NewEvent(EventHeartbeat, map[string]interface{}{
				"ts": now.UTC().Format(time.RFC3339Nano),
			})
			h.Broadcast(heartbeat)
		}
	}
}
