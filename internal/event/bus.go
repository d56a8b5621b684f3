package event

import (
	"strings"
	"sync"
	"time"
)

const (
	EventFeedbackQueued     = "feedback.queued"
	EventFeedbackFailed     = "feedback.failed"
	EventRideRequestCreated = "ride.request.created"
	EventRideRequestDecided = "ride.request.decided"
	EventLostFoundResolved  = "lostfound.resolved"
)

type FeedbackQueuedPayload struct {
	FeedbackID string `json:"feedback_id"`
	Type       string `json:"type"`
}

type FeedbackFailedPayload struct {
	FeedbackID string `json:"feedback_id"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"last_error"`
}

type RideRequestPayload struct {
	RideID      string `json:"ride_id"`
	RequestID   string `json:"request_id"`
	DriverID    string `json:"driver_id"`
	PassengerID string `json:"passenger_id"`
	Status      string `json:"status"`
}

type LostFoundResolvedPayload struct {
	ItemID     string    `json:"item_id"`
	CaseCode   string    `json:"case_code"`
	ResolvedAt time.Time `json:"resolved_at"`
}

type Bus struct {
	handlers sync.Map
	mu       sync.Mutex
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(event string, handler func(payload any)) {
	if b == nil || handler == nil {
		return
	}

	eventName := strings.TrimSpace(event)
	if eventName == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := make([]func(payload any), 0, 1)
	if current, ok := b.handlers.Load(eventName); ok {
		if casted, valid := current.([]func(payload any)); valid {
			handlers = append(handlers, casted...)
		}
	}
	handlers = append(handlers, handler)
	b.handlers.Store(eventName, handlers)
}

func (b *Bus) Publish(event string, payload any) {
	if b == nil {
		return
	}

	eventName := strings.TrimSpace(event)
	if eventName == "" {
		return
	}

	current, ok := b.handlers.Load(eventName)
	if !ok {
		return
	}

	handlers, ok := current.([]func(payload any))
	if !ok || len(handlers) == 0 {
		return
	}

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		go handler(payload)
	}
}
