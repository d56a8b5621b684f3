package sse

import (
	"encoding/json"
	"strconv"
	"sync/atomic"
)

type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data string `json:"data"`
}

const (
	EventHeartbeat        = "heartbeat"
	EventAnnouncement     = "announcement"
	EventListingCreated   = "listing.created"
	EventRideRequest      = "ride.request"
	EventFeedbackReceived = "feedback.received"
	EventSystemAlert      = "system.alert"
)

var eventSeq int64

func NewEvent(eventType string, payload any) Event {
	id := atomic.AddInt64(&eventSeq, 1)
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}

	return Event{
		ID:   strconv.FormatInt(id, 10),
		Type: eventType,
		Data: string(data),
	}
}
