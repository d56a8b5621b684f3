package sse

import (
	"strconv"
	"sync"
)

const defaultRingBufferSize = 500

// RingBuffer retains recent events so reconnecting clients can replay what
// they missed via Last-Event-ID.
type RingBuffer struct {
	mu       sync.RWMutex
	capacity int
	items    []Event
	start    int
	size     int
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultRingBufferSize
	}

	return &RingBuffer{
		capacity: capacity,
		items:    make([]Event, capacity),
	}
}

func (rb *RingBuffer) Push(event Event) {
	if rb == nil {
		return
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.size < rb.capacity {
		idx := (rb.start + rb.size) % rb.capacity
		rb.items[idx] = event
		rb.size++
		return
	}

	rb.items[rb.start] = event
	rb.start = (rb.start + 1) % rb.capacity
}

// Since returns buffered events with an id greater than lastID. An empty or
// unparsable lastID yields the whole buffer.
func (rb *RingBuffer) Since(lastID string) []Event {
	if rb == nil {
		return nil
	}

	rb.mu.RLock()
	snapshot := make([]Event, 0, rb.size)
	for i := 0; i < rb.size; i++ {
		idx := (rb.start + i) % rb.capacity
		snapshot = append(snapshot, rb.items[idx])
	}
	rb.mu.RUnlock()

	if lastID == "" {
		return snapshot
	}

	lastSeq, err := strconv.ParseInt(lastID, 10, 64)
	if err != nil {
		return snapshot
	}

	result := make([]Event, 0, len(snapshot))
	for _, event := range snapshot {
		seq, err := strconv.ParseInt(event.ID, 10, 64)
		if err != nil {
			continue
		}
		if seq > lastSeq {
			result = append(result, event)
		}
	}

	return result
}
