package sse

import (
	"sync"
	"sync/atomic"
)

type Client struct {
	UserID string
	Role   string
	Ch     chan Event
	Done   chan struct{}

	fullStreak atomic.Int32
	closeOnce  sync.Once
}

func NewClient(userID, role string) *Client {
	return &Client{
		UserID: userID,
		Role:   role,
		Ch:     make(chan Event, 256),
		Done:   make(chan struct{}),
	}
}

func (c *Client) Close() {
	if c == nil {
		return
	}

	c.closeOnce.Do(func() {
		close(c.Done)
	})
}

func (c *Client) markDispatchSuccess() {
	if c == nil {
		return
	}
	c.fullStreak.Store(0)
}

func (c *Client) markDispatchFull() int32 {
	if c == nil {
		return 0
	}
	return c.fullStreak.Add(1)
}
