// Package input provides the three locomotion input channels: a continuous
// 2D movement axis, a discrete jump trigger, and a sprint hold. Device code
// queues events from any goroutine; Dispatch delivers them in order on the
// caller's goroutine, so the host can drain all channels right before the
// frame's integration step.
package input

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Subscription identifies one registered handler so teardown can remove
// exactly what activation registered.
type Subscription uint64

// Axis2D is a continuous two-axis channel. Every Set queues a change event,
// including the return-to-neutral event when input goes back to zero.
type Axis2D struct {
	mu       sync.Mutex
	disabled bool
	nextSub  Subscription
	handlers []axisHandler
	pending  []mgl64.Vec2
}

type axisHandler struct {
	id Subscription
	fn func(mgl64.Vec2)
}

func NewAxis2D() *Axis2D {
	return &Axis2D{}
}

func (c *Axis2D) Set(v mgl64.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled {
		return
	}
	c.pending = append(c.pending, v)
}

func (c *Axis2D) Subscribe(fn func(mgl64.Vec2)) Subscription {
	if fn == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	c.handlers = append(c.handlers, axisHandler{id: c.nextSub, fn: fn})
	return c.nextSub
}

func (c *Axis2D) Unsubscribe(s Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, h := range c.handlers {
		if h.id == s {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return
		}
	}
}

func (c *Axis2D) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

func (c *Axis2D) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = false
}

// Disable drops queued events as well: a disabled channel must not replay
// stale input when it is re-enabled.
func (c *Axis2D) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = true
	c.pending = nil
}

func (c *Axis2D) Dispatch() {
	c.mu.Lock()
	events := c.pending
	c.pending = nil
	handlers := make([]axisHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, v := range events {
		for _, h := range handlers {
			h.fn(v)
		}
	}
}

// Trigger is a discrete edge channel: each Fire queues exactly one event.
type Trigger struct {
	mu       sync.Mutex
	disabled bool
	nextSub  Subscription
	handlers []triggerHandler
	pending  int
}

type triggerHandler struct {
	id Subscription
	fn func()
}

func NewTrigger() *Trigger {
	return &Trigger{}
}

func (c *Trigger) Fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled {
		return
	}
	c.pending++
}

func (c *Trigger) Subscribe(fn func()) Subscription {
	if fn == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	c.handlers = append(c.handlers, triggerHandler{id: c.nextSub, fn: fn})
	return c.nextSub
}

func (c *Trigger) Unsubscribe(s Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, h := range c.handlers {
		if h.id == s {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return
		}
	}
}

func (c *Trigger) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

func (c *Trigger) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = false
}

func (c *Trigger) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = true
	c.pending = 0
}

func (c *Trigger) Dispatch() {
	c.mu.Lock()
	events := c.pending
	c.pending = 0
	handlers := make([]triggerHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for i := 0; i < events; i++ {
		for _, h := range handlers {
			h.fn()
		}
	}
}

// Button is a boolean hold channel. Press and Release queue edge events only
// when the held state actually changes.
type Button struct {
	mu       sync.Mutex
	disabled bool
	held     bool
	nextSub  Subscription
	handlers []buttonHandler
	pending  []bool
}

type buttonHandler struct {
	id Subscription
	fn func(pressed bool)
}

func NewButton() *Button {
	return &Button{}
}

func (c *Button) Press() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled || c.held {
		return
	}
	c.held = true
	c.pending = append(c.pending, true)
}

func (c *Button) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled || !c.held {
		return
	}
	c.held = false
	c.pending = append(c.pending, false)
}

func (c *Button) Subscribe(fn func(pressed bool)) Subscription {
	if fn == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	c.handlers = append(c.handlers, buttonHandler{id: c.nextSub, fn: fn})
	return c.nextSub
}

func (c *Button) Unsubscribe(s Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, h := range c.handlers {
		if h.id == s {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return
		}
	}
}

func (c *Button) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

func (c *Button) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = false
}

// Disable drops queued edges and forgets the held state, so a re-enabled
// button starts released.
func (c *Button) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = true
	c.held = false
	c.pending = nil
}

func (c *Button) Dispatch() {
	c.mu.Lock()
	events := c.pending
	c.pending = nil
	handlers := make([]buttonHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, pressed := range events {
		for _, h := range handlers {
			h.fn(pressed)
		}
	}
}
