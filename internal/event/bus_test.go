package event

import (
	"sync"
	"testing"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if bus.handlers == nil {
		t.Fatal("NewBus() handlers map not initialized")
	}
}

func TestSubscribeAndPublishDeliversSynchronously(t *testing.T) {
	bus := NewBus()
	var received any
	bus.Subscribe(EventJump, func(evt any) {
		received = evt
	})

	sent := &JumpEvent{Velocity: 4.2}
	bus.Publish(EventJump, sent)

	if received != sent {
		t.Errorf("handler received %v, want %v", received, sent)
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	bus := NewBus()
	// Must not panic.
	bus.Publish("nonexistent", "data")
}

func TestSubscribersRunInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	var order []int

	bus.Subscribe(EventLand, func(evt any) { order = append(order, 1) })
	bus.Subscribe(EventLand, func(evt any) { order = append(order, 2) })
	bus.Subscribe(EventLand, func(evt any) { order = append(order, 3) })

	bus.Publish(EventLand, &LandEvent{})

	if len(order) != 3 {
		t.Fatalf("handler calls = %d, want 3", len(order))
	}
	for i, got := range order {
		if got != i+1 {
			t.Fatalf("call order = %v, want [1 2 3]", order)
		}
	}
}

func TestEventNamesDoNotCross(t *testing.T) {
	bus := NewBus()
	var jumpSeen, landSeen bool

	bus.Subscribe(EventJump, func(evt any) { jumpSeen = true })
	bus.Subscribe(EventLand, func(evt any) { landSeen = true })

	bus.Publish(EventJump, &JumpEvent{})

	if !jumpSeen {
		t.Error("jump handler should have been called")
	}
	if landSeen {
		t.Error("land handler should not have been called")
	}
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewBus()
	var after bool

	bus.Subscribe(EventJump, func(evt any) { panic("boom") })
	bus.Subscribe(EventJump, func(evt any) { after = true })

	bus.Publish(EventJump, &JumpEvent{})

	if !after {
		t.Error("handler after a panicking one should still run")
	}
}

func TestSubscribeNilHandlerIgnored(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(EventJump, nil)
	// Must not panic on publish.
	bus.Publish(EventJump, &JumpEvent{})
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	count := 0

	bus.Subscribe(EventLand, func(evt any) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(EventLand, &LandEvent{})
		}()
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Subscribe(EventLand, func(evt any) {})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count < 100 {
		t.Errorf("received %d events, want at least 100", count)
	}
}
