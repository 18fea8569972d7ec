package audit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// collector is a thread-safe handler for tests.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func TestLog_DeliversToHandler(t *testing.T) {
	col := &collector{}
	logger := New(10, WithHandler(col.handle))

	logger.Log(Event{Action: "login_submit", AdminID: "42", Result: "success"})
	logger.Log(Event{Action: "otp_verify", AdminID: "42", Result: "failure", Error: "invalid code"})

	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	events := col.all()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Action != "login_submit" || events[1].Action != "otp_verify" {
		t.Errorf("events = %+v", events)
	}
}

func TestLog_FillsTimestamp(t *testing.T) {
	col := &collector{}
	logger := New(10, WithHandler(col.handle))

	logger.Log(Event{Action: "session_cleared", Result: "success"})
	_ = logger.Close()

	events := col.all()
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].Timestamp.IsZero() {
		t.Error("timestamp not filled")
	}

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	logger = New(10, WithHandler(col.handle))
	logger.Log(Event{Action: "session_cleared", Timestamp: fixed})
	_ = logger.Close()

	events = col.all()
	if !events[len(events)-1].Timestamp.Equal(fixed) {
		t.Error("explicit timestamp was overwritten")
	}
}

func TestClose_DrainsQueue(t *testing.T) {
	col := &collector{}
	logger := New(100, WithHandler(col.handle))

	for i := 0; i < 50; i++ {
		logger.Log(Event{Action: "otp_resend", Result: "success"})
	}
	_ = logger.Close()

	if got := len(col.all()); got != 50 {
		t.Errorf("got %d events after Close, want 50", got)
	}
}

func TestLog_AfterCloseIsDropped(t *testing.T) {
	col := &collector{}
	logger := New(10, WithHandler(col.handle))
	_ = logger.Close()

	// Must not block or panic.
	logger.Log(Event{Action: "login_submit"})
}

func TestContextHelpers(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("expected nil logger from empty context")
	}
	if FlowID(context.Background()) != "" {
		t.Error("expected empty flow ID from empty context")
	}

	logger := New(1)
	defer func() { _ = logger.Close() }()

	ctx := WithContext(context.Background(), logger)
	ctx = WithFlowID(ctx, "flow-1")

	if FromContext(ctx) != logger {
		t.Error("logger not round-tripped through context")
	}
	if FlowID(ctx) != "flow-1" {
		t.Errorf("FlowID = %q", FlowID(ctx))
	}
}
