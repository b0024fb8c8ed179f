package dispatch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/registry"
)

func testEvent(from, to string) *domain.MessageEvent {
	return &domain.MessageEvent{
		ID:          "msg-1",
		FromUser:    domain.UserRef{ID: from, Username: "sender"},
		ToUser:      domain.UserRef{ID: to, Username: "recipient"},
		Text:        "hello",
		MessageType: domain.MessageTypeText,
		CreatedAt:   time.Now(),
	}
}

func recv(t *testing.T, ch *registry.Channel) []byte {
	t.Helper()
	select {
	case p := <-ch.Events():
		return p
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
		return nil
	}
}

func TestDispatchBothPartiesOnline(t *testing.T) {
	reg := registry.NewRegistry()
	d := NewDispatcher(reg)

	sender := registry.NewChannel()
	recipient := registry.NewChannel()
	reg.Register("a", sender)
	reg.Register("b", recipient)

	d.Dispatch(testEvent("a", "b"))

	for _, ch := range []*registry.Channel{sender, recipient} {
		payload := recv(t, ch)
		var event domain.MessageEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if event.ID != "msg-1" {
			t.Errorf("id = %q, want msg-1", event.ID)
		}
		if event.FromUser.ID != "a" || event.ToUser.ID != "b" {
			t.Errorf("participants = %s -> %s, want a -> b", event.FromUser.ID, event.ToUser.ID)
		}
	}
}

func TestDispatchRecipientOffline(t *testing.T) {
	reg := registry.NewRegistry()
	d := NewDispatcher(reg)

	sender := registry.NewChannel()
	reg.Register("a", sender)

	d.Dispatch(testEvent("a", "b"))

	// Sender still gets its echo even though the recipient is gone.
	payload := recv(t, sender)
	if len(payload) == 0 {
		t.Fatal("empty payload")
	}
}

func TestDispatchSaturatedRecipientDoesNotBlock(t *testing.T) {
	reg := registry.NewRegistry()
	d := NewDispatcher(reg)

	sender := registry.NewChannel()
	recipient := registry.NewChannel()
	reg.Register("a", sender)
	reg.Register("b", recipient)

	// Fill the recipient's buffer so the next offer must drop.
	for recipient.Offer([]byte("x")) {
	}

	done := make(chan struct{})
	go func() {
		d.Dispatch(testEvent("a", "b"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on saturated channel")
	}

	// Sender delivery is independent of the recipient drop.
	recv(t, sender)
}

func TestDispatchNobodyOnline(t *testing.T) {
	reg := registry.NewRegistry()
	d := NewDispatcher(reg)

	// Must not panic or block.
	d.Dispatch(testEvent("a", "b"))
}

func TestDispatchSelfConversation(t *testing.T) {
	reg := registry.NewRegistry()
	d := NewDispatcher(reg)

	ch := registry.NewChannel()
	reg.Register("a", ch)

	d.Dispatch(testEvent("a", "a"))

	// Same channel is offered twice: once as recipient, once as sender.
	recv(t, ch)
	recv(t, ch)
}
