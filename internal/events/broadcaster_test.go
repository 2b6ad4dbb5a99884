package events

import (
	"fmt"
	"testing"
	"time"
)

func TestBroadcasterSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	if b.Count() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Count())
	}

	b.Unsubscribe(ch1)
	if b.Count() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", b.Count())
	}

	b.Unsubscribe(ch2)
	b.Unsubscribe(ch2)
	if b.Count() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Count())
	}
}

func TestBroadcasterPublish(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventListing, Path: "/docs"})

	select {
	case received := <-ch:
		if received.Type != EventListing || received.Path != "/docs" {
			t.Errorf("received %+v", received)
		}
		if received.Timestamp.IsZero() {
			t.Error("expected timestamp to be set")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroadcasterDropsForSlowConsumer(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < 100; i++ {
		b.Publish(Event{Type: EventOperation, Path: fmt.Sprint(i)})
	}
	if len(ch) != cap(ch) {
		t.Errorf("queued %d events, want buffer size %d", len(ch), cap(ch))
	}
}

func TestNotifyAndDrain(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventSelection})
	b.Notify(LevelError, "Failed to load files")
	b.Notify(LevelSuccess, "Deleted 1 item")

	notes := Drain(ch)
	if len(notes) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notes))
	}
	if notes[0].Level != LevelError || notes[0].Message != "Failed to load files" {
		t.Errorf("first = %+v", notes[0])
	}
	if len(Drain(ch)) != 0 {
		t.Error("second drain should be empty")
	}
}

func TestNilBroadcasterDiscards(t *testing.T) {
	var b *Broadcaster
	b.Publish(Event{Type: EventSession})
	b.Notify(LevelInfo, "ignored")
}

func TestInboxKeepsEveryNotification(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)
	in := b.SubscribeNotifications()
	defer b.UnsubscribeNotifications(in)

	if b.Count() != 2 {
		t.Fatalf("Count = %d, want 2", b.Count())
	}

	b.Notify(LevelError, "Failed to upload a.txt")
	for i := 0; i < 500; i++ {
		b.Publish(Event{Type: EventOperation, Path: fmt.Sprint(i)})
	}
	b.Notify(LevelSuccess, "Uploaded b.bin")
	b.Notify(LevelError, "Failed to upload c.txt")

	notes := in.Drain()
	want := []string{"Failed to upload a.txt", "Uploaded b.bin", "Failed to upload c.txt"}
	if len(notes) != len(want) {
		t.Fatalf("got %d notifications, want %d: %+v", len(notes), len(want), notes)
	}
	for i, n := range notes {
		if n.Message != want[i] {
			t.Errorf("notes[%d] = %q, want %q", i, n.Message, want[i])
		}
	}
	if len(in.Drain()) != 0 {
		t.Error("second drain should be empty")
	}

	b.UnsubscribeNotifications(in)
	b.Notify(LevelInfo, "after")
	if len(in.Drain()) != 0 {
		t.Error("unsubscribed inbox still receives notifications")
	}
}
