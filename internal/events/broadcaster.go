// Package events fans out store changes and notifications to subscribers.
package events

import (
	"sync"
	"time"

	"github.com/transferdesk/transferdesk/internal/metrics"
)

const (
	EventSession   = "session"
	EventListing   = "listing"
	EventSelection = "selection"
	EventClipboard = "clipboard"
	EventOperation = "operation"
	EventAdmin     = "admin"
	EventNotify    = "notify"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a user-facing message (a toast).
type Notification struct {
	Level   Level
	Message string
}

// Event is a store change. Notify events carry a Notification.
type Event struct {
	Type         string
	Path         string // listing path, operation id or admin resource
	Notification *Notification
	Timestamp    time.Time
}

// Broadcaster manages subscribers and publishes events. A nil Broadcaster
// discards everything.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	inboxes     map[*Inbox]struct{}
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
		inboxes:     make(map[*Inbox]struct{}),
	}
}

// Inbox queues the notifications of one reader. It never drops.
type Inbox struct {
	mu    sync.Mutex
	queue []Notification
}

func (in *Inbox) push(n Notification) {
	in.mu.Lock()
	in.queue = append(in.queue, n)
	in.mu.Unlock()
}

// Drain returns the queued notifications in publish order and empties
// the inbox.
func (in *Inbox) Drain() []Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := in.queue
	in.queue = nil
	return out
}

// SubscribeNotifications registers an inbox that receives every
// notification. The caller must call UnsubscribeNotifications when done.
func (b *Broadcaster) SubscribeNotifications() *Inbox {
	in := &Inbox{}
	b.mu.Lock()
	b.inboxes[in] = struct{}{}
	n := len(b.subscribers) + len(b.inboxes)
	b.mu.Unlock()
	metrics.SetEventSubscribers(n)
	return in
}

// UnsubscribeNotifications removes an inbox.
func (b *Broadcaster) UnsubscribeNotifications(in *Inbox) {
	b.mu.Lock()
	delete(b.inboxes, in)
	n := len(b.subscribers) + len(b.inboxes)
	b.mu.Unlock()
	metrics.SetEventSubscribers(n)
}

// Subscribe adds a new subscriber and returns its event channel.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	n := len(b.subscribers) + len(b.inboxes)
	b.mu.Unlock()
	metrics.SetEventSubscribers(n)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	n := len(b.subscribers) + len(b.inboxes)
	b.mu.Unlock()
	metrics.SetEventSubscribers(n)
}

// Publish sends an event to all subscribers. Non-blocking: drops events
// for slow consumers. Notifications are also queued on every inbox.
func (b *Broadcaster) Publish(event Event) {
	if b == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	if event.Notification != nil {
		for in := range b.inboxes {
			in.push(*event.Notification)
		}
	}
	metrics.RecordEvent(event.Type)
}

// Notify publishes a notification.
func (b *Broadcaster) Notify(level Level, message string) {
	b.Publish(Event{Type: EventNotify, Notification: &Notification{Level: level, Message: message}})
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers) + len(b.inboxes)
}

// Drain returns the notifications already queued on ch without blocking.
// Other event types are discarded.
func Drain(ch <-chan Event) []Notification {
	var out []Notification
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			if ev.Notification != nil {
				out = append(out, *ev.Notification)
			}
		default:
			return out
		}
	}
}
