package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventCombat     EventType = "combat"
	EventKill       EventType = "kill"
	EventDeath      EventType = "death"
	EventLevelUp    EventType = "levelup"
	EventLoot       EventType = "loot"
	EventGather     EventType = "gather"
	EventTransition EventType = "transition"
	EventGateSurge  EventType = "gate.surge"
	EventGateFaded  EventType = "gate.faded"
	EventGateOpened EventType = "gate.opened"
	EventChat       EventType = "chat"
	EventSystem     EventType = "system"
)

// Event is one zone event. Events are immutable once appended.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	ZoneID    string            `json:"zoneId"`
	Tick      int64             `json:"tick"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	ActorID   string            `json:"actorId,omitempty"`
	TargetID  string            `json:"targetId,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// New builds an event with a fresh id and timestamp
func New(typ EventType, zoneID string, tick int64, message string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      typ,
		ZoneID:    zoneID,
		Tick:      tick,
		Timestamp: time.Now(),
		Message:   message,
	}
}

// Log is a bounded ring of a zone's recent events. Appends evict the oldest
// entry once capacity is reached; reads return copies in append order.
type Log struct {
	mu       sync.RWMutex
	entries  []*Event
	capacity int
}

// NewLog creates a ring log holding at most capacity events
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 1
	}
	return &Log{capacity: capacity}
}

// Append adds an event to the ring
func (l *Log) Append(e *Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
}

// Since returns up to limit events with Timestamp strictly after since,
// oldest first. limit <= 0 means no limit.
func (l *Log) Since(since time.Time, limit int) []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*Event
	for _, e := range l.entries {
		if e.Timestamp.After(since) {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of retained events
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Subscription is a live event stream, optionally scoped to a single zone.
// Receive on C; a subscription that falls behind loses events rather than
// stalling the zone that produced them, and Dropped counts the losses so a
// client knows to re-sync from the ring log.
type Subscription struct {
	ZoneID string      // empty subscribes to every zone
	C      chan *Event // receive side

	dropped atomic.Int64
}

// Dropped reports how many events this subscription missed because its
// channel was full
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Feed distributes zone events to streaming subscribers. Zone ticks publish
// into a buffered intake sized to the ring capacity, so the simulation
// never blocks on a consumer; fanout and zone filtering happen on the
// feed's own goroutine.
type Feed struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	intake chan *Event
	quit   chan struct{}
	done   chan struct{}
}

// NewFeed creates a feed; call Start before publishing
func NewFeed() *Feed {
	return &Feed{
		subs:   make(map[*Subscription]struct{}),
		intake: make(chan *Event, 256), // matches the per-zone ring capacity
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins the fanout loop
func (f *Feed) Start() {
	go f.loop()
}

// Stop ends the fanout loop and waits for it to drain
func (f *Feed) Stop() {
	close(f.quit)
	<-f.done
}

// Subscribe registers a stream for one zone, or for every zone when zoneID
// is empty
func (f *Feed) Subscribe(zoneID string) *Subscription {
	sub := &Subscription{
		ZoneID: zoneID,
		C:      make(chan *Event, 64),
	}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

// Cancel removes a subscription and closes its channel
func (f *Feed) Cancel(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[sub]; ok {
		delete(f.subs, sub)
		close(sub.C)
	}
}

// Publish hands an event to the feed. Never blocks the caller beyond the
// intake buffer; events published after Stop are discarded.
func (f *Feed) Publish(e *Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case f.intake <- e:
	case <-f.quit:
	}
}

func (f *Feed) loop() {
	defer close(f.done)
	for {
		select {
		case e := <-f.intake:
			f.fanout(e)
		case <-f.quit:
			// Flush whatever the zones already published
			for {
				select {
				case e := <-f.intake:
					f.fanout(e)
				default:
					return
				}
			}
		}
	}
}

func (f *Feed) fanout(e *Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.subs {
		if sub.ZoneID != "" && sub.ZoneID != e.ZoneID {
			continue
		}
		select {
		case sub.C <- e:
		default:
			sub.dropped.Add(1)
		}
	}
}

// SubscriberCount returns the number of live subscriptions
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
