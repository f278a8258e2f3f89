package editor

import "sync"

// Envelope is a request waiting in the inbox.
type Envelope struct {
	Seq     uint64
	Request Request
}

// seenCapacity is how many recent request IDs are remembered for dedupe.
const seenCapacity = 1024

// Inbox is the single delivery point for editor requests. Requests wait until
// acknowledged; an acknowledged request is never delivered again, and a request
// whose ID is among the recently seen ones is dropped on Post.
type Inbox struct {
	mu      sync.Mutex
	seq     uint64
	pending []Envelope
	notify  chan struct{}

	// seen holds the IDs in ring; the oldest is forgotten once ring is full.
	seen map[string]struct{}
	ring []string
	next int
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return newInbox(seenCapacity)
}

func newInbox(capacity int) *Inbox {
	return &Inbox{
		seen:   make(map[string]struct{}, capacity),
		ring:   make([]string, capacity),
		notify: make(chan struct{}, 1),
	}
}

func (in *Inbox) remember(id string) {
	if old := in.ring[in.next]; old != "" {
		delete(in.seen, old)
	}
	in.ring[in.next] = id
	in.next = (in.next + 1) % len(in.ring)
	in.seen[id] = struct{}{}
}

// Post enqueues a request. It returns false when the request is a re-delivery.
func (in *Inbox) Post(r Request) (uint64, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if r.ID != "" {
		if _, dup := in.seen[r.ID]; dup {
			return 0, false
		}
		in.remember(r.ID)
	}
	in.seq++
	in.pending = append(in.pending, Envelope{Seq: in.seq, Request: r})

	select {
	case in.notify <- struct{}{}:
	default:
	}
	return in.seq, true
}

// Peek returns the oldest unacknowledged request.
func (in *Inbox) Peek() (Envelope, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.pending) == 0 {
		return Envelope{}, false
	}
	return in.pending[0], true
}

// Ack clears a request. Acknowledging twice is harmless.
func (in *Inbox) Ack(seq uint64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i, e := range in.pending {
		if e.Seq == seq {
			in.pending = append(in.pending[:i:i], in.pending[i+1:]...)
			return
		}
	}
}

// Len returns the number of unacknowledged requests.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending)
}

// Notify fires (coalesced) after every successful Post.
func (in *Inbox) Notify() <-chan struct{} { return in.notify }
