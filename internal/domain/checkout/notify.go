package checkout

import (
	"sync"
	"time"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one user-visible message.
type Notification struct {
	Seq     uint64    `json:"seq"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	At      time.Time `json:"at"`
}

// DefaultFeedSize bounds the notification feed.
const DefaultFeedSize = 50

// Feed is the single channel through which checkout outcomes reach the user.
// When full, the oldest notification is dropped.
type Feed struct {
	mu    sync.Mutex
	items []Notification
	size  int
	seq   uint64
	now   func() time.Time
}

// NewFeed creates a feed holding at most size notifications.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{size: size, now: time.Now}
}

// Push appends a notification.
func (f *Feed) Push(level Level, code, message string) Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	n := Notification{Seq: f.seq, Level: level, Message: message, Code: code, At: f.now()}
	f.items = append(f.items, n)
	if len(f.items) > f.size {
		f.items = append([]Notification(nil), f.items[len(f.items)-f.size:]...)
	}
	return n
}

// Drain returns and clears all pending notifications.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.items
	f.items = nil
	return out
}

// Len returns the number of pending notifications.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
