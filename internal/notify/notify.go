// Package notify delivers user-facing notifications and runs the
// periodic digest job.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Kinds of notification.
const (
	KindAchievement = "achievement"
	KindAtRisk      = "at_risk"
	KindDigest      = "digest"
)

// Notification is a message for one user.
type Notification struct {
	UserID string    `json:"userId"`
	Kind   string    `json:"kind"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	At     time.Time `json:"at"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	slog.Info("notification", "user_id", n.UserID, "kind", n.Kind, "title", n.Title, "body", n.Body)
	return nil
}

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []Notification
}

// NewRecorder keeps at most limit notifications.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if over := len(r.items) - r.limit; r.limit > 0 && over > 0 {
		r.items = append(r.items[:0:0], r.items[over:]...)
	}
	return nil
}

// Recent returns a user's notifications, newest first.
func (r *Recorder) Recent(userID string) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID == userID {
			out = append(out, r.items[i])
		}
	}
	return out
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
