package notify

import (
	"context"
	"errors"
	"testing"
)

type failing struct{}

func (failing) Notify(context.Context, Notification) error { return errors.New("offline") }

func TestRecorderKeepsNewestPerUser(t *testing.T) {
	r := NewRecorder(3)
	ctx := context.Background()
	for _, n := range []Notification{
		{UserID: "a", Title: "1"},
		{UserID: "b", Title: "2"},
		{UserID: "a", Title: "3"},
		{UserID: "a", Title: "4"},
	} {
		if err := r.Notify(ctx, n); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	got := r.Recent("a")
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications for a, got %d", len(got))
	}
	if got[0].Title != "4" || got[1].Title != "3" {
		t.Errorf("expected newest first, got %q then %q", got[0].Title, got[1].Title)
	}
	if len(r.Recent("b")) != 1 {
		t.Errorf("expected 1 notification for b")
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	r := NewRecorder(10)
	m := Multi{failing{}, r, LogNotifier{}}

	err := m.Notify(context.Background(), Notification{UserID: "a", Title: "x"})
	if err == nil {
		t.Fatal("expected error from failing notifier")
	}
	if len(r.Recent("a")) != 1 {
		t.Error("later notifiers should still run")
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler()
	err := s.Add("bad", "not a schedule", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := s.Add("daily", "@daily", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Add(@daily): %v", err)
	}
	s.Start()
	s.Stop()
}
