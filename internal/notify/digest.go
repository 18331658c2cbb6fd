package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pavelanni/studentatlas/internal/analytics"
	"github.com/pavelanni/studentatlas/internal/grading"
	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/model"
)

// Directory lists the known users.
type Directory interface {
	ListUsers(ctx context.Context) ([]model.User, error)
}

// SemesterSource loads a user's semesters.
type SemesterSource interface {
	ListSemesters(ctx context.Context, userID string) ([]model.Semester, error)
}

// Digest summarizes a user's progress in their language. ok is false when
// there is nothing to report.
func Digest(ctx context.Context, u model.User, semesters []model.Semester, now time.Time) (n Notification, ok bool) {
	if len(semesters) == 0 {
		return Notification{}, false
	}
	pending := 0
	for _, s := range semesters {
		if s.Type != model.SemesterCurrent {
			continue
		}
		for _, c := range s.Courses {
			if !c.Graded() {
				pending++
			}
		}
	}
	ctx = appI18n.WithLang(ctx, u.Lang)
	return Notification{
		UserID: u.ID,
		Kind:   KindDigest,
		Title:  appI18n.T(ctx, "DigestTitle"),
		Body: appI18n.Td(ctx, "DigestBody", map[string]any{
			"CGPA":      fmt.Sprintf("%.2f", grading.CGPA(semesters)),
			"Predicted": fmt.Sprintf("%.2f", grading.PredictedCGPA(semesters)),
			"Pending":   pending,
		}),
		At: now,
	}, true
}

// DigestJob returns a scheduler job that sends every user their digest.
func DigestJob(users Directory, source SemesterSource, n Notifier) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		list, err := users.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		var errs []error
		sent := 0
		for _, u := range list {
			sems, err := source.ListSemesters(ctx, u.ID)
			if err != nil {
				errs = append(errs, fmt.Errorf("load %s: %w", u.ID, err))
				continue
			}
			d, ok := Digest(ctx, u, sems, time.Now())
			if !ok {
				continue
			}
			if err := n.Notify(ctx, d); err != nil {
				errs = append(errs, fmt.Errorf("notify %s: %w", u.ID, err))
				continue
			}
			sent++
		}
		slog.Info("sent digests", "count", sent)
		return errors.Join(errs...)
	}
}

// RiskWatcher alerts once when a current course's target grade slips out
// of reach.
type RiskWatcher struct {
	notifier Notifier
	now      func() time.Time

	mu     sync.Mutex
	warned map[string]bool
}

// NewRiskWatcher creates a RiskWatcher.
func NewRiskWatcher(n Notifier) *RiskWatcher {
	return &RiskWatcher{notifier: n, now: time.Now, warned: make(map[string]bool)}
}

// OnChange is a tracker change callback.
func (rw *RiskWatcher) OnChange(ctx context.Context, userID string, semesters []model.Semester) {
	for _, s := range semesters {
		if s.Type != model.SemesterCurrent {
			continue
		}
		for _, ct := range analytics.AtRisk(s) {
			key := userID + "/" + ct.Course.ID + "/" + string(ct.Course.TargetGrade)
			rw.mu.Lock()
			seen := rw.warned[key]
			rw.warned[key] = true
			rw.mu.Unlock()
			if seen {
				continue
			}
			floor, _ := grading.Band(ct.Target.TargetGrade)
			err := rw.notifier.Notify(ctx, Notification{
				UserID: userID,
				Kind:   KindAtRisk,
				Title:  appI18n.T(ctx, "AtRisk"),
				Body: appI18n.Td(ctx, "AtRiskBody", map[string]any{
					"Course":   ct.Course.Name,
					"Grade":    string(ct.Target.TargetGrade),
					"Required": fmt.Sprintf("%.1f", floor-ct.Target.CATotal),
				}),
				At: rw.now(),
			})
			if err != nil {
				slog.Warn("failed to send at-risk notification", "user_id", userID, "course_id", ct.Course.ID, "error", err)
			}
		}
	}
}
