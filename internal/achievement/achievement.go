// Package achievement unlocks milestones as a student's record grows.
package achievement

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pavelanni/studentatlas/internal/analytics"
	"github.com/pavelanni/studentatlas/internal/grading"
	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/model"
	"github.com/pavelanni/studentatlas/internal/notify"
)

// Achievement IDs.
const (
	FirstSemester   = "first_semester"
	CGPA40          = "gpa_4_0"
	CGPA45          = "gpa_4_5"
	PerfectSemester = "perfect_semester"
	FiveSemesters   = "five_semesters"
	TenCourses      = "ten_courses"
	Improvement     = "improvement"
)

type definition struct {
	model.Achievement
	earned func(f facts) bool
}

type facts struct {
	gpas    []float64 // past semesters, oldest first
	cgpa    float64
	courses int
}

var definitions = []definition{
	{model.Achievement{ID: FirstSemester, Title: "Getting Started", Description: "Complete your first semester", Icon: "award"},
		func(f facts) bool { return len(f.gpas) >= 1 }},
	{model.Achievement{ID: CGPA40, Title: "Excellence", Description: "Achieve a CGPA of 4.0 or higher", Icon: "star"},
		func(f facts) bool { return f.cgpa >= 4.0 }},
	{model.Achievement{ID: CGPA45, Title: "Outstanding", Description: "Achieve a CGPA of 4.5 or higher", Icon: "zap"},
		func(f facts) bool { return f.cgpa >= 4.5 }},
	{model.Achievement{ID: PerfectSemester, Title: "Perfect Semester", Description: "Get a 5.0 GPA in a semester", Icon: "trending-up"},
		func(f facts) bool {
			for _, gpa := range f.gpas {
				if gpa == 5.0 {
					return true
				}
			}
			return false
		}},
	{model.Achievement{ID: FiveSemesters, Title: "Consistency", Description: "Complete 5 semesters", Icon: "calendar"},
		func(f facts) bool { return len(f.gpas) >= 5 }},
	{model.Achievement{ID: TenCourses, Title: "Dedicated Student", Description: "Complete 10 courses", Icon: "book"},
		func(f facts) bool { return f.courses >= 10 }},
	{model.Achievement{ID: Improvement, Title: "Rising Star", Description: "Improve your GPA for 3 consecutive semesters", Icon: "arrow-up"},
		func(f facts) bool {
			if len(f.gpas) < 3 {
				return false
			}
			last := f.gpas[len(f.gpas)-3:]
			return last[1] > last[0] && last[2] > last[1]
		}},
}

// Defaults returns every achievement, locked.
func Defaults() []model.Achievement {
	out := make([]model.Achievement, len(definitions))
	for i, d := range definitions {
		out[i] = d.Achievement
	}
	return out
}

// Merge lays stored states over the definitions. Unknown stored IDs are
// dropped.
func Merge(stored []model.Achievement) []model.Achievement {
	byID := make(map[string]model.Achievement, len(stored))
	for _, a := range stored {
		byID[a.ID] = a
	}
	out := Defaults()
	for i, a := range out {
		if s, ok := byID[a.ID]; ok && s.Unlocked {
			out[i].Unlocked = true
			out[i].UnlockedAt = s.UnlockedAt
		}
	}
	return out
}

// Evaluate unlocks every achievement the semesters now earn. It returns the
// full list and the ones unlocked by this call. Unlocking is one-way.
func Evaluate(semesters []model.Semester, stored []model.Achievement, now time.Time) (all, unlocked []model.Achievement) {
	past := analytics.Past(semesters)
	f := facts{cgpa: grading.CGPA(past)}
	for _, s := range past {
		f.gpas = append(f.gpas, grading.SemesterGPA(s.Courses))
		f.courses += len(s.Courses)
	}

	all = Merge(stored)
	at := now.UnixMilli()
	for i, d := range definitions {
		if all[i].Unlocked || !d.earned(f) {
			continue
		}
		all[i].Unlocked = true
		all[i].UnlockedAt = &at
		unlocked = append(unlocked, all[i])
	}
	return all, unlocked
}

// Store persists per-user achievement state.
type Store interface {
	LoadAchievements(ctx context.Context, userID string) ([]model.Achievement, error)
	SaveAchievements(ctx context.Context, userID string, achievements []model.Achievement) error
}

// Service checks and persists achievements and announces new ones.
// Checks for the same user run one at a time so an unlock is saved and
// announced once.
type Service struct {
	store    Store
	notifier notify.Notifier
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a Service. notifier may be nil.
func NewService(store Store, notifier notify.Notifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// List returns the user's achievements.
func (s *Service) List(ctx context.Context, userID string) ([]model.Achievement, error) {
	stored, err := s.store.LoadAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	return Merge(stored), nil
}

// Check evaluates semesters, saves any new unlocks and notifies about them.
func (s *Service) Check(ctx context.Context, userID string, semesters []model.Semester) ([]model.Achievement, error) {
	defer s.lock(userID)()

	stored, err := s.store.LoadAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	all, unlocked := Evaluate(semesters, stored, s.now())
	if len(unlocked) == 0 {
		return nil, nil
	}
	if err := s.store.SaveAchievements(ctx, userID, all); err != nil {
		return nil, fmt.Errorf("save achievements: %w", err)
	}
	for _, a := range unlocked {
		slog.Info("achievement unlocked", "user_id", userID, "achievement", a.ID)
		if s.notifier == nil {
			continue
		}
		err := s.notifier.Notify(ctx, notify.Notification{
			UserID: userID,
			Kind:   notify.KindAchievement,
			Title:  appI18n.T(ctx, "AchievementUnlocked"),
			Body:   Title(ctx, a) + ": " + Description(ctx, a),
			At:     s.now(),
		})
		if err != nil {
			slog.Warn("failed to send achievement notification", "user_id", userID, "error", err)
		}
	}
	return unlocked, nil
}

// OnChange is a tracker change callback that runs Check and logs failures.
func (s *Service) OnChange(ctx context.Context, userID string, semesters []model.Semester) {
	if _, err := s.Check(ctx, userID, semesters); err != nil {
		slog.Error("achievement check failed", "user_id", userID, "error", err)
	}
}

// Title returns the achievement's title in the context's language.
func Title(ctx context.Context, a model.Achievement) string {
	return appI18n.TOr(ctx, "Achievement_"+a.ID+"_title", a.Title)
}

// Description returns the achievement's description in the context's
// language.
func Description(ctx context.Context, a model.Achievement) string {
	return appI18n.TOr(ctx, "Achievement_"+a.ID+"_desc", a.Description)
}
