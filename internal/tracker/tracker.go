// Package tracker applies the semester and course mutation rules on top of
// a per-user semester store.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pavelanni/studentatlas/internal/grading"
	"github.com/pavelanni/studentatlas/internal/model"
)

// Repository persists a user's semester collection.
type Repository interface {
	LoadSemesters(ctx context.Context, userID string) ([]model.Semester, int64, error)
	SaveSemesters(ctx context.Context, userID string, semesters []model.Semester, version int64) (int64, error)
	DeleteSemesters(ctx context.Context, userID string) error
}

// ChangeFunc is called after a successful write with the saved collection.
type ChangeFunc func(ctx context.Context, userID string, semesters []model.Semester)

// Tracker serializes mutations per user and keeps the derived fields of
// every semester in step with its courses.
type Tracker struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
	onChange []ChangeFunc

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source used for semester timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithChangeFunc registers a callback run after every saved mutation.
func WithChangeFunc(fn ChangeFunc) Option {
	return func(t *Tracker) { t.onChange = append(t.onChange, fn) }
}

// New creates a Tracker backed by repo.
func New(repo Repository, opts ...Option) *Tracker {
	t := &Tracker{
		repo:     repo,
		validate: newValidator(),
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Tracker) lock(userID string) func() {
	t.mu.Lock()
	l, ok := t.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[userID] = l
	}
	t.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// ListSemesters returns the user's semesters in insertion order.
func (t *Tracker) ListSemesters(ctx context.Context, userID string) ([]model.Semester, error) {
	semesters, _, err := t.repo.LoadSemesters(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load semesters: %w: %w", ErrStorage, err)
	}
	return semesters, nil
}

// GetSemester returns one semester.
func (t *Tracker) GetSemester(ctx context.Context, userID, semesterID string) (model.Semester, error) {
	semesters, err := t.ListSemesters(ctx, userID)
	if err != nil {
		return model.Semester{}, err
	}
	i := indexOf(semesters, semesterID)
	if i < 0 {
		return model.Semester{}, ErrSemesterNotFound
	}
	return semesters[i], nil
}

// CreateSemester adds an empty semester. At most one current semester may
// exist; the check runs before anything is written.
func (t *Tracker) CreateSemester(ctx context.Context, userID string, in SemesterInput) (model.Semester, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := t.validate.Struct(in); err != nil {
		return model.Semester{}, newValidationError(err)
	}
	var created model.Semester
	_, err := t.mutate(ctx, userID, func(semesters []model.Semester) ([]model.Semester, error) {
		if in.Type == model.SemesterCurrent && currentIndex(semesters) >= 0 {
			return nil, ErrCurrentExists
		}
		created = model.Semester{
			ID:        "sem_" + uuid.NewString(),
			Name:      in.Name,
			Type:      in.Type,
			Timestamp: t.now().UnixMilli(),
			Courses:   []model.Course{},
		}
		return append(semesters, created), nil
	})
	if err != nil {
		return model.Semester{}, err
	}
	slog.Info("created semester", "user_id", userID, "semester_id", created.ID, "type", created.Type)
	return created, nil
}

// UpdateSemester renames a semester or converts the current one to past.
func (t *Tracker) UpdateSemester(ctx context.Context, userID, semesterID string, up SemesterUpdate) (model.Semester, error) {
	if up.Name != nil {
		name := strings.TrimSpace(*up.Name)
		if err := t.validate.Var(name, "required,max=100"); err != nil {
			return model.Semester{}, &ValidationError{Fields: map[string]string{"name": "is required and at most 100 characters"}, err: err}
		}
		up.Name = &name
	}
	if up.Type != nil {
		if err := t.validate.Var(string(*up.Type), "oneof=current past"); err != nil {
			return model.Semester{}, &ValidationError{Fields: map[string]string{"type": "must be one of current past"}, err: err}
		}
	}
	var updated model.Semester
	_, err := t.mutate(ctx, userID, func(semesters []model.Semester) ([]model.Semester, error) {
		i := indexOf(semesters, semesterID)
		if i < 0 {
			return nil, ErrSemesterNotFound
		}
		s := semesters[i]
		if up.Name != nil {
			s.Name = *up.Name
		}
		if up.Type != nil && *up.Type != s.Type {
			if *up.Type == model.SemesterCurrent {
				return nil, ErrPastIsFinal
			}
			s.Type = *up.Type
		}
		settle(&s)
		semesters[i] = s
		updated = s
		return semesters, nil
	})
	return updated, err
}

// DeleteSemester removes a semester and its courses.
func (t *Tracker) DeleteSemester(ctx context.Context, userID, semesterID string) error {
	_, err := t.mutate(ctx, userID, func(semesters []model.Semester) ([]model.Semester, error) {
		i := indexOf(semesters, semesterID)
		if i < 0 {
			return nil, ErrSemesterNotFound
		}
		return append(semesters[:i], semesters[i+1:]...), nil
	})
	if err == nil {
		slog.Info("deleted semester", "user_id", userID, "semester_id", semesterID)
	}
	return err
}

// AddCourse appends a course to a semester and recomputes its GPA.
func (t *Tracker) AddCourse(ctx context.Context, userID, semesterID string, in CourseInput) (model.Course, error) {
	if err := t.validate.Struct(in); err != nil {
		return model.Course{}, newValidationError(err)
	}
	course := in.course("course_" + uuid.NewString())
	_, err := t.mutate(ctx, userID, func(semesters []model.Semester) ([]model.Semester, error) {
		i := indexOf(semesters, semesterID)
		if i < 0 {
			return nil, ErrSemesterNotFound
		}
		s := semesters[i]
		s.Courses = append(s.Courses, course)
		settle(&s)
		semesters[i] = s
		course = s.Courses[len(s.Courses)-1]
		return semesters, nil
	})
	if err != nil {
		return model.Course{}, err
	}
	return course, nil
}

// UpdateCourse edits a course, recomputes the semester GPA and moves a
// current semester to past once every course has a final score.
func (t *Tracker) UpdateCourse(ctx context.Context, userID, semesterID, courseID string, up CourseUpdate) (model.Semester, error) {
	var updated model.Semester
	_, err := t.mutate(ctx, userID, func(semesters []model.Semester) ([]model.Semester, error) {
		i := indexOf(semesters, semesterID)
		if i < 0 {
			return nil, ErrSemesterNotFound
		}
		s := semesters[i]
		j := s.CourseIndex(courseID)
		if j < 0 {
			return nil, ErrCourseNotFound
		}
		c := up.apply(s.Courses[j])
		if err := t.validate.Struct(inputOf(c)); err != nil {
			return nil, newValidationError(err)
		}
		courses := make([]model.Course, len(s.Courses))
		copy(courses, s.Courses)
		courses[j] = c
		s.Courses = courses
		wasCurrent := s.Type == model.SemesterCurrent
		settle(&s)
		if wasCurrent && s.Type == model.SemesterPast {
			slog.Info("semester completed", "user_id", userID, "semester_id", s.ID, "gpa", s.GPA)
		}
		semesters[i] = s
		updated = s
		return semesters, nil
	})
	return updated, err
}

// DeleteCourse removes a course from a semester.
func (t *Tracker) DeleteCourse(ctx context.Context, userID, semesterID, courseID string) (model.Semester, error) {
	var updated model.Semester
	_, err := t.mutate(ctx, userID, func(semesters []model.Semester) ([]model.Semester, error) {
		i := indexOf(semesters, semesterID)
		if i < 0 {
			return nil, ErrSemesterNotFound
		}
		s := semesters[i]
		j := s.CourseIndex(courseID)
		if j < 0 {
			return nil, ErrCourseNotFound
		}
		courses := make([]model.Course, 0, len(s.Courses)-1)
		courses = append(courses, s.Courses[:j]...)
		courses = append(courses, s.Courses[j+1:]...)
		s.Courses = courses
		settle(&s)
		semesters[i] = s
		updated = s
		return semesters, nil
	})
	return updated, err
}

// DeleteAll removes every semester the user has.
func (t *Tracker) DeleteAll(ctx context.Context, userID string) error {
	unlock := t.lock(userID)
	defer unlock()
	if err := t.repo.DeleteSemesters(ctx, userID); err != nil {
		return fmt.Errorf("delete semesters: %w: %w", ErrStorage, err)
	}
	slog.Info("deleted all semesters", "user_id", userID)
	return nil
}

// ReplaceAll swaps the user's collection for semesters, as when restoring a
// backup. Courses are validated, missing ids assigned and derived fields
// recomputed. More than one current semester is rejected.
func (t *Tracker) ReplaceAll(ctx context.Context, userID string, semesters []model.Semester) ([]model.Semester, error) {
	next := make([]model.Semester, 0, len(semesters))
	current := 0
	for _, s := range semesters {
		if s.Type != model.SemesterCurrent && s.Type != model.SemesterPast {
			return nil, &ValidationError{Fields: map[string]string{"type": "must be one of current past"}}
		}
		if s.Type == model.SemesterCurrent {
			current++
		}
		if s.ID == "" {
			s.ID = "sem_" + uuid.NewString()
		}
		if s.Timestamp == 0 {
			s.Timestamp = t.now().UnixMilli()
		}
		courses := make([]model.Course, 0, len(s.Courses))
		for _, c := range s.Courses {
			if err := t.validate.Struct(inputOf(c)); err != nil {
				return nil, newValidationError(err)
			}
			if c.ID == "" {
				c.ID = "course_" + uuid.NewString()
			}
			courses = append(courses, c)
		}
		s.Courses = courses
		settle(&s)
		next = append(next, s)
	}
	if current > 1 {
		return nil, ErrCurrentExists
	}
	return t.mutate(ctx, userID, func([]model.Semester) ([]model.Semester, error) {
		return next, nil
	})
}

// mutate runs a read-modify-write of the user's collection under the
// user's lock. fn may modify and return the slice it is given.
func (t *Tracker) mutate(ctx context.Context, userID string, fn func([]model.Semester) ([]model.Semester, error)) ([]model.Semester, error) {
	unlock := t.lock(userID)
	semesters, version, err := t.repo.LoadSemesters(ctx, userID)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("load semesters: %w: %w", ErrStorage, err)
	}
	next, err := fn(semesters)
	if err != nil {
		unlock()
		return nil, err
	}
	if _, err := t.repo.SaveSemesters(ctx, userID, next, version); err != nil {
		unlock()
		slog.Error("failed to save semesters", "user_id", userID, "error", err)
		return nil, fmt.Errorf("save semesters: %w: %w", ErrStorage, err)
	}
	unlock()

	for _, cb := range t.onChange {
		cb(ctx, userID, next)
	}
	return next, nil
}

// settle recomputes a semester's derived fields and applies the one-way
// current to past transition. Course grades follow the effective score, so
// an ungraded course carries its predicted grade. Only the current semester
// carries a predicted GPA.
func settle(s *model.Semester) {
	for i := range s.Courses {
		s.Courses[i].Grade = grading.CourseGrade(s.Courses[i])
	}
	s.GPA = grading.SemesterGPA(s.Courses)
	if s.Type == model.SemesterCurrent && allGraded(s.Courses) {
		s.Type = model.SemesterPast
	}
	s.PredictedGPA = nil
	if s.Type == model.SemesterCurrent {
		predicted := s.GPA
		s.PredictedGPA = &predicted
	}
}

func allGraded(courses []model.Course) bool {
	if len(courses) == 0 {
		return false
	}
	for _, c := range courses {
		if !c.Graded() {
			return false
		}
	}
	return true
}

func indexOf(semesters []model.Semester, id string) int {
	for i, s := range semesters {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func currentIndex(semesters []model.Semester) int {
	for i, s := range semesters {
		if s.Type == model.SemesterCurrent {
			return i
		}
	}
	return -1
}

// Current returns the user's current semester, if any.
func Current(semesters []model.Semester) (model.Semester, bool) {
	i := currentIndex(semesters)
	if i < 0 {
		return model.Semester{}, false
	}
	return semesters[i], true
}
