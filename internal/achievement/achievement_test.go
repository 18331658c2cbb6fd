package achievement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/studentatlas/internal/grading"
	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/model"
	"github.com/pavelanni/studentatlas/internal/notify"
	"github.com/pavelanni/studentatlas/internal/store"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	m.Run()
}

func graded(score float64, units int) model.Course {
	return model.Course{Name: "c", UnitHours: units, TargetGrade: model.GradeA, Difficulty: 3, FinalScore: &score}
}

func past(ts int64, courses ...model.Course) model.Semester {
	return model.Semester{
		Type:      model.SemesterPast,
		Timestamp: ts,
		Courses:   courses,
		GPA:       grading.SemesterGPA(courses),
	}
}

func unlockedIDs(as []model.Achievement) []string {
	var ids []string
	for _, a := range as {
		if a.Unlocked {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestEvaluateEmpty(t *testing.T) {
	all, unlocked := Evaluate(nil, nil, time.Now())
	assert.Len(t, all, 7)
	assert.Empty(t, unlocked)
	assert.Empty(t, unlockedIDs(all))
}

func TestEvaluateFirstSemester(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	sems := []model.Semester{past(1, graded(55, 3))}
	all, unlocked := Evaluate(sems, nil, now)
	require.Len(t, unlocked, 1)
	assert.Equal(t, FirstSemester, unlocked[0].ID)
	require.NotNil(t, unlocked[0].UnlockedAt)
	assert.Equal(t, int64(1700000000000), *unlocked[0].UnlockedAt)
	assert.Equal(t, []string{FirstSemester}, unlockedIDs(all))
}

func TestEvaluatePerfectSemester(t *testing.T) {
	sems := []model.Semester{past(1, graded(90, 3), graded(85, 2))}
	_, unlocked := Evaluate(sems, nil, time.Now())
	ids := unlockedIDs(unlocked)
	assert.ElementsMatch(t, []string{FirstSemester, CGPA40, CGPA45, PerfectSemester}, ids)
}

func TestEvaluateImprovement(t *testing.T) {
	sems := []model.Semester{
		past(3, graded(65, 3)), // 4.0
		past(1, graded(45, 3)), // 2.0
		past(2, graded(55, 3)), // 3.0
	}
	_, unlocked := Evaluate(sems, nil, time.Now())
	assert.Contains(t, unlockedIDs(unlocked), Improvement)

	flat := []model.Semester{past(1, graded(55, 3)), past(2, graded(55, 3)), past(3, graded(65, 3))}
	_, unlocked = Evaluate(flat, nil, time.Now())
	assert.NotContains(t, unlockedIDs(unlocked), Improvement)
}

func TestEvaluateCounts(t *testing.T) {
	var sems []model.Semester
	for i := 0; i < 5; i++ {
		sems = append(sems, past(int64(i), graded(45, 2), graded(45, 2)))
	}
	_, unlocked := Evaluate(sems, nil, time.Now())
	ids := unlockedIDs(unlocked)
	assert.Contains(t, ids, FiveSemesters)
	assert.Contains(t, ids, TenCourses)
	assert.NotContains(t, ids, CGPA40)
}

func TestEvaluateIgnoresCurrent(t *testing.T) {
	sems := []model.Semester{{Type: model.SemesterCurrent, Courses: []model.Course{graded(95, 3)}}}
	_, unlocked := Evaluate(sems, nil, time.Now())
	assert.Empty(t, unlocked)
}

func TestUnlockIsOneWay(t *testing.T) {
	at := int64(42)
	stored := []model.Achievement{{ID: CGPA45, Unlocked: true, UnlockedAt: &at}}
	all, unlocked := Evaluate(nil, stored, time.Now())
	assert.Empty(t, unlocked)
	assert.Equal(t, []string{CGPA45}, unlockedIDs(all))
	for _, a := range all {
		if a.ID == CGPA45 {
			assert.Equal(t, int64(42), *a.UnlockedAt)
			assert.Equal(t, "Outstanding", a.Title)
		}
	}
}

func TestMergeDropsUnknown(t *testing.T) {
	all := Merge([]model.Achievement{{ID: "retired", Unlocked: true}})
	assert.Len(t, all, 7)
	assert.Empty(t, unlockedIDs(all))
}

func TestServiceCheck(t *testing.T) {
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	rec := notify.NewRecorder(10)
	svc := NewService(s, rec)
	ctx := context.Background()
	sems := []model.Semester{past(1, graded(55, 3))}

	unlocked, err := svc.Check(ctx, "u1", sems)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)

	got := rec.Recent("u1")
	require.Len(t, got, 1)
	assert.Equal(t, notify.KindAchievement, got[0].Kind)
	assert.Equal(t, "Achievement Unlocked!", got[0].Title)
	assert.Equal(t, "Getting Started: Complete your first semester", got[0].Body)

	// Already unlocked: nothing new, no second notification.
	unlocked, err = svc.Check(ctx, "u1", sems)
	require.NoError(t, err)
	assert.Empty(t, unlocked)
	assert.Len(t, rec.Recent("u1"), 1)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{FirstSemester}, unlockedIDs(list))

	other, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, unlockedIDs(other))
}

// slowLoads widens the window between loading and saving state.
type slowLoads struct {
	Store
}

func (s slowLoads) LoadAchievements(ctx context.Context, userID string) ([]model.Achievement, error) {
	time.Sleep(20 * time.Millisecond)
	return s.Store.LoadAchievements(ctx, userID)
}

func TestServiceCheckConcurrent(t *testing.T) {
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	rec := notify.NewRecorder(10)
	svc := NewService(slowLoads{s}, rec)
	sems := []model.Semester{past(1, graded(55, 3))}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Check(context.Background(), "u1", sems)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, rec.Recent("u1"), 1, "an unlock is announced once")
}

func TestLocalizedText(t *testing.T) {
	ctx := appI18n.WithLang(context.Background(), "ru")
	a := Defaults()[0]
	assert.Equal(t, "Первые шаги", Title(ctx, a))
	assert.Equal(t, "Завершите первый семестр", Description(ctx, a))

	unknown := model.Achievement{ID: "x", Title: "T", Description: "D"}
	assert.Equal(t, "T", Title(ctx, unknown))
}
