package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/model"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	m.Run()
}

type fakeUsers []model.User

func (f fakeUsers) ListUsers(context.Context) ([]model.User, error) { return f, nil }

type fakeSource map[string][]model.Semester

func (f fakeSource) ListSemesters(_ context.Context, id string) ([]model.Semester, error) {
	if id == "broken" {
		return nil, errors.New("disk gone")
	}
	return f[id], nil
}

func currentWith(courses ...model.Course) model.Semester {
	return model.Semester{Type: model.SemesterCurrent, Name: "Now", Courses: courses}
}

func TestDigest(t *testing.T) {
	score, earlier := 90.0, 85.0
	sems := []model.Semester{
		{Type: model.SemesterPast, Name: "Before", GPA: 5, Courses: []model.Course{
			{ID: "p1", UnitHours: 3, TargetGrade: model.GradeA, FinalScore: &earlier},
		}},
		currentWith(
			model.Course{ID: "c1", UnitHours: 3, TargetGrade: model.GradeB, FinalScore: &score},
			model.Course{ID: "c2", UnitHours: 3, TargetGrade: model.GradeB},
		),
	}
	now := time.Unix(100, 0)

	n, ok := Digest(context.Background(), model.User{ID: "u1", Lang: "en"}, sems, now)
	if !ok {
		t.Fatal("expected a digest")
	}
	if n.Kind != KindDigest || n.UserID != "u1" || !n.At.Equal(now) {
		t.Errorf("unexpected digest %+v", n)
	}
	// c2 predicts CA 0 + exam 40 = D, so the current semester is 3.5 and the
	// prediction is (5*3 + 3.5*6) / 9 = 4.
	if want := "CGPA 5.00, predicted CGPA 4.00. 1 course(s) still awaiting a final score."; n.Body != want {
		t.Errorf("Body = %q, want %q", n.Body, want)
	}

	ru, _ := Digest(context.Background(), model.User{ID: "u1", Lang: "ru"}, sems, now)
	if ru.Title != "Итоги недели" {
		t.Errorf("ru Title = %q", ru.Title)
	}
	if want := "Средний балл 5.00, прогноз 4.00. Курсов без итоговой оценки: 1."; ru.Body != want {
		t.Errorf("ru Body = %q, want %q", ru.Body, want)
	}

	if _, ok := Digest(context.Background(), model.User{ID: "u1"}, nil, now); ok {
		t.Error("empty record should not produce a digest")
	}
}

func TestDigestJob(t *testing.T) {
	users := fakeUsers{{ID: "u1"}, {ID: "empty"}, {ID: "broken"}}
	source := fakeSource{"u1": {currentWith(model.Course{ID: "c", UnitHours: 1, TargetGrade: model.GradeA})}}
	rec := NewRecorder(10)

	err := DigestJob(users, source, rec)(context.Background())
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("expected error naming the broken user, got %v", err)
	}
	if len(rec.Recent("u1")) != 1 {
		t.Error("u1 should get a digest")
	}
	if len(rec.Recent("empty")) != 0 {
		t.Error("users without semesters get nothing")
	}
}

func TestRiskWatcherWarnsOnce(t *testing.T) {
	rec := NewRecorder(10)
	rw := NewRiskWatcher(rec)
	ctx := context.Background()

	// CA 30 needs 50 in the exam for an A.
	risky := model.Course{ID: "c1", Name: "Algebra", UnitHours: 3, TargetGrade: model.GradeA,
		CAScores: model.CAScores{Midterm: 10, Assignment: 10, Quiz: 5, Attendance: 5}}
	safe := model.Course{ID: "c2", Name: "Art", UnitHours: 3, TargetGrade: model.GradeC,
		CAScores: model.CAScores{Midterm: 10, Assignment: 10, Quiz: 5, Attendance: 5}}
	sems := []model.Semester{currentWith(risky, safe)}

	rw.OnChange(ctx, "u1", sems)
	rw.OnChange(ctx, "u1", sems)

	got := rec.Recent("u1")
	if len(got) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(got))
	}
	if got[0].Kind != KindAtRisk {
		t.Errorf("Kind = %q", got[0].Kind)
	}
	if want := "Algebra needs 50.0 in the exam for grade A, which is not possible."; got[0].Body != want {
		t.Errorf("Body = %q, want %q", got[0].Body, want)
	}

	// Lowering the target to B (needs 30) clears the risk; no new alert.
	risky.TargetGrade = model.GradeB
	rw.OnChange(ctx, "u1", []model.Semester{currentWith(risky, safe)})
	if len(rec.Recent("u1")) != 1 {
		t.Error("no alert expected once the target is reachable")
	}
}
