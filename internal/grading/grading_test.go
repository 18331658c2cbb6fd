package grading

import (
	"math"
	"testing"

	"github.com/pavelanni/studentatlas/internal/model"
)

func score(v float64) *float64 { return &v }

func TestScoreToGradeThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  model.Grade
	}{
		{100, model.GradeA},
		{80, model.GradeA},
		{79.99, model.GradeB},
		{79, model.GradeB},
		{60, model.GradeB},
		{59, model.GradeC},
		{50, model.GradeC},
		{49, model.GradeD},
		{40, model.GradeD},
		{39, model.GradeE},
		{30, model.GradeE},
		{29, model.GradeF},
		{0, model.GradeF},
		// Out of range scores are graded, not rejected.
		{120, model.GradeA},
		{-5, model.GradeF},
	}
	for _, tt := range tests {
		if got := ScoreToGrade(tt.score); got != tt.want {
			t.Errorf("ScoreToGrade(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestGradePoint(t *testing.T) {
	want := map[model.Grade]float64{
		model.GradeA: 5, model.GradeB: 4, model.GradeC: 3,
		model.GradeD: 2, model.GradeE: 1, model.GradeF: 0,
	}
	for g, p := range want {
		if got := GradePoint(g); got != p {
			t.Errorf("GradePoint(%s) = %v, want %v", g, got, p)
		}
	}
	if got := GradePoint("Z"); got != 0 {
		t.Errorf("GradePoint(Z) = %v, want 0", got)
	}
}

func TestCATotal(t *testing.T) {
	got := CATotal(model.CAScores{Midterm: 15, Assignment: 18, Quiz: 7, Attendance: 10})
	if got != 50 {
		t.Errorf("CATotal = %v, want 50", got)
	}
	// No bounds enforcement here.
	got = CATotal(model.CAScores{Midterm: 30, Assignment: 0, Quiz: 0, Attendance: 0})
	if got != 30 {
		t.Errorf("CATotal over max = %v, want 30", got)
	}
}

func TestRequiredExamScore(t *testing.T) {
	tests := []struct {
		name           string
		ca             float64
		target         model.Grade
		wantRequired   float64
		wantAchievable bool
	}{
		{"reachable", 45, model.GradeB, 15, true},
		{"already met by CA", 70, model.GradeB, 0, true},
		{"beyond a perfect exam", 10, model.GradeA, 40, false},
		{"exactly forty", 40, model.GradeA, 40, true},
		{"exactly met", 50, model.GradeC, 0, true},
		{"just out of reach", 19, model.GradeB, 40, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequiredExamScore(tt.ca, tt.target)
			if got.RequiredExam != tt.wantRequired {
				t.Errorf("RequiredExam = %v, want %v", got.RequiredExam, tt.wantRequired)
			}
			if got.Achievable != tt.wantAchievable {
				t.Errorf("Achievable = %v, want %v", got.Achievable, tt.wantAchievable)
			}
			if got.CATotal != tt.ca || got.TargetGrade != tt.target {
				t.Errorf("inputs not echoed: %+v", got)
			}
		})
	}
}

func TestPredictedScore(t *testing.T) {
	c := model.Course{
		UnitHours:   3,
		CAScores:    model.CAScores{Midterm: 15, Assignment: 15, Quiz: 5, Attendance: 10},
		TargetGrade: model.GradeA,
	}
	// CA 45, needs 35 for an A.
	if got := PredictedScore(c); got != 80 {
		t.Errorf("PredictedScore = %v, want 80", got)
	}

	c.CAScores = model.CAScores{Midterm: 5}
	// CA 5, capped at 40 exam marks.
	if got := PredictedScore(c); got != 45 {
		t.Errorf("PredictedScore capped = %v, want 45", got)
	}

	t.Run("not rounded into the next band", func(t *testing.T) {
		tests := []struct {
			name      string
			ca        model.CAScores
			target    model.Grade
			wantScore float64
			wantGrade model.Grade
		}{
			{"target already met", model.CAScores{Midterm: 19.998, Assignment: 20, Quiz: 10, Attendance: 9.999}, model.GradeC, 59.997, model.GradeC},
			{"target out of reach", model.CAScores{Midterm: 19.996}, model.GradeA, 59.996, model.GradeC},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := model.Course{UnitHours: 3, CAScores: tt.ca, TargetGrade: tt.target}
				got := PredictedScore(c)
				if math.Abs(got-tt.wantScore) > 1e-9 {
					t.Errorf("PredictedScore = %v, want %v", got, tt.wantScore)
				}
				if g := CourseGrade(c); g != tt.wantGrade {
					t.Errorf("CourseGrade = %s, want %s", g, tt.wantGrade)
				}
				if gpa := SemesterGPA([]model.Course{c}); gpa != GradePoint(tt.wantGrade) {
					t.Errorf("SemesterGPA = %v, want %v", gpa, GradePoint(tt.wantGrade))
				}
			})
		}
	})

	t.Run("attainable target lands on the band minimum", func(t *testing.T) {
		c := model.Course{CAScores: model.CAScores{Midterm: 10.1, Assignment: 10.2}, TargetGrade: model.GradeB}
		if got := PredictedScore(c); got != 60 {
			t.Errorf("PredictedScore = %v, want 60", got)
		}
	})
}

func TestSemesterGPA(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := SemesterGPA(nil); got != 0 {
			t.Errorf("SemesterGPA(nil) = %v, want 0", got)
		}
	})

	t.Run("final scores", func(t *testing.T) {
		courses := []model.Course{
			{UnitHours: 3, FinalScore: score(85)},
			{UnitHours: 2, FinalScore: score(55)},
		}
		if got := SemesterGPA(courses); got != 4.2 {
			t.Errorf("SemesterGPA = %v, want 4.2", got)
		}
	})

	t.Run("predicted for ungraded", func(t *testing.T) {
		courses := []model.Course{
			{UnitHours: 3, FinalScore: score(85)},
			{UnitHours: 3, TargetGrade: model.GradeB, CAScores: model.CAScores{Midterm: 20, Assignment: 20}},
		}
		// A (5) and predicted B (4).
		if got := SemesterGPA(courses); got != 4.5 {
			t.Errorf("SemesterGPA = %v, want 4.5", got)
		}
	})

	t.Run("rounded", func(t *testing.T) {
		courses := []model.Course{
			{UnitHours: 1, FinalScore: score(85)},
			{UnitHours: 1, FinalScore: score(65)},
			{UnitHours: 1, FinalScore: score(65)},
		}
		// 13/3 = 4.333...
		if got := SemesterGPA(courses); got != 4.33 {
			t.Errorf("SemesterGPA = %v, want 4.33", got)
		}
	})
}

func pastSemester(gpa float64, units ...int) model.Semester {
	s := model.Semester{Type: model.SemesterPast, GPA: gpa}
	for _, u := range units {
		s.Courses = append(s.Courses, model.Course{UnitHours: u, FinalScore: score(90)})
	}
	return s
}

func TestCGPA(t *testing.T) {
	semesters := []model.Semester{
		pastSemester(4.0, 3, 3, 3, 3, 3),
		pastSemester(3.5, 3, 3, 3, 3, 3, 3),
		{Type: model.SemesterCurrent, GPA: 1.0, Courses: []model.Course{{UnitHours: 20}}},
	}
	if got := CGPA(semesters); got != 3.73 {
		t.Errorf("CGPA = %v, want 3.73", got)
	}
	if got := CGPA(nil); got != 0 {
		t.Errorf("CGPA(nil) = %v, want 0", got)
	}
	if got := CGPA([]model.Semester{{Type: model.SemesterCurrent}}); got != 0 {
		t.Errorf("CGPA(current only) = %v, want 0", got)
	}
}

func TestPredictedCGPA(t *testing.T) {
	current := model.Semester{
		Type: model.SemesterCurrent,
		GPA:  0, // stale cache must be ignored
		Courses: []model.Course{
			{UnitHours: 4, TargetGrade: model.GradeA, CAScores: model.CAScores{Midterm: 20, Assignment: 20}},
		},
	}
	semesters := []model.Semester{pastSemester(3.0, 4), current}

	// (3.0*4 + 5.0*4) / 8 = 4.0
	if got := PredictedCGPA(semesters); got != 4.0 {
		t.Errorf("PredictedCGPA = %v, want 4.0", got)
	}
	if semesters[1].GPA != 0 {
		t.Error("PredictedCGPA mutated its input")
	}

	t.Run("empty current ignored", func(t *testing.T) {
		got := PredictedCGPA([]model.Semester{pastSemester(3.0, 4), {Type: model.SemesterCurrent}})
		if got != 3.0 {
			t.Errorf("PredictedCGPA = %v, want 3.0", got)
		}
	})

	t.Run("nothing recorded", func(t *testing.T) {
		if got := PredictedCGPA(nil); got != 0 {
			t.Errorf("PredictedCGPA(nil) = %v, want 0", got)
		}
	})
}

func TestSummarize(t *testing.T) {
	semesters := []model.Semester{
		pastSemester(4.0, 3),
		{
			Type: model.SemesterCurrent,
			Courses: []model.Course{
				{UnitHours: 3, TargetGrade: model.GradeB, FinalScore: score(85)},
				{UnitHours: 3, TargetGrade: model.GradeB},
			},
		},
	}
	got := Summarize(semesters)
	want := model.Summary{
		CGPA:             4.0,
		PredictedCGPA:    PredictedCGPA(semesters),
		TotalSemesters:   2,
		TotalCourses:     len(semesters[0].Courses) + 2,
		CompletedCourses: len(semesters[0].Courses),
	}
	if got != want {
		t.Errorf("Summarize = %+v, want %+v", got, want)
	}
	if (Summarize(nil) != model.Summary{}) {
		t.Error("Summarize(nil) should be zero")
	}
}
