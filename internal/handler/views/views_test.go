package views

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pavelanni/studentatlas/internal/achievement"
	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/model"
)

func render(t *testing.T, lang string, c interface {
	Render(context.Context, io.Writer) error
}) string {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := c.Render(appI18n.WithLang(context.Background(), lang), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestDashboardEmpty(t *testing.T) {
	html := render(t, "en", Dashboard(DashboardData{
		User:         model.User{DisplayName: "Ada"},
		Achievements: achievement.Defaults(),
	}))
	for _, want := range []string{
		"<h1>Ada</h1>",
		"No current semester. Add one to start tracking.",
		"0 semesters",
		`<li class="locked"><b>Getting Started</b>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestDashboardCurrentSemester(t *testing.T) {
	cur := model.Semester{
		Name: "Year 2",
		Type: model.SemesterCurrent,
		Courses: []model.Course{
			{Name: "Algebra", Code: "MTH201", UnitHours: 3, TargetGrade: model.GradeA,
				CAScores: model.CAScores{Midterm: 10, Assignment: 10, Quiz: 5, Attendance: 5}},
			{Name: "Art", UnitHours: 2, TargetGrade: model.GradeC,
				CAScores: model.CAScores{Midterm: 15, Assignment: 15, Quiz: 8, Attendance: 7}},
		},
	}
	html := render(t, "ru", Dashboard(DashboardData{User: model.User{DisplayName: "Ada"}, Current: &cur}))
	for _, want := range []string{
		"Текущий семестр",
		"2 курса",
		`<tr class="risk"><td>MTH201 Algebra</td>`,
		"Недостижимо",
		"<td>5.0 / 40</td>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestReport(t *testing.T) {
	score := 71.5
	exp := model.Export{
		ExportDate: "2026-01-02T03:04:05.000Z",
		UserEmail:  "ada@example.com",
		Semesters: []model.Semester{{
			Name: "Year 1", Type: model.SemesterPast, GPA: 4,
			Courses: []model.Course{{Name: "Physics", Code: "PHY", UnitHours: 3, FinalScore: &score}},
		}},
		Summary: model.Summary{CGPA: 4, PredictedCGPA: 4, TotalSemesters: 1, TotalCourses: 1, CompletedCourses: 1},
	}
	html := render(t, "en", Report(exp))
	for _, want := range []string{
		"ada@example.com · Exported 2026-01-02T03:04:05.000Z",
		"<b>4.00</b>",
		"1 course completed",
		"<h2>Year 1</h2>",
		"Semester GPA: 4.00",
		"<td>71.5</td><td>B</td>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestDashboardEscapesText(t *testing.T) {
	cur := model.Semester{
		Name: "<b>Spring</b>",
		Type: model.SemesterCurrent,
		Courses: []model.Course{{Name: `<script>alert("x")</script>`, UnitHours: 1, TargetGrade: model.GradeC,
			CAScores: model.CAScores{Midterm: 20, Assignment: 20, Quiz: 10, Attendance: 10}}},
	}
	html := render(t, "en", Dashboard(DashboardData{User: model.User{DisplayName: "Ada & Bob"}, Current: &cur}))
	for _, want := range []string{
		"<h1>Ada &amp; Bob</h1>",
		"&lt;b&gt;Spring&lt;/b&gt;",
		"<td>&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;</td>",
		"<td>0.0 / 40</td>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("course name rendered unescaped")
	}
}
