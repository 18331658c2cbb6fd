// Package views renders the dashboard and the printable report.
package views

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/studentatlas/internal/analytics"
	"github.com/pavelanni/studentatlas/internal/grading"
	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/model"
)

const styleTag = `<style>body{font-family:system-ui,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem;color:#1f2937}
h1,h2{color:#111827}table{border-collapse:collapse;width:100%;margin:1rem 0}
th,td{border-bottom:1px solid #e5e7eb;padding:.4rem .6rem;text-align:left}
.stats{display:flex;gap:1rem;flex-wrap:wrap}.stat{border:1px solid #e5e7eb;border-radius:8px;padding:.8rem 1.2rem}
.stat b{display:block;font-size:1.6rem}.risk{color:#b91c1c}.locked{opacity:.45}
@media print{nav{display:none}}</style>`

// DashboardData is everything the dashboard shows.
type DashboardData struct {
	User         model.User
	Summary      model.Summary
	Current      *model.Semester
	Past         []model.Semester
	Insights     analytics.Insights
	Achievements []model.Achievement
}

// Column headers, as message IDs.
var (
	pastColumns    = []string{"Course", "Units", "SemesterGPA"}
	currentColumns = []string{"Course", "Units", "CATotal", "Target", "RequiredExam", "Grade"}
	reportColumns  = []string{"Code", "Course", "Units", "CATotal", "FinalScore", "Grade"}
)

// courseRow holds the cell texts of one current-semester course.
type courseRow struct {
	Cells  []string
	AtRisk bool
}

func gpa(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func courseLabel(c model.Course) string {
	if c.Code == "" {
		return c.Name
	}
	return c.Code + " " + c.Name
}

func unlockedDate(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02")
}

func currentRows(ctx context.Context, s model.Semester) []courseRow {
	rows := make([]courseRow, 0, len(s.Courses))
	for _, c := range s.Courses {
		ca := grading.CATotal(c.CAScores)
		target := grading.RequiredExamScore(ca, c.TargetGrade)
		row := courseRow{
			Cells:  []string{courseLabel(c), fmt.Sprint(c.UnitHours), fmt.Sprintf("%.1f", ca), string(c.TargetGrade)},
			AtRisk: !c.Graded() && !target.Achievable,
		}
		switch {
		case c.Graded():
			row.Cells = append(row.Cells, "", fmt.Sprintf("%s (%.1f)", grading.CourseGrade(c), *c.FinalScore))
		case !target.Achievable:
			row.Cells = append(row.Cells, appI18n.T(ctx, "NotAchievable"), appI18n.T(ctx, "Pending"))
		default:
			row.Cells = append(row.Cells, fmt.Sprintf("%.1f / %d", target.RequiredExam, model.MaxExam), appI18n.T(ctx, "Pending"))
		}
		rows = append(rows, row)
	}
	return rows
}

// reportRows marks predicted grades of ungraded courses with an asterisk.
func reportRows(ctx context.Context, s model.Semester) [][]string {
	rows := make([][]string, 0, len(s.Courses))
	for _, c := range s.Courses {
		row := []string{c.Code, c.Name, fmt.Sprint(c.UnitHours), fmt.Sprintf("%.1f", grading.CATotal(c.CAScores))}
		if c.Graded() {
			row = append(row, fmt.Sprintf("%.1f", *c.FinalScore), string(grading.CourseGrade(c)))
		} else {
			row = append(row, appI18n.T(ctx, "Pending"), string(grading.CourseGrade(c))+"*")
		}
		rows = append(rows, row)
	}
	return rows
}

func reportByline(ctx context.Context, exp model.Export) string {
	date := appI18n.Td(ctx, "ExportDate", map[string]any{"Date": exp.ExportDate})
	if exp.UserEmail == "" {
		return date
	}
	return exp.UserEmail + " · " + date
}

func semesterGPALine(ctx context.Context, s model.Semester) string {
	if s.Type == model.SemesterCurrent {
		return appI18n.T(ctx, "PredictedGPA") + ": " + gpa(grading.SemesterGPA(s.Courses))
	}
	return appI18n.T(ctx, "SemesterGPA") + ": " + gpa(s.GPA)
}
