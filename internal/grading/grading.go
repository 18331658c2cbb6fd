// Package grading holds the grade scale and the GPA arithmetic.
//
// Every function here is pure and total: out-of-range scores are graded by
// the same thresholds rather than rejected. Domain checks happen where
// records are created or edited.
package grading

import (
	"math"

	"github.com/pavelanni/studentatlas/internal/model"
)

type band struct {
	grade model.Grade
	min   float64
	max   float64
	point float64
}

// scale is ordered by descending lower bound.
var scale = []band{
	{model.GradeA, 80, 100, 5.0},
	{model.GradeB, 60, 79, 4.0},
	{model.GradeC, 50, 59, 3.0},
	{model.GradeD, 40, 49, 2.0},
	{model.GradeE, 30, 39, 1.0},
	{model.GradeF, 0, 29, 0.0},
}

// Grades lists all letters from best to worst.
func Grades() []model.Grade {
	out := make([]model.Grade, len(scale))
	for i, b := range scale {
		out[i] = b.grade
	}
	return out
}

// ScoreToGrade maps a total score to its letter grade.
func ScoreToGrade(score float64) model.Grade {
	for _, b := range scale[:len(scale)-1] {
		if score >= b.min {
			return b.grade
		}
	}
	return model.GradeF
}

// GradePoint returns the grade point for a letter. Unknown letters score 0.
func GradePoint(g model.Grade) float64 {
	for _, b := range scale {
		if b.grade == g {
			return b.point
		}
	}
	return 0
}

// Band returns the inclusive score band of a letter.
func Band(g model.Grade) (lo, hi float64) {
	for _, b := range scale {
		if b.grade == g {
			return b.min, b.max
		}
	}
	return 0, 0
}

// CATotal sums the four continuous-assessment components.
func CATotal(s model.CAScores) float64 {
	return s.Midterm + s.Assignment + s.Quiz + s.Attendance
}

// RequiredExamScore back-calculates the exam mark needed to reach target.
//
// RequiredExam is clamped to [0, MaxExam]. Achievable is judged on the
// unclamped value, so a CA total that already meets the band is achievable
// with 0 marks needed.
func RequiredExamScore(caTotal float64, target model.Grade) model.ExamTarget {
	floor, _ := Band(target)
	required := floor - caTotal
	return model.ExamTarget{
		CATotal:      caTotal,
		TargetGrade:  target,
		RequiredExam: math.Max(0, math.Min(model.MaxExam, required)),
		Achievable:   required <= model.MaxExam,
	}
}

// PredictedScore estimates the total of an ungraded course as CA plus the
// clamped exam requirement for its target grade. When the target needs a
// positive, attainable exam mark the band minimum is returned as is, so float
// drift in the subtraction cannot land just below it.
func PredictedScore(c model.Course) float64 {
	ca := CATotal(c.CAScores)
	floor, _ := Band(c.TargetGrade)
	if raw := floor - ca; raw > 0 && raw <= model.MaxExam {
		return floor
	}
	return ca + RequiredExamScore(ca, c.TargetGrade).RequiredExam
}

// EffectiveScore is the recorded final score, or the predicted one.
func EffectiveScore(c model.Course) float64 {
	if c.FinalScore != nil {
		return *c.FinalScore
	}
	return PredictedScore(c)
}

// CourseGrade grades a course on its effective score.
func CourseGrade(c model.Course) model.Grade {
	return ScoreToGrade(EffectiveScore(c))
}

// SemesterGPA is the unit-weighted grade point average of courses.
func SemesterGPA(courses []model.Course) float64 {
	var points float64
	var units int
	for _, c := range courses {
		points += GradePoint(CourseGrade(c)) * float64(c.UnitHours)
		units += c.UnitHours
	}
	if units == 0 {
		return 0
	}
	return Round2(points / float64(units))
}

// CGPA weights the cached GPA of each past semester by its units.
func CGPA(semesters []model.Semester) float64 {
	points, units := pastTotals(semesters)
	if units == 0 {
		return 0
	}
	return Round2(points / float64(units))
}

// PredictedCGPA is CGPA with the current semester folded in at its
// freshly computed GPA. The input is not modified.
func PredictedCGPA(semesters []model.Semester) float64 {
	points, units := pastTotals(semesters)
	for _, s := range semesters {
		if s.Type != model.SemesterCurrent {
			continue
		}
		if len(s.Courses) > 0 {
			u := s.Units()
			points += SemesterGPA(s.Courses) * float64(u)
			units += u
		}
		break
	}
	if units == 0 {
		return 0
	}
	return Round2(points / float64(units))
}

func pastTotals(semesters []model.Semester) (float64, int) {
	var points float64
	var units int
	for _, s := range semesters {
		if s.Type != model.SemesterPast {
			continue
		}
		u := s.Units()
		points += s.GPA * float64(u)
		units += u
	}
	return points, units
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summarize computes the dashboard figures. Completed courses are the
// graded courses of past semesters.
func Summarize(semesters []model.Semester) model.Summary {
	sum := model.Summary{
		CGPA:           CGPA(semesters),
		PredictedCGPA:  PredictedCGPA(semesters),
		TotalSemesters: len(semesters),
	}
	for _, s := range semesters {
		sum.TotalCourses += len(s.Courses)
		if s.Type != model.SemesterPast {
			continue
		}
		for _, c := range s.Courses {
			if c.Graded() {
				sum.CompletedCourses++
			}
		}
	}
	return sum
}
