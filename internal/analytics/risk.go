package analytics

import (
	"github.com/pavelanni/studentatlas/internal/grading"
	"github.com/pavelanni/studentatlas/internal/model"
)

// CourseTarget pairs an ungraded course with its exam requirement.
type CourseTarget struct {
	Course model.Course     `json:"course"`
	Target model.ExamTarget `json:"target"`
}

// Targets computes the exam requirement of every ungraded course in s.
func Targets(s model.Semester) []CourseTarget {
	var out []CourseTarget
	for _, c := range s.Courses {
		if c.Graded() {
			continue
		}
		out = append(out, CourseTarget{
			Course: c,
			Target: grading.RequiredExamScore(grading.CATotal(c.CAScores), c.TargetGrade),
		})
	}
	return out
}

// AtRisk returns the ungraded courses whose target grade can no longer be
// reached even with a perfect exam.
func AtRisk(s model.Semester) []CourseTarget {
	var out []CourseTarget
	for _, ct := range Targets(s) {
		if !ct.Target.Achievable {
			out = append(out, ct)
		}
	}
	return out
}
