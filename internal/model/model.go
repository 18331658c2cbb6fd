package model

import (
	"context"
	"time"
)

// User is the owner of a semester collection.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Lang        string    `json:"lang"`
	CreatedAt   time.Time `json:"createdAt"`
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the active user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Grade is a letter grade.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

// TargetGrades are the grades a student may aim for.
var TargetGrades = []Grade{GradeA, GradeB, GradeC}

// SemesterType distinguishes the in-progress term from finished ones.
type SemesterType string

const (
	SemesterCurrent SemesterType = "current"
	SemesterPast    SemesterType = "past"
)

// CA component maxima.
const (
	MaxMidterm    = 20
	MaxAssignment = 20
	MaxQuiz       = 10
	MaxAttendance = 10
	MaxCA         = MaxMidterm + MaxAssignment + MaxQuiz + MaxAttendance
	MaxExam       = 40
)

// CAScores holds the continuous-assessment components of a course.
type CAScores struct {
	Midterm    float64 `json:"midterm" validate:"gte=0,lte=20"`
	Assignment float64 `json:"assignment" validate:"gte=0,lte=20"`
	Quiz       float64 `json:"quiz" validate:"gte=0,lte=10"`
	Attendance float64 `json:"attendance" validate:"gte=0,lte=10"`
}

// Course is a gradeable unit within a semester.
type Course struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	UnitHours   int      `json:"unitHours"`
	CAScores    CAScores `json:"caScores"`
	TargetGrade Grade    `json:"targetGrade"`
	Difficulty  int      `json:"difficulty"`
	FinalScore  *float64 `json:"finalScore,omitempty"`
	Grade       Grade    `json:"grade,omitempty"`
}

// Graded reports whether a final score has been recorded.
func (c Course) Graded() bool {
	return c.FinalScore != nil
}

// Semester is a named academic term holding courses in insertion order.
type Semester struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         SemesterType `json:"type"`
	Timestamp    int64        `json:"timestamp"`
	GPA          float64      `json:"gpa"`
	PredictedGPA *float64     `json:"predictedGPA,omitempty"`
	Courses      []Course     `json:"courses"`
}

// Units returns the total unit weight of the semester's courses.
func (s Semester) Units() int {
	total := 0
	for _, c := range s.Courses {
		total += c.UnitHours
	}
	return total
}

// CourseIndex returns the index of the course with the given id, or -1.
func (s Semester) CourseIndex(id string) int {
	for i, c := range s.Courses {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// ExamTarget is the derived exam requirement for a course.
type ExamTarget struct {
	CATotal      float64 `json:"caTotal"`
	TargetGrade  Grade   `json:"targetGrade"`
	RequiredExam float64 `json:"requiredExam"`
	Achievable   bool    `json:"achievable"`
}

// Achievement is a milestone unlocked by academic progress.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
	UnlockedAt  *int64 `json:"unlockedAt,omitempty"`
}

// Summary is the headline figures shown on the dashboard.
type Summary struct {
	CGPA             float64 `json:"cgpa"`
	PredictedCGPA    float64 `json:"predictedCgpa"`
	TotalSemesters   int     `json:"totalSemesters"`
	TotalCourses     int     `json:"totalCourses"`
	CompletedCourses int     `json:"completedCourses"`
}
