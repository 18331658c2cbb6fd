package tracker

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/studentatlas/internal/model"
)

// SemesterInput describes a new semester.
type SemesterInput struct {
	Name string             `json:"name" validate:"required,max=100"`
	Type model.SemesterType `json:"type" validate:"required,oneof=current past"`
}

// SemesterUpdate changes the fields that are set.
type SemesterUpdate struct {
	Name *string             `json:"name,omitempty"`
	Type *model.SemesterType `json:"type,omitempty"`
}

// CourseInput describes a new course.
type CourseInput struct {
	Name        string         `json:"name" validate:"required,max=120"`
	Code        string         `json:"code" validate:"max=20"`
	UnitHours   int            `json:"unitHours" validate:"gt=0"`
	CAScores    model.CAScores `json:"caScores"`
	TargetGrade model.Grade    `json:"targetGrade" validate:"required,oneof=A B C"`
	Difficulty  int            `json:"difficulty" validate:"min=1,max=5"`
	FinalScore  *float64       `json:"finalScore,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// CourseUpdate changes the fields that are set. ClearFinalScore removes a
// recorded final score.
type CourseUpdate struct {
	Name            *string         `json:"name,omitempty"`
	Code            *string         `json:"code,omitempty"`
	UnitHours       *int            `json:"unitHours,omitempty"`
	CAScores        *model.CAScores `json:"caScores,omitempty"`
	TargetGrade     *model.Grade    `json:"targetGrade,omitempty"`
	Difficulty      *int            `json:"difficulty,omitempty"`
	FinalScore      *float64        `json:"finalScore,omitempty"`
	ClearFinalScore bool            `json:"clearFinalScore,omitempty"`
}

func (u CourseUpdate) apply(c model.Course) model.Course {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Code != nil {
		c.Code = *u.Code
	}
	if u.UnitHours != nil {
		c.UnitHours = *u.UnitHours
	}
	if u.CAScores != nil {
		c.CAScores = *u.CAScores
	}
	if u.TargetGrade != nil {
		c.TargetGrade = *u.TargetGrade
	}
	if u.Difficulty != nil {
		c.Difficulty = *u.Difficulty
	}
	if u.FinalScore != nil {
		v := *u.FinalScore
		c.FinalScore = &v
	}
	if u.ClearFinalScore {
		c.FinalScore = nil
	}
	return c
}

func inputOf(c model.Course) CourseInput {
	return CourseInput{
		Name:        c.Name,
		Code:        c.Code,
		UnitHours:   c.UnitHours,
		CAScores:    c.CAScores,
		TargetGrade: c.TargetGrade,
		Difficulty:  c.Difficulty,
		FinalScore:  c.FinalScore,
	}
}

func (in CourseInput) course(id string) model.Course {
	c := model.Course{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Code:        strings.TrimSpace(in.Code),
		UnitHours:   in.UnitHours,
		CAScores:    in.CAScores,
		TargetGrade: in.TargetGrade,
		Difficulty:  in.Difficulty,
	}
	if in.FinalScore != nil {
		v := *in.FinalScore
		c.FinalScore = &v
	}
	return c
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
