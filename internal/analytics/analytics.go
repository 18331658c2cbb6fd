// Package analytics derives trends, course rankings and study
// recommendations from a student's semesters.
package analytics

import (
	"sort"

	"github.com/pavelanni/studentatlas/internal/grading"
	"github.com/pavelanni/studentatlas/internal/model"
)

// Recommendation message IDs, resolved through i18n.
const (
	RecImproving       = "RecImproving"
	RecDeclining       = "RecDeclining"
	RecExcellent       = "RecExcellent"
	RecGoodStanding    = "RecGoodStanding"
	RecSeekSupport     = "RecSeekSupport"
	RecIntervention    = "RecIntervention"
	RecFocusHard       = "RecFocusHard"
	RecPrioritizeUnits = "RecPrioritizeUnits"
	RecKeepConsistent  = "RecKeepConsistent"
)

// Difficulty classes inferred from a course's CA total.
const (
	DifficultyEasy     = "easy"
	DifficultyModerate = "moderate"
	DifficultyHard     = "hard"
)

// Performance classes by final score.
const (
	PerformanceExcellent = "excellent"
	PerformanceGood      = "good"
	PerformanceFair      = "fair"
	PerformancePoor      = "poor"
)

const rankedCourses = 5

// TrendPoint is one past semester on the GPA trend line.
type TrendPoint struct {
	SemesterName string  `json:"semesterName"`
	GPA          float64 `json:"gpa"`
	Timestamp    int64   `json:"timestamp"`
}

// CoursePerformance classifies a graded course.
type CoursePerformance struct {
	Course       model.Course `json:"course"`
	SemesterName string       `json:"semesterName"`
	Difficulty   string       `json:"difficulty"`
	Performance  string       `json:"performance"`
}

// Insights is everything the analytics view shows.
type Insights struct {
	Trend           []TrendPoint        `json:"trendData"`
	AverageGPA      float64             `json:"averageGPA"`
	HighestGPA      float64             `json:"highestGPA"`
	LowestGPA       float64             `json:"lowestGPA"`
	Best            []CoursePerformance `json:"bestPerformingCourses"`
	Worst           []CoursePerformance `json:"worstPerformingCourses"`
	Recommendations []string            `json:"recommendations"`
}

// Analyze builds insights from the past semesters, oldest first.
func Analyze(semesters []model.Semester) Insights {
	past := Past(semesters)

	var in Insights
	in.Trend = make([]TrendPoint, 0, len(past))
	for _, s := range past {
		in.Trend = append(in.Trend, TrendPoint{
			SemesterName: s.Name,
			GPA:          grading.SemesterGPA(s.Courses),
			Timestamp:    s.Timestamp,
		})
	}

	var perfs []CoursePerformance
	for _, s := range past {
		for _, c := range s.Courses {
			if c.Graded() {
				perfs = append(perfs, assess(c, s.Name))
			}
		}
	}
	sort.SliceStable(perfs, func(i, j int) bool {
		return *perfs[i].Course.FinalScore > *perfs[j].Course.FinalScore
	})
	in.Best = head(perfs, rankedCourses)
	in.Worst = tailReversed(perfs, rankedCourses)

	if len(in.Trend) > 0 {
		in.HighestGPA = in.Trend[0].GPA
		in.LowestGPA = in.Trend[0].GPA
		var sum float64
		for _, p := range in.Trend {
			sum += p.GPA
			in.HighestGPA = max(in.HighestGPA, p.GPA)
			in.LowestGPA = min(in.LowestGPA, p.GPA)
		}
		in.AverageGPA = grading.Round2(sum / float64(len(in.Trend)))
	}

	in.Recommendations = recommend(in.Trend, perfs, in.AverageGPA)
	return in
}

// Past returns the past semesters ordered by timestamp.
func Past(semesters []model.Semester) []model.Semester {
	var past []model.Semester
	for _, s := range semesters {
		if s.Type == model.SemesterPast {
			past = append(past, s)
		}
	}
	sort.SliceStable(past, func(i, j int) bool { return past[i].Timestamp < past[j].Timestamp })
	return past
}

func assess(c model.Course, semesterName string) CoursePerformance {
	ca := grading.CATotal(c.CAScores)
	difficulty := DifficultyModerate
	switch {
	case ca >= 50:
		difficulty = DifficultyEasy
	case ca < 40:
		difficulty = DifficultyHard
	}

	score := *c.FinalScore
	performance := PerformancePoor
	switch {
	case score >= 80:
		performance = PerformanceExcellent
	case score >= 70:
		performance = PerformanceGood
	case score >= 50:
		performance = PerformanceFair
	}

	return CoursePerformance{
		Course:       c,
		SemesterName: semesterName,
		Difficulty:   difficulty,
		Performance:  performance,
	}
}

func recommend(trend []TrendPoint, perfs []CoursePerformance, avg float64) []string {
	var recs []string

	if len(trend) >= 2 {
		recent := trend[max(0, len(trend)-3):]
		improving, declining := true, true
		for i := 1; i < len(recent); i++ {
			if recent[i].GPA < recent[i-1].GPA {
				improving = false
			}
			if recent[i].GPA > recent[i-1].GPA {
				declining = false
			}
		}
		switch {
		case improving:
			recs = append(recs, RecImproving)
		case declining:
			recs = append(recs, RecDeclining)
		}
	}

	switch {
	case avg >= 4.5:
		recs = append(recs, RecExcellent)
	case avg >= 3.5:
		recs = append(recs, RecGoodStanding)
	case avg >= 2.5:
		recs = append(recs, RecSeekSupport)
	default:
		recs = append(recs, RecIntervention)
	}

	var hardPoor, heavy int
	for _, p := range perfs {
		if p.Difficulty == DifficultyHard && p.Performance == PerformancePoor {
			hardPoor++
		}
		if p.Course.UnitHours >= 3 && p.Performance != PerformanceExcellent {
			heavy++
		}
	}
	if hardPoor > 0 {
		recs = append(recs, RecFocusHard)
	}
	if heavy >= 3 {
		recs = append(recs, RecPrioritizeUnits)
	}

	if len(recs) == 0 {
		recs = append(recs, RecKeepConsistent)
	}
	return recs
}

func head(perfs []CoursePerformance, n int) []CoursePerformance {
	out := make([]CoursePerformance, 0, n)
	return append(out, perfs[:min(n, len(perfs))]...)
}

func tailReversed(perfs []CoursePerformance, n int) []CoursePerformance {
	start := max(0, len(perfs)-n)
	out := make([]CoursePerformance, 0, len(perfs)-start)
	for i := len(perfs) - 1; i >= start; i-- {
		out = append(out, perfs[i])
	}
	return out
}
