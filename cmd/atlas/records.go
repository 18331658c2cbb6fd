package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pavelanni/studentatlas/internal/grading"
	"github.com/pavelanni/studentatlas/internal/model"
	"github.com/pavelanni/studentatlas/internal/tracker"
)

func semesterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semester",
		Short: "Manage semesters",
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a semester",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			typ, _ := cmd.Flags().GetString("type")
			sem, err := a.tracker.CreateSemester(cmd.Context(), a.user.ID, tracker.SemesterInput{
				Name: args[0],
				Type: model.SemesterType(typ),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", sem.ID, sem.Type, sem.Name)
			return nil
		},
	}
	add.Flags().StringP("type", "t", string(model.SemesterCurrent), "Semester type (current, past)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List semesters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			sems, err := a.tracker.ListSemesters(cmd.Context(), a.user.ID)
			if err != nil {
				return err
			}
			printSemesters(cmd, sems)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm SEMESTER_ID",
		Short: "Delete a semester and its courses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.tracker.DeleteSemester(cmd.Context(), a.user.ID, args[0])
		},
	}

	finish := &cobra.Command{
		Use:   "finish SEMESTER_ID",
		Short: "Mark the current semester as past",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			past := model.SemesterPast
			_, err = a.tracker.UpdateSemester(cmd.Context(), a.user.ID, args[0], tracker.SemesterUpdate{Type: &past})
			return err
		},
	}

	cmd.AddCommand(add, list, rm, finish)
	return cmd
}

func courseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Manage courses in a semester",
	}

	add := &cobra.Command{
		Use:   "add SEMESTER_ID NAME",
		Short: "Add a course",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			f := cmd.Flags()
			code, _ := f.GetString("code")
			units, _ := f.GetInt("units")
			target, _ := f.GetString("target")
			difficulty, _ := f.GetInt("difficulty")
			in := tracker.CourseInput{
				Name:        args[1],
				Code:        code,
				UnitHours:   units,
				CAScores:    caFromFlags(cmd),
				TargetGrade: model.Grade(target),
				Difficulty:  difficulty,
			}
			if f.Changed("final") {
				final, _ := f.GetFloat64("final")
				in.FinalScore = &final
			}
			c, err := a.tracker.AddCourse(cmd.Context(), a.user.ID, args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.ID, c.Name)
			return nil
		},
	}
	af := add.Flags()
	af.String("code", "", "Course code")
	af.Int("units", 3, "Unit hours")
	af.String("target", string(model.GradeB), "Target grade (A, B, C)")
	af.Int("difficulty", 3, "Difficulty from 1 to 5")
	af.Float64("final", 0, "Final score, if already known")
	addCAFlags(add)

	grade := &cobra.Command{
		Use:   "grade SEMESTER_ID COURSE_ID SCORE",
		Short: "Record a course's final score",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			score, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid score %q", args[2])
			}
			sem, err := a.tracker.UpdateCourse(cmd.Context(), a.user.ID, args[0], args[1], tracker.CourseUpdate{FinalScore: &score})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: GPA %.2f (%s)\n", sem.Name, sem.GPA, sem.Type)
			return nil
		},
	}

	update := &cobra.Command{
		Use:   "ca SEMESTER_ID COURSE_ID",
		Short: "Update a course's continuous-assessment scores",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			sem, err := a.tracker.GetSemester(cmd.Context(), a.user.ID, args[0])
			if err != nil {
				return err
			}
			i := sem.CourseIndex(args[1])
			if i < 0 {
				return tracker.ErrCourseNotFound
			}
			ca := mergeCAFlags(cmd, sem.Courses[i].CAScores)
			_, err = a.tracker.UpdateCourse(cmd.Context(), a.user.ID, args[0], args[1], tracker.CourseUpdate{CAScores: &ca})
			return err
		},
	}
	addCAFlags(update)

	rm := &cobra.Command{
		Use:   "rm SEMESTER_ID COURSE_ID",
		Short: "Delete a course",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = a.tracker.DeleteCourse(cmd.Context(), a.user.ID, args[0], args[1])
			return err
		},
	}

	cmd.AddCommand(add, grade, update, rm)
	return cmd
}

func addCAFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("midterm", 0, "Midterm score (max 20)")
	f.Float64("assignment", 0, "Assignment score (max 20)")
	f.Float64("quiz", 0, "Quiz score (max 10)")
	f.Float64("attendance", 0, "Attendance score (max 10)")
}

func caFromFlags(cmd *cobra.Command) model.CAScores {
	return mergeCAFlags(cmd, model.CAScores{})
}

// mergeCAFlags overrides the components whose flags were set.
func mergeCAFlags(cmd *cobra.Command, ca model.CAScores) model.CAScores {
	f := cmd.Flags()
	for name, dst := range map[string]*float64{
		"midterm":    &ca.Midterm,
		"assignment": &ca.Assignment,
		"quiz":       &ca.Quiz,
		"attendance": &ca.Attendance,
	} {
		if f.Changed(name) {
			*dst, _ = f.GetFloat64(name)
		}
	}
	return ca
}

func printSemesters(cmd *cobra.Command, sems []model.Semester) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()
	if len(sems) == 0 {
		fmt.Fprintln(w, "no semesters")
		return
	}
	for _, s := range sems {
		gpa := s.GPA
		label := "GPA"
		if s.Type == model.SemesterCurrent {
			gpa, label = grading.SemesterGPA(s.Courses), "predicted"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %.2f\t%d units\n", s.ID, s.Type, s.Name, label, gpa, s.Units())
		for _, c := range s.Courses {
			ca := grading.CATotal(c.CAScores)
			status := fmt.Sprintf("needs %.1f", grading.RequiredExamScore(ca, c.TargetGrade).RequiredExam)
			if c.Graded() {
				status = fmt.Sprintf("final %.1f", *c.FinalScore)
			}
			fmt.Fprintf(w, "  %s\t%s %s\tCA %.1f\ttarget %s\t%s\t%s\n",
				c.ID, c.Code, c.Name, ca, c.TargetGrade, status, grading.CourseGrade(c))
		}
	}
}
