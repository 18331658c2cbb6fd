package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/studentatlas/internal/achievement"
	"github.com/pavelanni/studentatlas/internal/analytics"
	"github.com/pavelanni/studentatlas/internal/export"
	"github.com/pavelanni/studentatlas/internal/grading"
	"github.com/pavelanni/studentatlas/internal/handler/views"
	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/model"
	"github.com/pavelanni/studentatlas/internal/notify"
	"github.com/pavelanni/studentatlas/internal/tracker"
)

func gpaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gpa",
		Short: "Show CGPA, predicted CGPA and recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := appI18n.WithLang(cmd.Context(), a.v.GetString("lang"))
			sems, err := a.tracker.ListSemesters(ctx, a.user.ID)
			if err != nil {
				return err
			}

			sum := grading.Summarize(sems)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%.2f\n", appI18n.T(ctx, "CGPA"), sum.CGPA)
			fmt.Fprintf(w, "%s\t%.2f\n", appI18n.T(ctx, "PredictedCGPA"), sum.PredictedCGPA)
			fmt.Fprintf(w, "\t%s, %s\n", appI18n.Tp(ctx, "SemesterCount", sum.TotalSemesters),
				appI18n.Tp(ctx, "CompletedCount", sum.CompletedCourses))
			if err := w.Flush(); err != nil {
				return err
			}

			if cur, ok := tracker.Current(sems); ok {
				for _, ct := range analytics.AtRisk(cur) {
					fmt.Fprintf(cmd.OutOrStdout(), "! %s: %s %s\n",
						ct.Course.Name, appI18n.T(ctx, "NotAchievable"), ct.Target.TargetGrade)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout())
			for _, id := range analytics.Analyze(sems).Recommendations {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", appI18n.T(ctx, id))
			}
			return nil
		},
	}
}

func targetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "target CA_TOTAL [GRADE]",
		Short: "Show the exam score needed for each target grade",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ca, err := strconv.ParseFloat(args[0], 64)
			if err != nil || ca < 0 || ca > model.MaxCA {
				return fmt.Errorf("CA total must be a number between 0 and %d", model.MaxCA)
			}
			grades := model.TargetGrades
			if len(args) == 2 {
				grades = []model.Grade{model.Grade(args[1])}
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			for _, g := range grades {
				if floor, _ := grading.Band(g); floor == 0 && g != model.GradeF {
					return fmt.Errorf("unknown grade %q", g)
				}
				t := grading.RequiredExamScore(ca, g)
				status := "ok"
				if !t.Achievable {
					status = "not achievable"
				}
				fmt.Fprintf(w, "%s\t%.1f/%d\t%s\n", g, t.RequiredExam, model.MaxExam, status)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the profile's semesters as JSON or an HTML report",
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
			exp := export.Build(*a.user, sems, time.Now())

			outPath, _ := cmd.Flags().GetString("output")
			var w io.Writer
			if outPath == "" || outPath == "-" {
				w = cmd.OutOrStdout()
			} else {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			format, _ := cmd.Flags().GetString("format")
			switch format {
			case "json":
				return export.WriteJSON(w, exp)
			case "html":
				ctx := appI18n.WithLang(cmd.Context(), a.v.GetString("lang"))
				return views.Report(exp).Render(ctx, w)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")
	cmd.Flags().StringP("format", "f", "json", "Output format (json, html)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Restore semesters from backup files, skipping ones already imported",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			im := export.NewImporter(a.db, a.tracker)
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				res, err := im.Import(cmd.Context(), a.user.ID, path, data)
				if err != nil {
					return err
				}
				if res.Skipped {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: unchanged, skipped\n", path)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: imported %d semesters\n", path, res.Semesters)
			}
			return nil
		},
	}
}

func achievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "List achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := appI18n.WithLang(cmd.Context(), a.v.GetString("lang"))
			list, err := a.achievements.List(ctx, a.user.ID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			for _, ach := range list {
				mark := " "
				if ach.Unlocked {
					mark = "x"
				}
				fmt.Fprintf(w, "[%s]\t%s\t%s\n", mark, achievement.Title(ctx, ach), achievement.Description(ctx, ach))
			}
			return nil
		},
	}
}

func digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print the progress digest for the profile",
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
			n, ok := notify.Digest(cmd.Context(), *a.user, sems, time.Now())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to report")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", n.Title, n.Body)
			return nil
		},
	}
}
