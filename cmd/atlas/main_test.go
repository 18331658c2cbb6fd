package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/studentatlas/internal/model"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), "atlas %s: %s", strings.Join(args, " "), out.String())
	return out.String()
}

func TestCLIWorkflow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "atlas.db")
	base := []string{"--db", db, "--user", "ada", "--log-level", "error"}
	with := func(args ...string) []string { return append(args, base...) }

	out := run(t, with("semester", "add", "Year 1")...)
	semID := strings.Fields(out)[0]
	require.True(t, strings.HasPrefix(semID, "sem_"), out)

	out = run(t, with("course", "add", semID, "Physics", "--code", "PHY101", "--units", "3",
		"--midterm", "15", "--assignment", "15", "--quiz", "8", "--attendance", "7", "--target", "B")...)
	courseID := strings.Fields(out)[0]
	require.True(t, strings.HasPrefix(courseID, "course_"), out)

	out = run(t, with("gpa")...)
	assert.Contains(t, out, "Predicted CGPA  4.00")

	out = run(t, with("course", "grade", semID, courseID, "82")...)
	assert.Contains(t, out, "Year 1: GPA 5.00 (past)")

	out = run(t, with("semester", "list")...)
	assert.Contains(t, out, "final 82.0")

	out = run(t, with("achievements")...)
	assert.Contains(t, out, "[x]  Getting Started")
	assert.Contains(t, out, "[ ]  Dedicated Student")

	backup := filepath.Join(dir, "backup.json")
	run(t, with("export", "-o", backup)...)
	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	var exp model.Export
	require.NoError(t, json.Unmarshal(data, &exp))
	assert.Equal(t, 5.0, exp.Summary.CGPA)

	other := []string{"--db", db, "--user", "bob", "--log-level", "error"}
	out = run(t, append([]string{"import", backup}, other...)...)
	assert.Contains(t, out, "imported 1 semesters")
	out = run(t, append([]string{"import", backup}, other...)...)
	assert.Contains(t, out, "unchanged, skipped")

	report := filepath.Join(dir, "report.html")
	run(t, with("export", "--format", "html", "-o", report, "--lang", "ru")...)
	html, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Академическая справка")
}

func TestTargetCommand(t *testing.T) {
	out := run(t, "target", "45")
	assert.Contains(t, out, "A  35.0/40  ok")
	assert.Contains(t, out, "C  5.0/40   ok")

	out = run(t, "target", "20", "A")
	assert.Contains(t, out, "40.0/40  not achievable")

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"target", "75"})
	assert.Error(t, cmd.Execute())
}

func TestSecondCurrentSemesterFails(t *testing.T) {
	db := filepath.Join(t.TempDir(), "atlas.db")
	run(t, "semester", "add", "One", "--db", db, "--log-level", "error")

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"semester", "add", "Two", "--db", db, "--log-level", "error"})
	assert.Error(t, cmd.Execute())
}
