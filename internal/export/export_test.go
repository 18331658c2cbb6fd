package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/studentatlas/internal/model"
	"github.com/pavelanni/studentatlas/internal/store"
	"github.com/pavelanni/studentatlas/internal/tracker"
)

func ptr[T any](v T) *T { return &v }

func sampleSemesters() []model.Semester {
	return []model.Semester{
		{
			ID: "sem_1", Name: "Year 1", Type: model.SemesterPast, Timestamp: 1000, GPA: 5,
			Courses: []model.Course{{
				ID: "course_1", Name: "Physics", Code: "PHY101", UnitHours: 3,
				CAScores: model.CAScores{Midterm: 18, Assignment: 17, Quiz: 9, Attendance: 10},
				TargetGrade: model.GradeA, Difficulty: 4, FinalScore: ptr(84.0), Grade: model.GradeA,
			}},
		},
		{ID: "sem_2", Name: "Year 2", Type: model.SemesterCurrent, Timestamp: 2000, Courses: []model.Course{}},
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.FixedZone("X", 3600))
	exp := Build(model.User{Email: "a@b.c"}, sampleSemesters(), now)

	assert.Equal(t, "2026-03-04T04:06:07.008Z", exp.ExportDate)
	assert.Equal(t, "a@b.c", exp.UserEmail)
	assert.Equal(t, model.Summary{
		CGPA: 5, PredictedCGPA: 5, TotalSemesters: 2, TotalCourses: 1, CompletedCourses: 1,
	}, exp.Summary)

	empty := Build(model.User{}, nil, now)
	assert.NotNil(t, empty.Semesters)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Build(model.User{Email: "a@b.c"}, sampleSemesters(), time.Unix(0, 0))))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, k := range []string{"exportDate", "userEmail", "semesters", "summary"} {
		assert.Contains(t, raw, k)
	}
	assert.Contains(t, buf.String(), "\n  \"semesters\": [")
	assert.Contains(t, buf.String(), `"predictedCgpa": 5`)
	assert.Contains(t, buf.String(), `"finalScore": 84`)
}

func TestParse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Build(model.User{}, sampleSemesters(), time.Now())))

	fromExport, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, sampleSemesters(), fromExport)

	bare, err := json.Marshal(sampleSemesters())
	require.NoError(t, err)
	fromArray, err := Parse(append([]byte("\n  "), bare...))
	require.NoError(t, err)
	assert.Equal(t, sampleSemesters(), fromArray)

	for _, in := range []string{"", "   ", `"text"`, `{"other": 1}`, "42"} {
		_, err := Parse([]byte(in))
		assert.ErrorIs(t, err, ErrUnrecognized, "input %q", in)
	}
	_, err = Parse([]byte(`[{"name": 1}]`))
	assert.Error(t, err)
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Checksum(nil))
	assert.NotEqual(t, Checksum([]byte("a")), Checksum([]byte("b")))
}

func newImporter(t *testing.T) (*Importer, *tracker.Tracker) {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	tr := tracker.New(s)
	return NewImporter(s, tr), tr
}

func TestImport(t *testing.T) {
	im, tr := newImporter(t)
	ctx := context.Background()
	data, err := json.Marshal(sampleSemesters())
	require.NoError(t, err)

	res, err := im.Import(ctx, "u1", "backup.json", data)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, res.Semesters)
	assert.Equal(t, Checksum(data), res.Checksum)

	got, err := tr.ListSemesters(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Physics", got[0].Courses[0].Name)

	// Same content again is a no-op.
	res, err = im.Import(ctx, "u1", "backup.json", data)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	// Another user has their own import history.
	res, err = im.Import(ctx, "u2", "backup.json", data)
	require.NoError(t, err)
	assert.False(t, res.Skipped)

	// Changed content replaces the collection.
	changed, err := json.Marshal(sampleSemesters()[:1])
	require.NoError(t, err)
	res, err = im.Import(ctx, "u1", "backup.json", changed)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, res.Semesters)
}

func TestImportRestoresAfterEdits(t *testing.T) {
	im, tr := newImporter(t)
	ctx := context.Background()
	data, err := json.Marshal(sampleSemesters())
	require.NoError(t, err)

	_, err = im.Import(ctx, "u1", "backup.json", data)
	require.NoError(t, err)
	got, err := tr.ListSemesters(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, tr.DeleteSemester(ctx, "u1", got[0].ID))

	res, err := im.Import(ctx, "u1", "backup.json", data)
	require.NoError(t, err)
	assert.False(t, res.Skipped, "edited record must be restored")
	assert.Equal(t, 2, res.Semesters)

	got, err = tr.ListSemesters(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Nothing changed since the restore, so the file is skipped again.
	res, err = im.Import(ctx, "u1", "backup.json", data)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestImportRejectsInvalid(t *testing.T) {
	im, tr := newImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx, "u1", "bad.json", []byte("nope"))
	assert.ErrorIs(t, err, ErrUnrecognized)

	two := sampleSemesters()
	two[0].Type = model.SemesterCurrent
	data, err := json.Marshal(two)
	require.NoError(t, err)
	_, err = im.Import(ctx, "u1", "two.json", data)
	assert.True(t, errors.Is(err, tracker.ErrCurrentExists))

	got, err := tr.ListSemesters(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	// A failed import is not recorded, so retrying is not skipped.
	res, err := im.Import(ctx, "u1", "two.json", data)
	assert.Error(t, err)
	assert.False(t, res.Skipped)
}
