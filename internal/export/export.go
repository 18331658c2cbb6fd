// Package export writes backups of a student's record and restores them.
package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/studentatlas/internal/grading"
	"github.com/pavelanni/studentatlas/internal/model"
)

// DateLayout is the exportDate format, UTC with milliseconds.
const DateLayout = "2006-01-02T15:04:05.000Z"

// ErrUnrecognized is returned for input that is neither a backup nor a
// semester list.
var ErrUnrecognized = errors.New("unrecognized import format")

// Build assembles a backup of semesters for user.
func Build(user model.User, semesters []model.Semester, now time.Time) model.Export {
	if semesters == nil {
		semesters = []model.Semester{}
	}
	return model.Export{
		ExportDate: now.UTC().Format(DateLayout),
		UserEmail:  user.Email,
		Semesters:  semesters,
		Summary:    grading.Summarize(semesters),
	}
}

// WriteJSON writes exp as indented JSON followed by a newline.
func WriteJSON(w io.Writer, exp model.Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exp); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Parse reads semesters from a backup object or a bare semester array.
func Parse(data []byte) ([]model.Semester, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrUnrecognized
	}
	switch data[0] {
	case '[':
		var sems []model.Semester
		if err := json.Unmarshal(data, &sems); err != nil {
			return nil, fmt.Errorf("parse semesters: %w", err)
		}
		return sems, nil
	case '{':
		var exp struct {
			Semesters *[]model.Semester `json:"semesters"`
		}
		if err := json.Unmarshal(data, &exp); err != nil {
			return nil, fmt.Errorf("parse export: %w", err)
		}
		if exp.Semesters == nil {
			return nil, fmt.Errorf("%w: no semesters field", ErrUnrecognized)
		}
		return *exp.Semesters, nil
	}
	return nil, ErrUnrecognized
}

// Checksum returns the hex sha256 of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashStore remembers which content was last imported from a source.
type HashStore interface {
	GetImportedFileHash(ctx context.Context, userID, path string) (string, error)
	SetImportedFileHash(ctx context.Context, userID, path, hash string) error
}

// Collection reads and swaps a user's whole set of semesters.
type Collection interface {
	ListSemesters(ctx context.Context, userID string) ([]model.Semester, error)
	ReplaceAll(ctx context.Context, userID string, semesters []model.Semester) ([]model.Semester, error)
}

// Result reports what an import did.
type Result struct {
	Source    string `json:"source"`
	Checksum  string `json:"checksum"`
	Semesters int    `json:"semesters"`
	Skipped   bool   `json:"skipped"`
}

// Importer restores backups. Content already imported from the same source
// is skipped only while the stored collection is still the one that import
// produced; once the user edits their record the same file restores again.
type Importer struct {
	hashes HashStore
	target Collection
}

// NewImporter creates an Importer.
func NewImporter(hashes HashStore, target Collection) *Importer {
	return &Importer{hashes: hashes, target: target}
}

// Import replaces the user's semesters with the ones in data. source names
// where data came from, such as a file path.
func (im *Importer) Import(ctx context.Context, userID, source string, data []byte) (Result, error) {
	res := Result{Source: source, Checksum: Checksum(data)}

	recorded, err := im.hashes.GetImportedFileHash(ctx, userID, source)
	if err != nil {
		return res, fmt.Errorf("check import status for %s: %w", source, err)
	}
	if fileHash, stateHash, ok := strings.Cut(recorded, ":"); ok && fileHash == res.Checksum {
		current, err := im.target.ListSemesters(ctx, userID)
		if err != nil {
			return res, fmt.Errorf("load semesters: %w", err)
		}
		if collectionChecksum(current) == stateHash {
			slog.Info("import unchanged, skipping", "user_id", userID, "source", source)
			res.Skipped = true
			res.Semesters = len(current)
			return res, nil
		}
	}

	sems, err := Parse(data)
	if err != nil {
		return res, fmt.Errorf("parse %s: %w", source, err)
	}
	saved, err := im.target.ReplaceAll(ctx, userID, sems)
	if err != nil {
		return res, err
	}
	res.Semesters = len(saved)

	if err := im.hashes.SetImportedFileHash(ctx, userID, source, res.Checksum+":"+collectionChecksum(saved)); err != nil {
		return res, fmt.Errorf("record import for %s: %w", source, err)
	}
	slog.Info("imported semesters", "user_id", userID, "source", source, "count", res.Semesters)
	return res, nil
}

// collectionChecksum fingerprints a stored collection by its JSON form.
func collectionChecksum(semesters []model.Semester) string {
	if semesters == nil {
		semesters = []model.Semester{}
	}
	data, err := json.Marshal(semesters)
	if err != nil {
		return ""
	}
	return Checksum(data)
}
