package advisor

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"sync"
	"text/template"
)

// Tone selects how the advisor talks to the student.
type Tone string

const (
	ToneEncouraging Tone = "encouraging"
	ToneBalanced    Tone = "balanced"
	ToneDirect      Tone = "direct"
)

var tones = []Tone{ToneEncouraging, ToneBalanced, ToneDirect}

// IsValidTone reports whether t names a known tone.
func IsValidTone(t string) bool {
	for _, v := range tones {
		if Tone(t) == v {
			return true
		}
	}
	return false
}

//go:embed prompts/*.tmpl
var promptFS embed.FS

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Tone]*template.Template
)

var recordTagRegex = regexp.MustCompile(`(?i)</?\s*student-record\b[^>]*>`)

func loadTemplates() error {
	loadOnce.Do(func() {
		templates = make(map[Tone]*template.Template, len(tones))
		for _, tone := range tones {
			tmpl, err := template.ParseFS(promptFS, "prompts/"+string(tone)+".tmpl", "prompts/context.tmpl")
			if err != nil {
				loadErr = fmt.Errorf("parse %s prompt: %w", tone, err)
				return
			}
			templates[tone] = tmpl
		}
	})
	return loadErr
}

// sanitize keeps user-entered names from closing the record block.
func sanitize(s string) string {
	return recordTagRegex.ReplaceAllString(s, "")
}

func renderPrompt(tone Tone, data promptData) (string, error) {
	if err := loadTemplates(); err != nil {
		return "", err
	}
	tmpl, ok := templates[tone]
	if !ok {
		return "", fmt.Errorf("unknown tone %q", tone)
	}
	for i := range data.Trend {
		data.Trend[i].SemesterName = sanitize(data.Trend[i].SemesterName)
	}
	for i := range data.Courses {
		data.Courses[i].Name = sanitize(data.Courses[i].Name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tone, err)
	}
	return buf.String(), nil
}
