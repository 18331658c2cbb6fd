// Package advisor asks an OpenAI-compatible model for a short study plan
// built from the student's analytics and exam targets.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/pavelanni/studentatlas/internal/analytics"
	"github.com/pavelanni/studentatlas/internal/grading"
	"github.com/pavelanni/studentatlas/internal/model"
)

// ErrRateLimited is returned when the request budget is spent and the
// caller's context does not allow waiting for it.
var ErrRateLimited = errors.New("advisor rate limit exceeded")

// Advice is the model's study plan.
type Advice struct {
	Summary string   `json:"summary"`
	Focus   []Focus  `json:"focus"`
	Tips    []string `json:"tips"`
}

// Focus names a course that deserves attention.
type Focus struct {
	Course string `json:"course"`
	Reason string `json:"reason"`
}

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Tone    Tone
	// PerMinute caps requests per minute. Zero means 6.
	PerMinute int
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	tone    Tone
	limiter *rate.Limiter
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	tone := cfg.Tone
	if tone == "" {
		tone = ToneBalanced
	}
	if !IsValidTone(string(tone)) {
		return nil, fmt.Errorf("unknown advisor tone %q", tone)
	}
	if err := loadTemplates(); err != nil {
		return nil, err
	}
	perMinute := cfg.PerMinute
	if perMinute <= 0 {
		perMinute = 6
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   cfg.Model,
		tone:    tone,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}, nil
}

// Advise builds a prompt from the semesters and returns the model's plan.
func (c *Client) Advise(ctx context.Context, semesters []model.Semester) (*Advice, error) {
	prompt, err := renderPrompt(c.tone, buildPromptData(semesters))
	if err != nil {
		return nil, err
	}

	if !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: "What should I focus on this semester?"},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("advisor API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("advisor returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("advisor response", "raw", raw)
	return parseAdvice(raw)
}

func parseAdvice(raw string) (*Advice, error) {
	var a Advice
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("parse advisor response: %w (raw: %s)", err, raw)
	}
	if a.Summary == "" {
		return nil, fmt.Errorf("advisor response has no summary (raw: %s)", raw)
	}
	if a.Focus == nil {
		a.Focus = []Focus{}
	}
	if a.Tips == nil {
		a.Tips = []string{}
	}
	return &a, nil
}

type courseLine struct {
	Name       string
	Units      int
	Difficulty int
	CA         float64
	Target     model.Grade
	Required   float64
	Achievable bool
}

type promptData struct {
	CGPA          float64
	PredictedCGPA float64
	Trend         []analytics.TrendPoint
	Courses       []courseLine
}

func buildPromptData(semesters []model.Semester) promptData {
	insights := analytics.Analyze(semesters)
	data := promptData{
		CGPA:          grading.CGPA(semesters),
		PredictedCGPA: grading.PredictedCGPA(semesters),
		Trend:         append([]analytics.TrendPoint(nil), insights.Trend...),
	}
	for _, s := range semesters {
		if s.Type != model.SemesterCurrent {
			continue
		}
		for _, ct := range analytics.Targets(s) {
			data.Courses = append(data.Courses, courseLine{
				Name:       ct.Course.Name,
				Units:      ct.Course.UnitHours,
				Difficulty: ct.Course.Difficulty,
				CA:         ct.Target.CATotal,
				Target:     ct.Target.TargetGrade,
				Required:   ct.Target.RequiredExam,
				Achievable: ct.Target.Achievable,
			})
		}
		break
	}
	return data
}
