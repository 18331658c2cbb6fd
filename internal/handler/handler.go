package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/studentatlas/internal/achievement"
	"github.com/pavelanni/studentatlas/internal/advisor"
	"github.com/pavelanni/studentatlas/internal/export"
	"github.com/pavelanni/studentatlas/internal/model"
	"github.com/pavelanni/studentatlas/internal/notify"
	"github.com/pavelanni/studentatlas/internal/tracker"
)

// Users manages local profiles.
type Users interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	EnsureUser(ctx context.Context, u model.User) (*model.User, error)
	UpdateUser(ctx context.Context, u model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

// Deps are the collaborators a Handler serves. Advisor and Inbox may be nil.
type Deps struct {
	Tracker      *tracker.Tracker
	Users        Users
	Achievements *achievement.Service
	Importer     *export.Importer
	Advisor      *advisor.Client
	Inbox        *notify.Recorder
	DefaultUser  string
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	Deps
	validate *validator.Validate
}

// New creates a new Handler.
func New(d Deps) *Handler {
	if d.DefaultUser == "" {
		d.DefaultUser = "me"
	}
	return &Handler{Deps: d, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.sameOrigin)
	r.Use(h.withUser)

	r.Get("/", h.handleDashboard)
	r.Get("/report", h.handleReport)

	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.handleGetMe)
		r.Patch("/me", h.handleUpdateMe)
		r.Get("/profiles", h.handleListProfiles)
		r.Post("/profiles", h.handleCreateProfile)

		r.Get("/semesters", h.handleListSemesters)
		r.Post("/semesters", h.handleCreateSemester)
		r.Delete("/semesters", h.handleDeleteAll)
		r.Route("/semesters/{semesterID}", func(r chi.Router) {
			r.Get("/", h.handleGetSemester)
			r.Patch("/", h.handleUpdateSemester)
			r.Delete("/", h.handleDeleteSemester)
			r.Post("/courses", h.handleAddCourse)
			r.Patch("/courses/{courseID}", h.handleUpdateCourse)
			r.Delete("/courses/{courseID}", h.handleDeleteCourse)
		})

		r.Get("/summary", h.handleSummary)
		r.Get("/exam-target", h.handleExamTarget)
		r.Get("/analytics", h.handleAnalytics)
		r.Get("/achievements", h.handleAchievements)
		r.Get("/notifications", h.handleNotifications)
		r.Post("/advice", h.handleAdvice)

		r.Get("/export", h.handleExport)
		r.Post("/import", h.handleImport)
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
