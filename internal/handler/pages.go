package handler

import (
	"net/http"

	"github.com/pavelanni/studentatlas/internal/analytics"
	"github.com/pavelanni/studentatlas/internal/grading"
	"github.com/pavelanni/studentatlas/internal/handler/views"
	"github.com/pavelanni/studentatlas/internal/tracker"
)

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	sems, err := h.Tracker.ListSemesters(r.Context(), user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	achievements, err := h.Achievements.List(r.Context(), user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := views.DashboardData{
		User:         *user,
		Summary:      grading.Summarize(sems),
		Past:         analytics.Past(sems),
		Insights:     analytics.Analyze(sems),
		Achievements: achievements,
	}
	if cur, ok := tracker.Current(sems); ok {
		data.Current = &cur
	}
	h.render(w, r, views.Dashboard(data))
}
