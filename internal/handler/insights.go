package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/studentatlas/internal/analytics"
	"github.com/pavelanni/studentatlas/internal/grading"
	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/model"
	"github.com/pavelanni/studentatlas/internal/notify"
	"github.com/pavelanni/studentatlas/internal/tracker"
)

type summaryResponse struct {
	model.Summary
	Targets []analytics.CourseTarget `json:"targets"`
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	sems, err := h.Tracker.ListSemesters(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := summaryResponse{Summary: grading.Summarize(sems), Targets: []analytics.CourseTarget{}}
	if cur, ok := tracker.Current(sems); ok {
		resp.Targets = append(resp.Targets, analytics.Targets(cur)...)
	}
	writeJSON(w, http.StatusOK, resp)
}

type examTargetQuery struct {
	CA     float64     `validate:"gte=0,lte=60"`
	Target model.Grade `validate:"required,oneof=A B C"`
}

func (h *Handler) handleExamTarget(w http.ResponseWriter, r *http.Request) {
	q := examTargetQuery{Target: model.Grade(r.URL.Query().Get("target"))}
	fields := map[string]string{}
	ca, err := strconv.ParseFloat(r.URL.Query().Get("ca"), 64)
	if err != nil {
		fields["ca"] = "must be a number"
	}
	q.CA = ca
	var ve validator.ValidationErrors
	if err := h.validate.Struct(q); errors.As(err, &ve) {
		for _, fe := range ve {
			switch fe.Field() {
			case "CA":
				if _, seen := fields["ca"]; !seen {
					fields["ca"] = "must be between 0 and 60"
				}
			case "Target":
				fields["target"] = "must be one of A B C"
			}
		}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid input", Fields: fields})
		return
	}
	writeJSON(w, http.StatusOK, grading.RequiredExamScore(q.CA, q.Target))
}

type analyticsResponse struct {
	analytics.Insights
	RecommendationText []string `json:"recommendationText"`
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sems, err := h.Tracker.ListSemesters(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in := analytics.Analyze(sems)
	text := make([]string, 0, len(in.Recommendations))
	for _, id := range in.Recommendations {
		text = append(text, appI18n.T(r.Context(), id))
	}
	writeJSON(w, http.StatusOK, analyticsResponse{Insights: in, RecommendationText: text})
}

func (h *Handler) handleAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := h.Achievements.List(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	list := []notify.Notification{}
	if h.Inbox != nil {
		list = append(list, h.Inbox.Recent(currentUser(r).ID)...)
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if h.Advisor == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "advisor is not configured"})
		return
	}
	sems, err := h.Tracker.ListSemesters(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	advice, err := h.Advisor.Advise(r.Context(), sems)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, advice)
}
