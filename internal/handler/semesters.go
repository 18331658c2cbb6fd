package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/studentatlas/internal/tracker"
)

func (h *Handler) handleListSemesters(w http.ResponseWriter, r *http.Request) {
	sems, err := h.Tracker.ListSemesters(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sems)
}

func (h *Handler) handleCreateSemester(w http.ResponseWriter, r *http.Request) {
	var in tracker.SemesterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	sem, err := h.Tracker.CreateSemester(r.Context(), currentUser(r).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sem)
}

func (h *Handler) handleGetSemester(w http.ResponseWriter, r *http.Request) {
	sem, err := h.Tracker.GetSemester(r.Context(), currentUser(r).ID, chi.URLParam(r, "semesterID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sem)
}

func (h *Handler) handleUpdateSemester(w http.ResponseWriter, r *http.Request) {
	var up tracker.SemesterUpdate
	if !decodeJSON(w, r, &up) {
		return
	}
	sem, err := h.Tracker.UpdateSemester(r.Context(), currentUser(r).ID, chi.URLParam(r, "semesterID"), up)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sem)
}

func (h *Handler) handleDeleteSemester(w http.ResponseWriter, r *http.Request) {
	if err := h.Tracker.DeleteSemester(r.Context(), currentUser(r).ID, chi.URLParam(r, "semesterID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.Tracker.DeleteAll(r.Context(), currentUser(r).ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddCourse(w http.ResponseWriter, r *http.Request) {
	var in tracker.CourseInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.Tracker.AddCourse(r.Context(), currentUser(r).ID, chi.URLParam(r, "semesterID"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleUpdateCourse returns the whole semester, since changing one course
// can regrade it or move it to the past.
func (h *Handler) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var up tracker.CourseUpdate
	if !decodeJSON(w, r, &up) {
		return
	}
	sem, err := h.Tracker.UpdateCourse(r.Context(), currentUser(r).ID,
		chi.URLParam(r, "semesterID"), chi.URLParam(r, "courseID"), up)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sem)
}

func (h *Handler) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	sem, err := h.Tracker.DeleteCourse(r.Context(), currentUser(r).ID,
		chi.URLParam(r, "semesterID"), chi.URLParam(r, "courseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sem)
}
