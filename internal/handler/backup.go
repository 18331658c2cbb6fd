package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pavelanni/studentatlas/internal/export"
	"github.com/pavelanni/studentatlas/internal/handler/views"
)

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	sems, err := h.Tracker.ListSemesters(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	exp := export.Build(*user, sems, time.Now())
	name := fmt.Sprintf("atlas-%s-%s.json", user.ID, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteJSON(w, exp); err != nil {
		slog.Error("export failed", "user_id", user.ID, "error", err)
	}
}

// handleImport accepts a multipart upload in the "file" field or a raw
// JSON body.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	source := "upload"
	var data []byte
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "file too large"})
			return
		}
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "no file uploaded"})
			return
		}
		defer file.Close()
		source = header.Filename
		data, err = io.ReadAll(file)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "failed to read body"})
		return
	}

	res, err := h.Importer.Import(r.Context(), currentUser(r).ID, source, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	sems, err := h.Tracker.ListSemesters(r.Context(), user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, r, views.Report(export.Build(*user, sems, time.Now())))
}
