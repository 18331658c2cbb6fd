package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/studentatlas/internal/model"
)

type profileInput struct {
	ID          string `json:"id" validate:"required,max=64"`
	DisplayName string `json:"displayName" validate:"max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
	Lang        string `json:"lang" validate:"omitempty,oneof=en ru"`
}

type profileUpdate struct {
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,max=100"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Lang        *string `json:"lang,omitempty" validate:"omitempty,oneof=en ru"`
}

func (h *Handler) validationFailed(w http.ResponseWriter, err error) {
	fields := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = "failed " + fe.Tag()
		}
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid input", Fields: fields})
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var up profileUpdate
	if !decodeJSON(w, r, &up) {
		return
	}
	if err := h.validate.Struct(up); err != nil {
		h.validationFailed(w, err)
		return
	}
	u := *currentUser(r)
	if up.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*up.DisplayName)
	}
	if up.Email != nil {
		u.Email = *up.Email
	}
	if up.Lang != nil {
		u.Lang = *up.Lang
	}
	if err := h.Users.UpdateUser(r.Context(), u); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var in profileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.validate.Struct(in); err != nil {
		h.validationFailed(w, err)
		return
	}
	if !userIDPattern.MatchString(in.ID) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid input", Fields: map[string]string{"id": "invalid characters"}})
		return
	}
	existing, err := h.Users.GetUser(r.Context(), in.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, errorBody{Error: "profile already exists"})
		return
	}
	if in.DisplayName == "" {
		in.DisplayName = in.ID
	}
	u, err := h.Users.EnsureUser(r.Context(), model.User{
		ID:          in.ID,
		DisplayName: in.DisplayName,
		Email:       in.Email,
		Lang:        in.Lang,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}
