package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"regexp"

	appI18n "github.com/pavelanni/studentatlas/internal/i18n"
	"github.com/pavelanni/studentatlas/internal/model"
)

const (
	userHeader     = "X-Atlas-User"
	userCookieName = "atlas_user"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// sameOrigin rejects state-changing requests sent by another site.
func (h *Handler) sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host != r.Host {
			slog.Warn("cross-origin request rejected", "origin", origin, "host", r.Host)
			writeJSON(w, http.StatusForbidden, errorBody{Error: "cross-origin request"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withUser resolves the active profile from the X-Atlas-User header, the
// atlas_user cookie or the default. Unknown profiles are created.
func (h *Handler) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(userHeader)
		if id == "" {
			if c, err := r.Cookie(userCookieName); err == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = h.DefaultUser
		}
		if !userIDPattern.MatchString(id) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid user id"})
			return
		}

		user, err := h.Users.EnsureUser(r.Context(), model.User{ID: id, DisplayName: id})
		if err != nil {
			slog.Error("failed to load user", "user_id", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		// The profile language wins unless the request asks for one.
		if r.URL.Query().Get("lang") == "" && user.Lang != "" {
			ctx = appI18n.WithLang(ctx, appI18n.Match(user.Lang))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) *model.User {
	return model.UserFromContext(r.Context())
}
