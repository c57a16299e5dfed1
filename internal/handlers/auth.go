package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"loanpipe-backend/internal/auth"
	"loanpipe-backend/internal/middleware"
	"loanpipe-backend/internal/transport"
)

const refreshCookie = "loanpipe_refresh"

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// sessionUser is the "current user" snapshot the dashboard keeps across
// reloads. It mirrors session state only; it is never authoritative.
type sessionUser struct {
	Username string    `json:"username"`
	Role     string    `json:"role"`
	LoginAt  time.Time `json:"loginAt"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	if req.Username != s.Cfg.DashboardUser ||
		auth.ComparePassword(s.Cfg.DashboardPasswordHash, req.Password) != nil {
		log.Warn("login: rejected", slog.String("username", req.Username))
		transport.WriteError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	access, err := s.JWT.NewAccessToken(req.Username, "agent")
	if err != nil {
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return
	}
	refresh, err := s.JWT.NewRefreshToken(req.Username, "agent")
	if err != nil {
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return
	}

	user := sessionUser{Username: req.Username, Role: "agent", LoginAt: time.Now().UTC()}
	if payload, err := json.Marshal(user); err == nil {
		_ = s.Cache.Set(r.Context(), "session:user:"+req.Username, payload, s.JWT.RefreshTTL)
	}

	s.setSessionCookies(w, access, refresh)
	log.Info("login: ok", slog.String("username", req.Username))
	transport.WriteData(w, http.StatusOK, user)
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		transport.WriteError(w, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	claims, err := s.JWT.Parse(cookie.Value)
	if err != nil {
		transport.WriteError(w, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}

	access, err := s.JWT.NewAccessToken(claims.Username, claims.Role)
	if err != nil {
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return
	}
	refresh, err := s.JWT.NewRefreshToken(claims.Username, claims.Role)
	if err != nil {
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return
	}

	s.setSessionCookies(w, access, refresh)
	transport.WriteData(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookie); err == nil && cookie.Value != "" {
		if claims, err := s.JWT.Parse(cookie.Value); err == nil {
			_ = s.Cache.Delete(r.Context(), "session:user:"+claims.Username)
		}
	}
	s.clearSessionCookies(w)
	transport.WriteData(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	if payload, ok, err := s.Cache.Get(r.Context(), "session:user:"+claims.Username); err == nil && ok {
		var user sessionUser
		if err := json.Unmarshal(payload, &user); err == nil {
			transport.WriteData(w, http.StatusOK, user)
			return
		}
	}
	transport.WriteData(w, http.StatusOK, sessionUser{Username: claims.Username, Role: claims.Role})
}

func (s *Server) setSessionCookies(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.JWT.AccessTTL / time.Second),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refresh,
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   s.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.JWT.RefreshTTL / time.Second),
	})
}

func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: middleware.AccessCookie, Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: "", Path: "/api/auth", MaxAge: -1})
}
