package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/udyogbooks/udyogbooks/internal/platform/httpx"
	"github.com/udyogbooks/udyogbooks/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  *shared.SessionManager
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		csrf:      csrf,
		validator: validator.New(),
	}
}

// MountRoutes registers the unauthenticated auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)
	r.Post("/logout", h.logout)
}

// MountSessionRoutes registers routes that require an active session.
func (h *Handler) MountSessionRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionResponse struct {
	User      *User           `json:"user,omitempty"`
	Session   *shared.Session `json:"session"`
	CSRFToken string          `json:"csrf_token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, sess, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	h.sessions.WriteCookie(w, sess)
	httpx.JSON(w, http.StatusOK, sessionResponse{
		User:      user,
		Session:   sess,
		CSRFToken: h.csrf.IssueToken(sess.ID),
	})
}

// refresh rotates the presented token. The old token stays usable for the
// grace window; the response carries the replacement cookie and CSRF token.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token := h.sessions.TokenFromRequest(r)
	sess, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, shared.ErrSessionInvalid) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session cannot be refreshed")
			return
		}
		h.logger.Error("refresh session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	h.sessions.WriteCookie(w, sess)
	httpx.JSON(w, http.StatusOK, sessionResponse{
		Session:   sess,
		CSRFToken: h.csrf.IssueToken(sess.ID),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := h.sessions.TokenFromRequest(r)
	if token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			h.logger.Warn("revoke session", slog.Any("error", err))
		}
	}
	h.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	user, err := h.service.UserFromSession(r.Context(), sess)
	if err != nil {
		if errors.Is(err, shared.ErrSessionInvalid) || errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing or expired session")
			return
		}
		h.logger.Error("load current user", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user, "session_state": sess.State})
}
