package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/auth"
	"github.com/hongminglow/jiahe-fees/internal/http/respond"
	"github.com/hongminglow/jiahe-fees/internal/middleware"
	"github.com/hongminglow/jiahe-fees/internal/models/dto"
)

// AuthHandler owns login/logout and the current-user endpoint.
type AuthHandler struct {
	sessions *auth.Manager
	logger   *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(sessions *auth.Manager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

// Register attaches login to the public router and the rest to the secured one.
func (h *AuthHandler) Register(public, secured *mux.Router) {
	public.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)
	secured.HandleFunc("/logout", h.handleLogout).Methods(http.MethodPost)
	secured.HandleFunc("/me", h.handleMe).Methods(http.MethodGet)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, token, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: sess.User})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", middleware.SessionFrom(r.Context()))
}
