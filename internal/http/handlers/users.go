package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/access"
	"github.com/hongminglow/jiahe-fees/internal/auth"
	"github.com/hongminglow/jiahe-fees/internal/http/respond"
	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/models/dto"
	"github.com/hongminglow/jiahe-fees/internal/users"
)

// UserHandler is the ADMIN-only account console.
type UserHandler struct {
	users  *users.Directory
	logger *zap.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(dir *users.Directory, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: dir, logger: logger}
}

// Register mounts /users behind an ADMIN check.
func (h *UserHandler) Register(r *mux.Router) {
	sub := r.PathPrefix("/users").Subrouter()
	sub.Use(h.requireAdmin)
	sub.HandleFunc("", h.handleList).Methods(http.MethodGet)
	sub.HandleFunc("", h.handleCreate).Methods(http.MethodPost)
	sub.HandleFunc("/{id}", h.handleDelete).Methods(http.MethodDelete)
	sub.HandleFunc("/{id}/role", h.handleRole).Methods(http.MethodPut)
}

func (h *UserHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := access.Require(actor(r), access.ActionManageUsers); err != nil {
			writeError(w, h.logger, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list := h.users.List()
	out := make([]models.User, 0, len(list))
	for _, u := range list {
		out = append(out, u.Public())
	}
	respond.JSON(w, http.StatusOK, "ok", out)
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	created, err := h.users.Create(r.Context(), users.NewUser{Username: req.Username, PasswordHash: hash, Role: role})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "user created", created.Public())
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), actor(r).ID, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "user deleted", nil)
}

func (h *UserHandler) handleRole(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateRoleRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.users.UpdateRole(r.Context(), actor(r).ID, mux.Vars(r)["id"], role)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "role updated", updated.Public())
}
