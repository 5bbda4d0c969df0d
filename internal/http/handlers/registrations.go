package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/access"
	"github.com/hongminglow/jiahe-fees/internal/http/respond"
	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/models/dto"
	"github.com/hongminglow/jiahe-fees/internal/registration"
)

// RegistrationHandler exposes the claim workflow.
type RegistrationHandler struct {
	flow   *registration.Workflow
	logger *zap.Logger
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(flow *registration.Workflow, logger *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{flow: flow, logger: logger}
}

// Register wires the claim and review routes.
func (h *RegistrationHandler) Register(r *mux.Router) {
	r.HandleFunc("/registrations", h.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/registrations", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/registrations/mine", h.handleMine).Methods(http.MethodGet)
	r.HandleFunc("/registrations/{id}/approve", h.handleApprove).Methods(http.MethodPost)
	r.HandleFunc("/registrations/{id}/reject", h.handleReject).Methods(http.MethodPost)
}

func (h *RegistrationHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req dto.ClaimRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	reg, err := h.flow.Submit(r.Context(), actor(r), registration.ClaimInput{
		AddressNumber: req.AddressNumber,
		Floor:         req.Floor,
		Staff:         req.Staff,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "registration submitted", reg)
}

// handleList serves the review queue; ?status=all includes decided claims.
func (h *RegistrationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if err := access.Require(actor(r), access.ActionReviewRegistrations); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var list []models.AddressRegistration
	switch r.URL.Query().Get("status") {
	case "", "pending":
		list = h.flow.Pending()
	case "all":
		list = h.flow.All()
	default:
		respond.Error(w, http.StatusBadRequest, "status must be pending or all")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", orEmpty(list))
}

func (h *RegistrationHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", orEmpty(h.flow.ForUser(actor(r).ID)))
}

func (h *RegistrationHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	reg, err := h.flow.Approve(r.Context(), actor(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "registration approved", reg)
}

func (h *RegistrationHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	reg, err := h.flow.Reject(r.Context(), actor(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "registration rejected", reg)
}

func orEmpty(list []models.AddressRegistration) []models.AddressRegistration {
	if list == nil {
		return []models.AddressRegistration{}
	}
	return list
}
