package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/access"
	"github.com/hongminglow/jiahe-fees/internal/billing"
	"github.com/hongminglow/jiahe-fees/internal/http/respond"
	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/residents"
)

// ResidentHandler serves the resident directory under the row rule.
type ResidentHandler struct {
	residents *residents.Directory
	desk      *billing.Desk
	logger    *zap.Logger
}

// NewResidentHandler constructs the handler.
func NewResidentHandler(dir *residents.Directory, desk *billing.Desk, logger *zap.Logger) *ResidentHandler {
	return &ResidentHandler{residents: dir, desk: desk, logger: logger}
}

// Register attaches resident routes to the secured router.
func (h *ResidentHandler) Register(r *mux.Router) {
	r.HandleFunc("/residents", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/residents/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/residents/{id}/payments", h.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/residents/{id}/prefill", h.handlePrefill).Methods(http.MethodGet)
}

func (h *ResidentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user := actor(r)
	if err := access.Require(user, access.ActionViewResident); err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := access.VisibleResidents(user, h.residents.List(), func(res models.Resident) string { return res.ID })
	respond.JSON(w, http.StatusOK, "ok", out)
}

func (h *ResidentHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := residentParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := access.RequireResident(actor(r), access.ActionViewResident, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.residents.Get(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", res)
}

func (h *ResidentHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := residentParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	recs, err := h.desk.History(actor(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if recs == nil {
		recs = []models.PaymentRecord{}
	}
	respond.JSON(w, http.StatusOK, "ok", recs)
}

func (h *ResidentHandler) handlePrefill(w http.ResponseWriter, r *http.Request) {
	if err := access.Require(actor(r), access.ActionRecordPayment); err != nil {
		writeError(w, h.logger, err)
		return
	}
	id, err := residentParam(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	form, err := h.desk.Prefill(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", form)
}
