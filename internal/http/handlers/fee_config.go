package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/access"
	"github.com/hongminglow/jiahe-fees/internal/feeconfig"
	"github.com/hongminglow/jiahe-fees/internal/http/respond"
	"github.com/hongminglow/jiahe-fees/internal/models/dto"
)

// FeeConfigHandler reads and edits the rate table.
type FeeConfigHandler struct {
	rates  *feeconfig.Store
	logger *zap.Logger
}

// NewFeeConfigHandler constructs the handler.
func NewFeeConfigHandler(rates *feeconfig.Store, logger *zap.Logger) *FeeConfigHandler {
	return &FeeConfigHandler{rates: rates, logger: logger}
}

// Register wires GET and PUT /fee-config.
func (h *FeeConfigHandler) Register(r *mux.Router) {
	r.HandleFunc("/fee-config", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/fee-config", h.handlePut).Methods(http.MethodPut)
}

func (h *FeeConfigHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", h.rates.Get())
}

func (h *FeeConfigHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	user := actor(r)
	if err := access.Require(user, access.ActionEditFeeConfig); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req dto.FeeConfigRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := h.rates.Update(r.Context(), user.ID, req.Config())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "fee config updated", cfg)
}
