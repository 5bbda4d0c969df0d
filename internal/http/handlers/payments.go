package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/access"
	"github.com/hongminglow/jiahe-fees/internal/billing"
	"github.com/hongminglow/jiahe-fees/internal/http/respond"
	"github.com/hongminglow/jiahe-fees/internal/ledger"
	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/models/dto"
	"github.com/hongminglow/jiahe-fees/internal/report"
	"github.com/hongminglow/jiahe-fees/internal/residents"
)

// PaymentHandler exposes the payment desk.
type PaymentHandler struct {
	desk      *billing.Desk
	ledger    *ledger.Ledger
	residents *residents.Directory
	logger    *zap.Logger
	now       func() time.Time
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(desk *billing.Desk, l *ledger.Ledger, dir *residents.Directory, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{desk: desk, ledger: l, residents: dir, logger: logger, now: time.Now}
}

// Register attaches the quote, payment and receipt routes to the secured router.
func (h *PaymentHandler) Register(r *mux.Router) {
	r.HandleFunc("/fees/quote", h.handleQuote).Methods(http.MethodPost)
	r.HandleFunc("/payments", h.handleConfirm).Methods(http.MethodPost)
	r.HandleFunc("/payments/recent", h.handleRecent).Methods(http.MethodGet)
	r.HandleFunc("/payments/status", h.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/payments/{id}/{year:[0-9]+}/{month:[0-9]+}", h.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/payments/{id}/{year:[0-9]+}/{month:[0-9]+}/receipt", h.handleReceipt).Methods(http.MethodGet)
}

func (h *PaymentHandler) readForm(w http.ResponseWriter, r *http.Request) (dto.PaymentRequest, billing.Form, bool) {
	var req dto.PaymentRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return req, billing.Form{}, false
	}
	form, err := req.Form()
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return req, billing.Form{}, false
	}
	return req, form, true
}

func (h *PaymentHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	if err := access.Require(actor(r), access.ActionRecordPayment); err != nil {
		writeError(w, h.logger, err)
		return
	}
	_, form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	start := form.Management.Start
	respond.JSON(w, http.StatusOK, "ok", dto.QuoteResponse{
		Breakdown: h.desk.Quote(form),
		Locked:    h.ledger.IsPeriodLocked(form.ResidentID, start.Year, start.Month),
	})
}

func (h *PaymentHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	req, form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	res, err := h.desk.Confirm(r.Context(), actor(r), form, req.Override)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	msg := "payment recorded"
	if res.Replaced {
		msg = "payment replaced"
	}
	respond.JSON(w, http.StatusCreated, msg, res)
}

func (h *PaymentHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	recs, err := h.desk.Recent(actor(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if recs == nil {
		recs = []models.PaymentRecord{}
	}
	respond.JSON(w, http.StatusOK, "ok", recs)
}

func (h *PaymentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := paymentKey(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.desk.Delete(r.Context(), actor(r), key.ResidentID, key.Year, key.Month); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "payment deleted", nil)
}

func (h *PaymentHandler) handleReceipt(w http.ResponseWriter, r *http.Request) {
	key, err := paymentKey(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user := actor(r)
	if err := access.RequireResident(user, access.ActionPrintReceipt, key.ResidentID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.ledger.Get(key.ResidentID, key.Year, key.Month)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.residents.Get(key.ResidentID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var buf bytes.Buffer
	if err := report.RenderReceipt(&buf, rec, res, user.Username); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.Text(w, http.StatusOK, buf.Bytes())
}

type statusResponse struct {
	Month   string             `json:"month"`
	Summary report.Summary     `json:"summary"`
	Rows    []report.StatusRow `json:"rows"`
}

// handleStatus answers "is this resident paid for the month" for every
// resident the caller can see.
func (h *PaymentHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	user := actor(r)
	if err := access.Require(user, access.ActionViewResident); err != nil {
		writeError(w, h.logger, err)
		return
	}
	ym, err := monthParam(r, models.MonthOf(h.now()))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	rows := access.VisibleResidents(user, report.BuildStatus(h.residents, h.ledger, ym),
		func(row report.StatusRow) string { return row.Resident.ID })
	respond.JSON(w, http.StatusOK, "ok", statusResponse{
		Month:   ym.String(),
		Summary: report.Summarize(rows),
		Rows:    rows,
	})
}
