package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/access"
	"github.com/hongminglow/jiahe-fees/internal/http/respond"
	"github.com/hongminglow/jiahe-fees/internal/ledger"
	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/report"
	"github.com/hongminglow/jiahe-fees/internal/residents"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler exports the monthly status sheet.
type ReportHandler struct {
	residents *residents.Directory
	ledger    *ledger.Ledger
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportHandler constructs the handler.
func NewReportHandler(dir *residents.Directory, l *ledger.Ledger, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{residents: dir, ledger: l, logger: logger, now: time.Now}
}

// Register attaches the export routes.
func (h *ReportHandler) Register(r *mux.Router) {
	r.HandleFunc("/reports/status.xlsx", h.handleXLSX).Methods(http.MethodGet)
	r.HandleFunc("/reports/status.csv", h.handleCSV).Methods(http.MethodGet)
}

func (h *ReportHandler) rows(w http.ResponseWriter, r *http.Request) (models.YearMonth, []report.StatusRow, bool) {
	if err := access.Require(actor(r), access.ActionExportReport); err != nil {
		writeError(w, h.logger, err)
		return models.YearMonth{}, nil, false
	}
	ym, err := monthParam(r, models.MonthOf(h.now()))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return models.YearMonth{}, nil, false
	}
	return ym, report.BuildStatus(h.residents, h.ledger, ym), true
}

func (h *ReportHandler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	ym, rows, ok := h.rows(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rows, ym.String()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.Attachment(w, xlsxContentType, fmt.Sprintf("jiahe-status-%s.xlsx", ym), buf.Bytes())
}

func (h *ReportHandler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ym, rows, ok := h.rows(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rows); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.Attachment(w, "text/csv; charset=utf-8", fmt.Sprintf("jiahe-status-%s.csv", ym), buf.Bytes())
}
