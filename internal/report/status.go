// Package report renders the fee desk's outputs: the monthly paid/unpaid sheet
// and the printable receipt.
package report

import (
	"github.com/Rhymond/go-money"

	"github.com/hongminglow/jiahe-fees/internal/models"
)

// Currency is the ISO code used on every printed amount.
const Currency = money.TWD

// ResidentSource lists residents in display order.
type ResidentSource interface {
	List() []models.Resident
}

// CoverageSource finds the payment covering a calendar month.
type CoverageSource interface {
	CoveringRecord(residentID string, ym models.YearMonth) (models.PaymentRecord, bool)
}

// StatusRow is one line of the monthly status sheet.
type StatusRow struct {
	Resident models.Resident       `json:"resident"`
	Month    models.YearMonth      `json:"month"`
	Paid     bool                  `json:"paid"`
	Record   *models.PaymentRecord `json:"record,omitempty"`
}

// BuildStatus reports, for every resident, whether ym falls inside a paid
// management period.
func BuildStatus(residents ResidentSource, coverage CoverageSource, ym models.YearMonth) []StatusRow {
	list := residents.List()
	rows := make([]StatusRow, 0, len(list))
	for _, r := range list {
		row := StatusRow{Resident: r, Month: ym}
		if rec, ok := coverage.CoveringRecord(r.ID, ym); ok {
			row.Paid = true
			row.Record = &rec
		}
		rows = append(rows, row)
	}
	return rows
}

// Summary counts paid rows and their collected totals.
type Summary struct {
	Residents int   `json:"residents"`
	Paid      int   `json:"paid"`
	Unpaid    int   `json:"unpaid"`
	Collected int64 `json:"collected"`
}

// Summarize totals rows. A record covering several rows is counted once.
func Summarize(rows []StatusRow) Summary {
	s := Summary{Residents: len(rows)}
	seen := make(map[models.PaymentKey]bool)
	for _, row := range rows {
		if !row.Paid {
			s.Unpaid++
			continue
		}
		s.Paid++
		if k := row.Record.Key(); !seen[k] {
			seen[k] = true
			s.Collected += row.Record.Total
		}
	}
	return s
}

// FormatAmount renders a whole-dollar amount with the currency symbol and
// thousands separators.
func FormatAmount(amount int64) string {
	cur := money.GetCurrency(Currency)
	minor := amount
	for i := 0; i < cur.Fraction; i++ {
		minor *= 10
	}
	return money.New(minor, Currency).Display()
}
