package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hongminglow/jiahe-fees/internal/models"
)

const (
	committeeName   = "Jiahe Community Management Committee"
	defaultOperator = "system"
)

// RenderReceipt writes a printable plain-text receipt for rec.
func RenderReceipt(w io.Writer, rec models.PaymentRecord, resident models.Resident, operator string) error {
	if strings.TrimSpace(operator) == "" {
		operator = defaultOperator
	}
	rule := strings.Repeat("=", 64)

	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%s\n", committeeName)
	fmt.Fprintln(&b, "OFFICIAL RECEIPT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Resident:  No. %s, floor %d (%s)\n", resident.AddressNumber, resident.Floor, resident.ID)
	fmt.Fprintf(&b, "Operator:  %s\n", operator)
	fmt.Fprintf(&b, "Date:      %s\n", rec.PaidAt.Local().Format(time.DateOnly))
	fmt.Fprintf(&b, "Period:    %04d-%02d\n\n", rec.Year, rec.Month)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	lines := []struct {
		label      string
		start, end string
		amount     int64
	}{
		{"Management fee", rec.PrevManagementStart, rec.NextManagementStart, rec.ManagementFee},
		{"Motorcycle parking", rec.PrevMotorcycleStart, rec.NextMotorcycleStart, rec.MotorcycleFee},
		{"Car parking", rec.PrevCarStart, rec.NextCarStart, rec.CarFee},
	}
	fmt.Fprintln(tw, "Item\tFrom\tTo\tAmount\t")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", l.label, l.start, l.end, FormatAmount(l.amount))
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%s\t\n", FormatAmount(rec.Total))
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nTotal includes every prepaid month listed above.\n\n%40s\n%40s\n%s\n",
		"____________________", "Operator signature", rule)
	return err
}
