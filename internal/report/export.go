package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

var statusHeader = []string{
	"Resident",
	"Address Number",
	"Floor",
	"Month",
	"Paid",
	"Management Fee",
	"Motorcycle Fee",
	"Car Fee",
	"Total",
	"Paid At",
	"Covered From",
	"Covered To",
}

var statusColumnWidths = []float64{12, 16, 8, 10, 8, 16, 16, 12, 12, 20, 14, 14}

// statusRecord flattens row in statusHeader order. Unpaid rows leave the
// payment columns blank.
func statusRecord(row StatusRow) []any {
	out := []any{
		row.Resident.ID,
		row.Resident.AddressNumber,
		row.Resident.Floor,
		row.Month.String(),
		yesNo(row.Paid),
		"", "", "", "", "", "", "",
	}
	if rec := row.Record; rec != nil {
		out[5] = rec.ManagementFee
		out[6] = rec.MotorcycleFee
		out[7] = rec.CarFee
		out[8] = rec.Total
		out[9] = rec.PaidAt.Local().Format(time.DateTime)
		out[10] = rec.PrevManagementStart
		out[11] = rec.NextManagementStart
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// WriteXLSX writes the status rows as a one-sheet workbook. title names the
// sheet; empty means "Status".
func WriteXLSX(w io.Writer, rows []StatusRow, title string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := title
	if sheet == "" {
		sheet = "Status"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range statusHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, statusColumnWidths[i]); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(statusHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := statusRecord(row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes the status rows with a header line.
func WriteCSV(w io.Writer, rows []StatusRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statusHeader); err != nil {
		return err
	}
	for _, row := range rows {
		values := statusRecord(row)
		line := make([]string, len(values))
		for i, v := range values {
			switch x := v.(type) {
			case string:
				line[i] = x
			case int:
				line[i] = strconv.Itoa(x)
			case int64:
				line[i] = strconv.FormatInt(x, 10)
			default:
				line[i] = fmt.Sprint(x)
			}
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
