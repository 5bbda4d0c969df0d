package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hongminglow/jiahe-fees/internal/models"
)

type fakeResidents []models.Resident

func (f fakeResidents) List() []models.Resident { return f }

type fakeCoverage map[string]models.PaymentRecord

func (f fakeCoverage) CoveringRecord(id string, ym models.YearMonth) (models.PaymentRecord, bool) {
	rec, ok := f[id]
	if !ok {
		return models.PaymentRecord{}, false
	}
	p, err := rec.ManagementPeriod()
	if err != nil || ym.Before(p.Prev) || ym.After(p.Next) {
		return models.PaymentRecord{}, false
	}
	return rec, true
}

var paidAt = time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)

func fixture() (fakeResidents, fakeCoverage) {
	residents := fakeResidents{
		{ID: "13-1", AddressNumber: "13", Floor: 1},
		{ID: "13-2", AddressNumber: "13", Floor: 2},
		{ID: "15-1", AddressNumber: "15", Floor: 1},
	}
	coverage := fakeCoverage{
		"13-1": {
			ResidentID: "13-1", Year: 2024, Month: 1,
			ManagementFee: 4800, MotorcycleFee: 600, Total: 5400, PaidAt: paidAt,
			PrevManagementStart: "2024-01", NextManagementStart: "2024-06",
			PrevMotorcycleStart: "2024-01", NextMotorcycleStart: "2024-06",
			PrevCarStart: "2024-01", NextCarStart: "2023-12",
		},
		"15-1": {
			ResidentID: "15-1", Year: 2024, Month: 1,
			ManagementFee: 800, Total: 800, PaidAt: paidAt,
			PrevManagementStart: "2024-01", NextManagementStart: "2024-01",
		},
	}
	return residents, coverage
}

func TestBuildStatus(t *testing.T) {
	residents, coverage := fixture()
	rows := BuildStatus(residents, coverage, models.YM(2024, 3))
	require.Len(t, rows, 3)

	assert.True(t, rows[0].Paid)
	require.NotNil(t, rows[0].Record)
	assert.Equal(t, int64(5400), rows[0].Record.Total)
	assert.False(t, rows[1].Paid)
	assert.Nil(t, rows[1].Record)
	assert.False(t, rows[2].Paid, "single-month payment does not cover March")

	s := Summarize(rows)
	assert.Equal(t, Summary{Residents: 3, Paid: 1, Unpaid: 2, Collected: 5400}, s)
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	residents, coverage := fixture()
	rows := BuildStatus(residents, coverage, models.YM(2024, 1))

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rows, "2024-01"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"2024-01"}, f.GetSheetList())
	got, err := f.GetRows("2024-01")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, statusHeader, got[0])
	assert.Equal(t, "13-1", got[1][0])
	assert.Equal(t, "Yes", got[1][4])
	assert.Equal(t, "5400", got[1][8])
	assert.Equal(t, "No", got[2][4])
	assert.Equal(t, "Yes", got[3][4])
}

func TestWriteCSV(t *testing.T) {
	residents, coverage := fixture()
	rows := BuildStatus(residents, coverage, models.YM(2024, 2))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, statusHeader, records[0])
	assert.Equal(t, []string{"13-1", "13", "1", "2024-02", "Yes"}, records[1][:5])
	assert.Equal(t, "5400", records[1][8])
	assert.Equal(t, "2024-06", records[1][11])
	assert.Equal(t, "No", records[3][4])
	assert.Equal(t, "", records[3][8])
}

func TestRenderReceipt(t *testing.T) {
	rec := models.PaymentRecord{
		ResidentID: "13-5", Year: 2024, Month: 3,
		ManagementFee: 800, MotorcycleFee: 300, Total: 1100, PaidAt: paidAt,
		PrevManagementStart: "2024-03", NextManagementStart: "2024-03",
		PrevMotorcycleStart: "2024-03", NextMotorcycleStart: "2024-03",
		PrevCarStart: "2024-03", NextCarStart: "2024-03",
	}
	resident := models.Resident{ID: "13-5", AddressNumber: "13", Floor: 5}

	var buf bytes.Buffer
	require.NoError(t, RenderReceipt(&buf, rec, resident, ""))
	out := buf.String()
	assert.Contains(t, out, committeeName)
	assert.Contains(t, out, "No. 13, floor 5")
	assert.Contains(t, out, "Operator:  system")
	assert.Contains(t, out, "1,100")
	assert.Contains(t, out, "Management fee")

	buf.Reset()
	require.NoError(t, RenderReceipt(&buf, rec, resident, "keeper"))
	assert.Contains(t, buf.String(), "Operator:  keeper")
}

func TestFormatAmount(t *testing.T) {
	assert.Contains(t, FormatAmount(1100), "1,100")
	assert.Contains(t, FormatAmount(0), "0")
}
