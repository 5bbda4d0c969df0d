package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/access"
	"github.com/hongminglow/jiahe-fees/internal/feeconfig"
	"github.com/hongminglow/jiahe-fees/internal/fees"
	"github.com/hongminglow/jiahe-fees/internal/ledger"
	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/residents"
	"github.com/hongminglow/jiahe-fees/internal/storage"
	"github.com/hongminglow/jiahe-fees/internal/storage/memory"
)

var (
	keys    = storage.NewKeys("jiahe_")
	keeper  = &models.User{ID: "user-keeper", Role: models.RoleGatekeeper}
	manager = &models.User{ID: "user-manager", Role: models.RoleManager}
	outside = &models.User{ID: "user-ext", Role: models.RoleExternal, RegisteredAddresses: []string{"13-5"}}
	clock   = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.Local)
)

func newDesk(t *testing.T) (*Desk, *ledger.Ledger, *residents.Directory) {
	t.Helper()
	ctx := context.Background()
	kv := memory.New()
	dir, err := residents.Open(ctx, kv, keys, zap.NewNop())
	require.NoError(t, err)
	l, err := ledger.Open(ctx, kv, keys, dir, zap.NewNop())
	require.NoError(t, err)
	rates, err := feeconfig.Open(ctx, kv, keys, zap.NewNop())
	require.NoError(t, err)
	d := NewDesk(dir, l, rates, 3, zap.NewNop())
	d.now = func() time.Time { return clock }
	return d, l, dir
}

func month(y, m int) fees.Range { return fees.SingleMonth(models.YM(y, m)) }

func sampleForm() Form {
	return Form{
		ResidentID:      "13-5",
		Management:      month(2024, 3),
		Motorcycle:      month(2024, 3),
		MotorcycleUnits: models.ParkingUnits{SmallCount: 1, LargeCount: 1},
		Car:             month(2024, 3),
	}
}

func TestQuoteUsesCurrentRates(t *testing.T) {
	d, _, _ := newDesk(t)
	b := d.Quote(sampleForm())
	assert.Equal(t, int64(800), b.Management)
	assert.Equal(t, int64(300), b.Motorcycle)
	assert.Equal(t, int64(0), b.Car)
	assert.Equal(t, int64(1100), b.Total)
}

func TestConfirmRecordsPaymentAndSnapshot(t *testing.T) {
	d, l, dir := newDesk(t)
	form := sampleForm()
	form.Management = fees.Range{Start: models.YM(2024, 3), End: models.YM(2024, 8)}
	form.CarUnits = models.ParkingUnits{LargeCount: 1}

	got, err := d.Confirm(context.Background(), keeper, form, false)
	require.NoError(t, err)
	assert.False(t, got.Replaced)
	assert.Equal(t, 2024, got.Record.Year)
	assert.Equal(t, 3, got.Record.Month)
	assert.Equal(t, int64(800*6+300+1800), got.Record.Total)
	assert.Equal(t, "2024-03", got.Record.PrevManagementStart)
	assert.Equal(t, "2024-08", got.Record.NextManagementStart)
	assert.Equal(t, clock, got.Record.PaidAt)

	r, err := dir.Get("13-5")
	require.NoError(t, err)
	assert.Equal(t, models.ParkingLarge, r.MotorcycleParking)
	assert.Equal(t, 2, r.MotorcycleCount)
	assert.Equal(t, models.ParkingLarge, r.CarParking)
	require.NotNil(t, r.LastPaymentPeriods)
	assert.Equal(t, models.YM(2024, 8), r.LastPaymentPeriods.Mgmt.Next)

	assert.True(t, l.IsPeriodLocked("13-5", 2024, 3))
	assert.True(t, l.IsPaidForCalendarMonth("13-5", models.YM(2024, 7)))
	assert.False(t, l.IsPaidForCalendarMonth("13-5", models.YM(2024, 9)))
}

func TestConcurrentConfirmsLockOnce(t *testing.T) {
	d, l, _ := newDesk(t)
	ctx := context.Background()

	const n = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ok     int
		locked int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Confirm(ctx, keeper, sampleForm(), false)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, ErrPeriodLocked) {
				locked++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, locked)
	assert.Len(t, l.All(), 1)
}

func TestConfirmLockedPeriod(t *testing.T) {
	d, l, _ := newDesk(t)
	ctx := context.Background()
	_, err := d.Confirm(ctx, keeper, sampleForm(), false)
	require.NoError(t, err)

	again := sampleForm()
	again.MotorcycleUnits = models.ParkingUnits{}
	_, err = d.Confirm(ctx, keeper, again, false)
	require.ErrorIs(t, err, ErrPeriodLocked)

	_, err = d.Confirm(ctx, keeper, again, true)
	require.ErrorIs(t, err, access.ErrForbidden, "gatekeepers cannot override")

	got, err := d.Confirm(ctx, manager, again, true)
	require.NoError(t, err)
	assert.True(t, got.Replaced)
	assert.Equal(t, int64(800), got.Record.Total)

	assert.Len(t, l.All(), 1)
	rec, err := l.Get("13-5", 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(800), rec.Total)
}

func TestConfirmRejections(t *testing.T) {
	d, l, _ := newDesk(t)
	ctx := context.Background()

	_, err := d.Confirm(ctx, outside, sampleForm(), false)
	require.ErrorIs(t, err, access.ErrForbidden)

	form := sampleForm()
	form.ResidentID = "99-1"
	_, err = d.Confirm(ctx, keeper, form, false)
	require.ErrorIs(t, err, storage.ErrNotFound)

	form = sampleForm()
	form.ResidentID = " "
	_, err = d.Confirm(ctx, keeper, form, false)
	require.ErrorIs(t, err, ErrResidentRequired)

	form = sampleForm()
	form.Car = fees.Range{Start: models.YM(2024, 13), End: models.YM(2024, 3)}
	_, err = d.Confirm(ctx, keeper, form, false)
	require.ErrorIs(t, err, ErrInvalidMonth)

	form = sampleForm()
	form.CarUnits.SmallCount = -1
	_, err = d.Confirm(ctx, keeper, form, false)
	require.ErrorIs(t, err, ErrNegativeCount)

	assert.Empty(t, l.All())
}

func TestConfirmReversedRangeBillsNothing(t *testing.T) {
	d, _, _ := newDesk(t)
	form := sampleForm()
	form.Motorcycle = fees.Range{Start: models.YM(2024, 5), End: models.YM(2024, 3)}

	got, err := d.Confirm(context.Background(), keeper, form, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Record.MotorcycleFee)
	assert.Equal(t, int64(800), got.Record.Total)
}

func TestPrefill(t *testing.T) {
	d, _, _ := newDesk(t)

	fresh, err := d.Prefill("15-2")
	require.NoError(t, err)
	assert.Equal(t, month(2024, 3), fresh.Management)
	assert.Equal(t, models.ParkingUnits{}, fresh.CarUnits)

	form := sampleForm()
	form.Management = fees.Range{Start: models.YM(2024, 3), End: models.YM(2024, 12)}
	_, err = d.Confirm(context.Background(), keeper, form, false)
	require.NoError(t, err)

	next, err := d.Prefill("13-5")
	require.NoError(t, err)
	assert.Equal(t, month(2025, 1), next.Management)
	assert.Equal(t, month(2024, 4), next.Motorcycle)
	assert.Equal(t, models.ParkingUnits{SmallCount: 1, LargeCount: 1}, next.MotorcycleUnits)

	_, err = d.Prefill("nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteWindow(t *testing.T) {
	d, l, _ := newDesk(t)
	ctx := context.Background()
	_, err := d.Confirm(ctx, keeper, sampleForm(), false)
	require.NoError(t, err)

	require.ErrorIs(t, d.Delete(ctx, keeper, "13-5", 2024, 3), access.ErrForbidden)

	d.now = func() time.Time { return clock.AddDate(0, 0, 10) }
	require.ErrorIs(t, d.Delete(ctx, manager, "13-5", 2024, 3), ErrOutsideDeleteWindow)
	recent, err := d.Recent(manager)
	require.NoError(t, err)
	assert.Empty(t, recent)

	d.now = func() time.Time { return clock.AddDate(0, 0, 2) }
	recent, err = d.Recent(manager)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	require.NoError(t, d.Delete(ctx, manager, "13-5", 2024, 3))
	assert.Empty(t, l.All())

	require.ErrorIs(t, d.Delete(ctx, manager, "13-5", 2024, 3), storage.ErrNotFound)
}

func TestRecentRequiresManager(t *testing.T) {
	d, _, _ := newDesk(t)
	_, err := d.Recent(keeper)
	require.ErrorIs(t, err, access.ErrForbidden)
}

func TestHistoryRowRule(t *testing.T) {
	d, _, _ := newDesk(t)
	ctx := context.Background()
	_, err := d.Confirm(ctx, keeper, sampleForm(), false)
	require.NoError(t, err)

	own, err := d.History(outside, "13-5")
	require.NoError(t, err)
	assert.Len(t, own, 1)

	_, err = d.History(outside, "15-1")
	require.ErrorIs(t, err, access.ErrForbidden)

	other, err := d.History(keeper, "15-1")
	require.NoError(t, err)
	assert.Empty(t, other)
}
