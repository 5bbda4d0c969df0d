// Package billing is the payment desk: it quotes a fee form, confirms it into the
// ledger together with the resident's parking snapshot, and removes recent
// mistakes.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/access"
	"github.com/hongminglow/jiahe-fees/internal/feeconfig"
	"github.com/hongminglow/jiahe-fees/internal/fees"
	"github.com/hongminglow/jiahe-fees/internal/ledger"
	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/residents"
	"github.com/hongminglow/jiahe-fees/internal/storage"
)

var (
	ErrResidentRequired    = errors.New("select a resident")
	ErrInvalidMonth        = errors.New("invalid year or month")
	ErrNegativeCount       = errors.New("parking counts cannot be negative")
	ErrPeriodLocked        = ledger.ErrPeriodLocked
	ErrOutsideDeleteWindow = errors.New("payment is too old to delete")
)

// Form is the payment entry form. The management start month doubles as the
// record's natural key.
type Form struct {
	ResidentID      string              `json:"residentId"`
	Management      fees.Range          `json:"management"`
	Motorcycle      fees.Range          `json:"motorcycle"`
	MotorcycleUnits models.ParkingUnits `json:"motorcycleUnits"`
	Car             fees.Range          `json:"car"`
	CarUnits        models.ParkingUnits `json:"carUnits"`
}

// Input converts the form to calculator input.
func (f Form) Input() fees.Input {
	return fees.Input{
		Management:      f.Management,
		Motorcycle:      f.Motorcycle,
		MotorcycleUnits: f.MotorcycleUnits,
		Car:             f.Car,
		CarUnits:        f.CarUnits,
	}
}

// Validate checks the form for values the calculator cannot bill. Reversed
// ranges are accepted and bill nothing.
func (f Form) Validate() error {
	if strings.TrimSpace(f.ResidentID) == "" {
		return ErrResidentRequired
	}
	for _, r := range []fees.Range{f.Management, f.Motorcycle, f.Car} {
		if !r.Start.Valid() || !r.End.Valid() {
			return fmt.Errorf("%w: %s..%s", ErrInvalidMonth, r.Start, r.End)
		}
	}
	if f.MotorcycleUnits.SmallCount < 0 || f.MotorcycleUnits.LargeCount < 0 ||
		f.CarUnits.SmallCount < 0 || f.CarUnits.LargeCount < 0 {
		return ErrNegativeCount
	}
	return nil
}

// Confirmation is the outcome of Confirm.
type Confirmation struct {
	Record    models.PaymentRecord `json:"record"`
	Resident  models.Resident      `json:"resident"`
	Breakdown fees.Breakdown       `json:"breakdown"`
	Replaced  bool                 `json:"replaced"`
}

// Desk ties the calculator, the rate table, the resident directory and the
// ledger together.
type Desk struct {
	residents  *residents.Directory
	ledger     *ledger.Ledger
	rates      *feeconfig.Store
	windowDays int
	logger     *zap.Logger
	now        func() time.Time
}

// NewDesk builds a Desk. windowDays bounds how far back a payment may be deleted.
func NewDesk(dir *residents.Directory, l *ledger.Ledger, rates *feeconfig.Store, windowDays int, logger *zap.Logger) *Desk {
	return &Desk{
		residents:  dir,
		ledger:     l,
		rates:      rates,
		windowDays: windowDays,
		logger:     logger,
		now:        time.Now,
	}
}

// Quote prices the form against the current rate table. Nothing is stored.
func (d *Desk) Quote(form Form) fees.Breakdown {
	return fees.Calculate(form.Input(), d.rates.Get())
}

// Prefill returns the starting form for residentID. A resident with a previous
// payment continues from the month after each category's last billed month with
// the same parking setup; otherwise every range is the current month.
func (d *Desk) Prefill(residentID string) (Form, error) {
	r, err := d.residents.Get(residentID)
	if err != nil {
		return Form{}, err
	}
	current := fees.SingleMonth(models.MonthOf(d.now()))
	form := Form{
		ResidentID: r.ID,
		Management: current,
		Motorcycle: current,
		Car:        current,
	}
	if p := r.LastPaymentPeriods; p != nil {
		form.Management = fees.SingleMonth(p.Mgmt.Next.AddMonths(1))
		form.Motorcycle = fees.SingleMonth(p.Moto.Next.AddMonths(1))
		form.Car = fees.SingleMonth(p.Car.Next.AddMonths(1))
	}
	if c := r.LastParkingConfig; c != nil {
		form.MotorcycleUnits = c.Moto
		form.CarUnits = c.Car
	}
	return form, nil
}

// Confirm records the form as a payment. A period that is already paid is
// locked: it is only replaced when override is set and the actor may override.
func (d *Desk) Confirm(ctx context.Context, actor *models.User, form Form, override bool) (Confirmation, error) {
	if err := access.Require(actor, access.ActionRecordPayment); err != nil {
		return Confirmation{}, err
	}
	if err := form.Validate(); err != nil {
		return Confirmation{}, err
	}
	resident, err := d.residents.Get(form.ResidentID)
	if err != nil {
		return Confirmation{}, fmt.Errorf("resident %s: %w", form.ResidentID, err)
	}

	key := form.Management.Start
	if d.ledger.IsPeriodLocked(resident.ID, key.Year, key.Month) {
		if !override {
			return Confirmation{}, ErrPeriodLocked
		}
		if err := access.Require(actor, access.ActionOverridePayment); err != nil {
			return Confirmation{}, err
		}
	}

	breakdown := fees.Calculate(form.Input(), d.rates.Get())
	rec := models.PaymentRecord{
		ResidentID:    resident.ID,
		Year:          key.Year,
		Month:         key.Month,
		ManagementFee: breakdown.Management,
		MotorcycleFee: breakdown.Motorcycle,
		CarFee:        breakdown.Car,
		Total:         breakdown.Total,
		PaidAt:        d.now(),

		PrevManagementStart: form.Management.Start.String(),
		PrevMotorcycleStart: form.Motorcycle.Start.String(),
		PrevCarStart:        form.Car.Start.String(),
		NextManagementStart: form.Management.End.String(),
		NextMotorcycleStart: form.Motorcycle.End.String(),
		NextCarStart:        form.Car.End.String(),
	}
	updated := residents.ApplyPayment(resident,
		models.ParkingConfig{Moto: form.MotorcycleUnits, Car: form.CarUnits},
		models.PaymentPeriods{
			Mgmt: models.Period{Prev: form.Management.Start, Next: form.Management.End},
			Moto: models.Period{Prev: form.Motorcycle.Start, Next: form.Motorcycle.End},
			Car:  models.Period{Prev: form.Car.Start, Next: form.Car.End},
		})

	var replaced bool
	if override && access.Authorize(actor, access.ActionOverridePayment) {
		replaced, err = d.ledger.Submit(ctx, rec, &updated)
	} else {
		err = d.ledger.SubmitIfUnlocked(ctx, rec, &updated)
	}
	if err != nil {
		return Confirmation{}, err
	}
	d.logger.Info("payment confirmed",
		zap.String("resident_id", rec.ResidentID),
		zap.String("period", key.String()),
		zap.String("by", actor.ID),
		zap.Bool("replaced", replaced))
	return Confirmation{Record: rec, Resident: updated, Breakdown: breakdown, Replaced: replaced}, nil
}

// Recent lists payments inside the deletion window, newest first.
func (d *Desk) Recent(actor *models.User) ([]models.PaymentRecord, error) {
	if err := access.Require(actor, access.ActionViewRecentPayments); err != nil {
		return nil, err
	}
	return d.ledger.Recent(d.now(), d.windowDays), nil
}

// Delete removes a payment paid within the deletion window.
func (d *Desk) Delete(ctx context.Context, actor *models.User, residentID string, year, month int) error {
	if err := access.Require(actor, access.ActionDeletePayment); err != nil {
		return err
	}
	rec, err := d.ledger.Get(residentID, year, month)
	if err != nil {
		return err
	}
	if rec.PaidAt.Before(ledger.WindowStart(d.now(), d.windowDays)) {
		return ErrOutsideDeleteWindow
	}
	deleted, err := d.ledger.Delete(ctx, residentID, year, month)
	if err != nil {
		return err
	}
	if !deleted {
		return storage.ErrNotFound
	}
	d.logger.Info("payment removed", zap.String("key", rec.Key().String()), zap.String("by", actor.ID))
	return nil
}

// History returns the payments of residentID visible to actor, newest first.
func (d *Desk) History(actor *models.User, residentID string) ([]models.PaymentRecord, error) {
	if err := access.RequireResident(actor, access.ActionViewResident, residentID); err != nil {
		return nil, err
	}
	if !d.residents.Exists(residentID) {
		return nil, fmt.Errorf("resident %s: %w", residentID, storage.ErrNotFound)
	}
	return d.ledger.ForResident(residentID), nil
}
