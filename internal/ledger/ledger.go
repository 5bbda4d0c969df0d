// Package ledger stores payment records under their natural key
// (resident, year, month). A submission for an existing key replaces the stored
// record; it never appends a second one.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/residents"
	"github.com/hongminglow/jiahe-fees/internal/storage"
)

// ErrPeriodLocked is returned by SubmitIfUnlocked when the natural key is taken.
var ErrPeriodLocked = errors.New("this period is already paid; an override is required")

// Ledger is the indexed payment collection, synced to one key after each mutation.
type Ledger struct {
	kv        storage.KV
	key       string
	residents *residents.Directory
	logger    *zap.Logger

	mu    sync.RWMutex
	byKey map[models.PaymentKey]models.PaymentRecord
	order []models.PaymentKey
}

// Open loads the stored payments. A corrupt collection is logged and treated as empty.
func Open(ctx context.Context, kv storage.KV, keys storage.Keys, dir *residents.Directory, logger *zap.Logger) (*Ledger, error) {
	l := &Ledger{
		kv:        kv,
		key:       keys.Payments(),
		residents: dir,
		logger:    logger,
		byKey:     make(map[models.PaymentKey]models.PaymentRecord),
	}

	var stored []models.PaymentRecord
	if err := storage.ReadJSON(ctx, kv, l.key, &stored); err != nil {
		if !errors.Is(err, storage.ErrCorrupt) {
			return nil, err
		}
		logger.Warn("payment records unreadable; starting empty", zap.Error(err))
		stored = nil
	}
	for _, rec := range stored {
		// older duplicates lose to later entries, matching the override rule
		l.put(rec)
	}
	return l, nil
}

// put upserts rec in memory and reports whether a record was replaced.
func (l *Ledger) put(rec models.PaymentRecord) bool {
	k := rec.Key()
	_, exists := l.byKey[k]
	l.byKey[k] = rec
	if !exists {
		l.order = append(l.order, k)
	}
	return exists
}

func (l *Ledger) remove(k models.PaymentKey) {
	delete(l.byKey, k)
	for i, have := range l.order {
		if have == k {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}

// Submit upserts rec and, when update is non-nil, the resident snapshot in the
// same logical step. If either write fails both are rolled back in memory and the
// error is returned so the caller can retry. Unknown residents abort with
// storage.ErrNotFound.
func (l *Ledger) Submit(ctx context.Context, rec models.PaymentRecord, update *models.Resident) (replaced bool, err error) {
	return l.submit(ctx, rec, update, true)
}

// SubmitIfUnlocked is Submit for a period that must not be paid yet. The lock
// check and the write happen under one lock; a taken key returns ErrPeriodLocked.
func (l *Ledger) SubmitIfUnlocked(ctx context.Context, rec models.PaymentRecord, update *models.Resident) error {
	_, err := l.submit(ctx, rec, update, false)
	return err
}

func (l *Ledger) submit(ctx context.Context, rec models.PaymentRecord, update *models.Resident, allowReplace bool) (replaced bool, err error) {
	if !l.residents.Exists(rec.ResidentID) {
		return false, fmt.Errorf("resident %s: %w", rec.ResidentID, storage.ErrNotFound)
	}
	if update != nil && update.ID != rec.ResidentID {
		return false, fmt.Errorf("resident update %s does not match record %s", update.ID, rec.ResidentID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	k := rec.Key()
	prev, hadPrev := l.byKey[k]
	if hadPrev && !allowReplace {
		return false, ErrPeriodLocked
	}
	prevOrder := append([]models.PaymentKey(nil), l.order...)
	rollback := func() {
		if hadPrev {
			l.byKey[k] = prev
		} else {
			delete(l.byKey, k)
		}
		l.order = prevOrder
	}

	replaced = l.put(rec)

	var restoreResident func()
	if update != nil {
		restoreResident, err = l.residents.Stage(*update)
		if err != nil {
			rollback()
			return false, err
		}
	}

	if err := l.syncLocked(ctx); err != nil {
		rollback()
		if restoreResident != nil {
			restoreResident()
		}
		return false, err
	}
	if update != nil {
		if err := l.residents.Sync(ctx); err != nil {
			rollback()
			restoreResident()
			if rerr := l.syncLocked(ctx); rerr != nil {
				l.logger.Error("restore payments after failed resident write", zap.Error(rerr))
			}
			return false, err
		}
	}

	l.logger.Info("payment recorded",
		zap.String("key", k.String()),
		zap.Bool("override", replaced),
		zap.Int64("total", rec.Total))
	return replaced, nil
}

// Get returns the record stored under the natural key.
func (l *Ledger) Get(residentID string, year, month int) (models.PaymentRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.byKey[models.PaymentKey{ResidentID: residentID, Year: year, Month: month}]
	if !ok {
		return models.PaymentRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

// IsPeriodLocked reports whether a record exists for the natural key.
func (l *Ledger) IsPeriodLocked(residentID string, year, month int) bool {
	_, err := l.Get(residentID, year, month)
	return err == nil
}

// IsPaidForCalendarMonth reports whether some record's management period covers ym.
// Unlike IsPeriodLocked, one record may answer for many months of prepayment.
func (l *Ledger) IsPaidForCalendarMonth(residentID string, ym models.YearMonth) bool {
	_, ok := l.CoveringRecord(residentID, ym)
	return ok
}

// CoveringRecord returns the latest-paid record whose management period covers ym.
func (l *Ledger) CoveringRecord(residentID string, ym models.YearMonth) (models.PaymentRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var (
		found models.PaymentRecord
		ok    bool
	)
	target := ym.Index()
	for _, k := range l.order {
		if k.ResidentID != residentID {
			continue
		}
		rec := l.byKey[k]
		period, err := rec.ManagementPeriod()
		if err != nil {
			l.logger.Warn("skip record with malformed period", zap.String("key", k.String()), zap.Error(err))
			continue
		}
		if period.Prev.Index() <= target && target <= period.Next.Index() {
			if !ok || rec.PaidAt.After(found.PaidAt) {
				found, ok = rec, true
			}
		}
	}
	return found, ok
}

// Delete removes the record under the natural key. Missing records are a no-op
// reported as deleted=false.
func (l *Ledger) Delete(ctx context.Context, residentID string, year, month int) (deleted bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := models.PaymentKey{ResidentID: residentID, Year: year, Month: month}
	prev, ok := l.byKey[k]
	if !ok {
		return false, nil
	}
	prevOrder := append([]models.PaymentKey(nil), l.order...)
	l.remove(k)
	if err := l.syncLocked(ctx); err != nil {
		l.byKey[k] = prev
		l.order = prevOrder
		return false, err
	}
	l.logger.Info("payment deleted", zap.String("key", k.String()))
	return true, nil
}

// All returns every record in submission order.
func (l *Ledger) All() []models.PaymentRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.PaymentRecord, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, l.byKey[k])
	}
	return out
}

// ForResident returns the resident's records, newest payment first.
func (l *Ledger) ForResident(residentID string) []models.PaymentRecord {
	var out []models.PaymentRecord
	for _, rec := range l.All() {
		if rec.ResidentID == residentID {
			out = append(out, rec)
		}
	}
	newestFirst(out)
	return out
}

// Recent returns records paid on or after local midnight `days` days before now,
// newest first.
func (l *Ledger) Recent(now time.Time, days int) []models.PaymentRecord {
	cutoff := WindowStart(now, days)
	var out []models.PaymentRecord
	for _, rec := range l.All() {
		if !rec.PaidAt.Before(cutoff) {
			out = append(out, rec)
		}
	}
	newestFirst(out)
	return out
}

// WindowStart is local midnight of the day `days` days before now.
func WindowStart(now time.Time, days int) time.Time {
	d := now.AddDate(0, 0, -days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
}

func newestFirst(recs []models.PaymentRecord) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].PaidAt.After(recs[j].PaidAt) })
}

func (l *Ledger) syncLocked(ctx context.Context) error {
	list := make([]models.PaymentRecord, 0, len(l.order))
	for _, k := range l.order {
		list = append(list, l.byKey[k])
	}
	return storage.WriteJSON(ctx, l.kv, l.key, list)
}
