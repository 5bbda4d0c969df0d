// Package residents owns the fixed set of household units and their cached
// parking and billing snapshots.
package residents

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/storage"
)

// AddressNumbers lists every building number, sub-building suffix included.
var AddressNumbers = []string{
	"13", "13-1", "15", "15-1", "17", "17-1",
	"19", "19-1", "21", "21-1", "21-2", "21-3", "23", "23-1", "23-2", "23-3",
}

const (
	MinFloor = 1
	MaxFloor = 10
)

// ErrInvalidID is returned for ids that cannot name a unit.
var ErrInvalidID = errors.New("invalid resident id")

// ValidAddressNumber reports whether n is one of AddressNumbers.
func ValidAddressNumber(n string) bool { return slices.Contains(AddressNumbers, n) }

// BuildID derives the resident id from its parts. suffix may be empty.
func BuildID(primary, suffix string, floor int) string {
	if suffix == "" {
		return fmt.Sprintf("%s-%d", primary, floor)
	}
	return fmt.Sprintf("%s-%s-%d", primary, suffix, floor)
}

// ParseID splits a resident id into address number and floor and checks both
// against the fixed building set.
func ParseID(id string) (addressNumber string, floor int, err error) {
	i := strings.LastIndex(id, "-")
	if i <= 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	addressNumber = id[:i]
	floor, err = strconv.Atoi(id[i+1:])
	if err != nil || floor < MinFloor || floor > MaxFloor || !ValidAddressNumber(addressNumber) {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return addressNumber, floor, nil
}

// Directory is the indexed resident collection, synced to one key.
type Directory struct {
	kv     storage.KV
	key    string
	logger *zap.Logger

	mu    sync.RWMutex
	byID  map[string]models.Resident
	order []string
}

// Open loads residents from kv. When nothing usable is stored the full set of
// address numbers x floors is materialized and persisted.
func Open(ctx context.Context, kv storage.KV, keys storage.Keys, logger *zap.Logger) (*Directory, error) {
	d := &Directory{kv: kv, key: keys.Residents(), logger: logger}

	var stored []models.Resident
	if err := storage.ReadJSON(ctx, kv, d.key, &stored); err != nil {
		if !errors.Is(err, storage.ErrCorrupt) {
			return nil, err
		}
		logger.Warn("resident cache unreadable; rebuilding", zap.Error(err))
		stored = nil
	}

	if len(stored) == 0 {
		stored = Materialize()
		d.load(stored)
		if err := d.Sync(ctx); err != nil {
			return nil, err
		}
		logger.Info("materialized residents", zap.Int("count", len(stored)))
		return d, nil
	}
	d.load(stored)
	return d, nil
}

// Materialize returns one empty resident per address number and floor.
func Materialize() []models.Resident {
	out := make([]models.Resident, 0, len(AddressNumbers)*MaxFloor)
	for _, num := range AddressNumbers {
		for floor := MinFloor; floor <= MaxFloor; floor++ {
			out = append(out, models.Resident{
				ID:                BuildID(num, "", floor),
				AddressNumber:     num,
				Floor:             floor,
				MotorcycleParking: models.ParkingNone,
				CarParking:        models.ParkingNone,
			})
		}
	}
	return out
}

func (d *Directory) load(list []models.Resident) {
	d.byID = make(map[string]models.Resident, len(list))
	d.order = d.order[:0]
	for _, r := range list {
		if _, dup := d.byID[r.ID]; dup {
			d.logger.Warn("duplicate resident id in cache", zap.String("resident_id", r.ID))
			continue
		}
		d.byID[r.ID] = r
		d.order = append(d.order, r.ID)
	}
}

// Get returns the resident with id.
func (d *Directory) Get(id string) (models.Resident, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.byID[id]
	if !ok {
		return models.Resident{}, storage.ErrNotFound
	}
	return r, nil
}

// Exists reports whether id names a resident.
func (d *Directory) Exists(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[id]
	return ok
}

// List returns every resident in materialization order.
func (d *Directory) List() []models.Resident {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Resident, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}

// Stage replaces a resident in memory only and returns a function restoring the
// previous value. Callers persist with Sync once their own write succeeded.
func (d *Directory) Stage(r models.Resident) (restore func(), err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.byID[r.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	d.byID[r.ID] = r
	return func() {
		d.mu.Lock()
		d.byID[r.ID] = prev
		d.mu.Unlock()
	}, nil
}

// Sync writes the whole collection back under its key.
func (d *Directory) Sync(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.syncLocked(ctx)
}

func (d *Directory) syncLocked(ctx context.Context) error {
	list := make([]models.Resident, 0, len(d.order))
	for _, id := range d.order {
		list = append(list, d.byID[id])
	}
	return storage.WriteJSON(ctx, d.kv, d.key, list)
}

// ApplyPayment returns r updated with the parking setup and periods of a
// confirmed payment, ready to pre-fill the next entry.
func ApplyPayment(r models.Resident, parking models.ParkingConfig, periods models.PaymentPeriods) models.Resident {
	r.MotorcycleCount = parking.Moto.Total()
	r.MotorcycleParking = parking.Moto.Tier()
	r.CarCount = parking.Car.Total()
	r.CarParking = parking.Car.Tier()
	r.LastParkingConfig = &parking
	r.LastPaymentPeriods = &periods
	return r
}
