// Package registration runs the claim workflow through which a resident account
// asks to be linked to a unit, or asks to join the gatekeeper staff.
//
// A claim starts pending and moves exactly once, to approved or rejected.
package registration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/access"
	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/residents"
	"github.com/hongminglow/jiahe-fees/internal/storage"
	"github.com/hongminglow/jiahe-fees/internal/users"
)

var (
	ErrIncompleteAddress = errors.New("choose both an address number and a floor")
	ErrInvalidAddress    = errors.New("no such address number or floor")
	ErrDuplicateClaim    = errors.New("this address was already submitted")
	ErrNotPending        = errors.New("registration has already been decided")
)

// ClaimInput is what a user picks on the claim form.
type ClaimInput struct {
	AddressNumber string
	Floor         int
	Staff         bool
}

// ResidentID validates the input and returns the claimed resident id, or the
// staff sentinel.
func (in ClaimInput) ResidentID() (string, error) {
	if in.Staff {
		return models.StaffClaim, nil
	}
	num := strings.TrimSpace(in.AddressNumber)
	if num == "" || in.Floor == 0 {
		return "", ErrIncompleteAddress
	}
	if !residents.ValidAddressNumber(num) || in.Floor < residents.MinFloor || in.Floor > residents.MaxFloor {
		return "", fmt.Errorf("%w: %s floor %d", ErrInvalidAddress, num, in.Floor)
	}
	return residents.BuildID(num, "", in.Floor), nil
}

// Workflow stores registrations and applies approval side effects to users.
type Workflow struct {
	kv     storage.KV
	key    string
	users  *users.Directory
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	byID  map[string]models.AddressRegistration
	order []string
}

// Open loads stored registrations. A corrupt collection is logged and treated as empty.
func Open(ctx context.Context, kv storage.KV, keys storage.Keys, dir *users.Directory, logger *zap.Logger) (*Workflow, error) {
	w := &Workflow{
		kv:     kv,
		key:    keys.Registrations(),
		users:  dir,
		logger: logger,
		now:    time.Now,
		byID:   make(map[string]models.AddressRegistration),
	}
	var stored []models.AddressRegistration
	if err := storage.ReadJSON(ctx, kv, w.key, &stored); err != nil {
		if !errors.Is(err, storage.ErrCorrupt) {
			return nil, err
		}
		logger.Warn("registrations unreadable; starting empty", zap.Error(err))
		stored = nil
	}
	for _, reg := range stored {
		if _, dup := w.byID[reg.ID]; !dup {
			w.order = append(w.order, reg.ID)
		}
		w.byID[reg.ID] = reg
	}
	return w, nil
}

// Submit files a pending claim for actor. The same user may not claim the same
// resident id twice, whatever the state of the earlier claim.
func (w *Workflow) Submit(ctx context.Context, actor *models.User, in ClaimInput) (models.AddressRegistration, error) {
	if err := access.Require(actor, access.ActionSubmitRegistration); err != nil {
		return models.AddressRegistration{}, err
	}
	residentID, err := in.ResidentID()
	if err != nil {
		return models.AddressRegistration{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range w.order {
		reg := w.byID[id]
		if reg.UserID == actor.ID && reg.ResidentID == residentID {
			return models.AddressRegistration{}, ErrDuplicateClaim
		}
	}

	reg := models.AddressRegistration{
		ID:          "reg-" + uuid.NewString(),
		UserID:      actor.ID,
		ResidentID:  residentID,
		Status:      models.StatusPending,
		RequestedAt: w.now().UTC(),
	}
	w.byID[reg.ID] = reg
	w.order = append(w.order, reg.ID)
	if err := w.syncLocked(ctx); err != nil {
		delete(w.byID, reg.ID)
		w.order = w.order[:len(w.order)-1]
		return models.AddressRegistration{}, err
	}
	w.logger.Info("registration submitted",
		zap.String("registration_id", reg.ID),
		zap.String("user_id", actor.ID),
		zap.String("resident_id", residentID))
	return reg, nil
}

// Approve accepts a pending claim. A unit claim grants the resident id to the
// claimant; a staff claim promotes the claimant to the gatekeeper role. The grant
// is written before the decision, so a failed grant leaves the claim pending.
func (w *Workflow) Approve(ctx context.Context, actor *models.User, id string) (models.AddressRegistration, error) {
	return w.decide(ctx, actor, id, models.StatusApproved, w.grant)
}

// Reject declines a pending claim. Nothing else changes.
func (w *Workflow) Reject(ctx context.Context, actor *models.User, id string) (models.AddressRegistration, error) {
	return w.decide(ctx, actor, id, models.StatusRejected, nil)
}

// grant applies the claimant side effect of an approval. AddAddress and SetRole
// are idempotent, so a retry after a failed decision write is harmless.
func (w *Workflow) grant(ctx context.Context, reg models.AddressRegistration) error {
	var err error
	if reg.IsStaffClaim() {
		_, err = w.users.SetRole(ctx, reg.UserID, models.RoleGatekeeper)
	} else {
		_, err = w.users.AddAddress(ctx, reg.UserID, reg.ResidentID)
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		w.logger.Warn("approved claim for missing user", zap.String("registration_id", reg.ID), zap.String("user_id", reg.UserID))
	case err != nil:
		return fmt.Errorf("apply approval of %s: %w", reg.ID, err)
	}
	return nil
}

func (w *Workflow) decide(ctx context.Context, actor *models.User, id string, status models.ApprovalStatus, apply func(context.Context, models.AddressRegistration) error) (models.AddressRegistration, error) {
	if err := access.Require(actor, access.ActionReviewRegistrations); err != nil {
		return models.AddressRegistration{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	prev, ok := w.byID[id]
	if !ok {
		return models.AddressRegistration{}, storage.ErrNotFound
	}
	if prev.Status != models.StatusPending {
		return models.AddressRegistration{}, ErrNotPending
	}
	if prev.IsStaffClaim() && status == models.StatusApproved {
		if err := access.Require(actor, access.ActionApproveStaffClaim); err != nil {
			return models.AddressRegistration{}, err
		}
	}

	if apply != nil {
		if err := apply(ctx, prev); err != nil {
			return models.AddressRegistration{}, err
		}
	}

	at := w.now().UTC()
	reg := prev
	reg.Status = status
	reg.ApprovedBy = actor.ID
	reg.ApprovedAt = &at
	w.byID[id] = reg
	if err := w.syncLocked(ctx); err != nil {
		w.byID[id] = prev
		return models.AddressRegistration{}, err
	}
	w.logger.Info("registration decided",
		zap.String("registration_id", id),
		zap.String("status", string(status)),
		zap.String("by", actor.ID))
	return reg, nil
}

// Get returns one registration.
func (w *Workflow) Get(id string) (models.AddressRegistration, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	reg, ok := w.byID[id]
	if !ok {
		return models.AddressRegistration{}, storage.ErrNotFound
	}
	return reg, nil
}

// All returns every registration, newest request first.
func (w *Workflow) All() []models.AddressRegistration {
	return w.filter(func(models.AddressRegistration) bool { return true })
}

// Pending returns the review queue, newest request first.
func (w *Workflow) Pending() []models.AddressRegistration {
	return w.filter(func(r models.AddressRegistration) bool { return r.Status == models.StatusPending })
}

// ForUser returns userID's own submissions, newest request first.
func (w *Workflow) ForUser(userID string) []models.AddressRegistration {
	return w.filter(func(r models.AddressRegistration) bool { return r.UserID == userID })
}

func (w *Workflow) filter(keep func(models.AddressRegistration) bool) []models.AddressRegistration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []models.AddressRegistration
	for _, id := range w.order {
		if reg := w.byID[id]; keep(reg) {
			out = append(out, reg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out
}

func (w *Workflow) syncLocked(ctx context.Context) error {
	list := make([]models.AddressRegistration, 0, len(w.order))
	for _, id := range w.order {
		list = append(list, w.byID[id])
	}
	return storage.WriteJSON(ctx, w.kv, w.key, list)
}
