// Package users is the account directory: usernames, password digests, roles and
// the resident units granted to each account.
package users

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

	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/storage"
)

// Bootstrap admin identity created when no ADMIN exists.
const (
	AdminID       = "admin-001"
	AdminUsername = "admin"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrInvalidRole      = errors.New("invalid role")
	ErrSelfDelete       = errors.New("cannot delete your own account")
	ErrSelfRoleChange   = errors.New("cannot change your own role")
)

// NewUser is the input for Create. PasswordHash is an opaque digest.
type NewUser struct {
	Username     string
	PasswordHash string
	Role         models.Role
}

// Directory is the indexed user collection, synced to one key.
type Directory struct {
	kv     storage.KV
	key    string
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	byID  map[string]models.User
	order []string
}

// Open loads stored users. A corrupt collection is logged and treated as empty.
func Open(ctx context.Context, kv storage.KV, keys storage.Keys, logger *zap.Logger) (*Directory, error) {
	d := &Directory{
		kv:     kv,
		key:    keys.Users(),
		logger: logger,
		now:    time.Now,
		byID:   make(map[string]models.User),
	}
	var stored []models.User
	if err := storage.ReadJSON(ctx, kv, d.key, &stored); err != nil {
		if !errors.Is(err, storage.ErrCorrupt) {
			return nil, err
		}
		logger.Warn("user collection unreadable; starting empty", zap.Error(err))
		stored = nil
	}
	for _, u := range stored {
		if _, dup := d.byID[u.ID]; !dup {
			d.order = append(d.order, u.ID)
		}
		d.byID[u.ID] = u
	}
	return d, nil
}

// Create adds an account. Usernames are unique; a clash returns
// storage.ErrAlreadyExists.
func (d *Directory) Create(ctx context.Context, in NewUser) (models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return models.User{}, ErrUsernameRequired
	}
	if !in.Role.Valid() {
		return models.User{}, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.findByUsernameLocked(username); ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	u := models.User{
		ID:                  fmt.Sprintf("user-%s-%s", strings.ToLower(username), uuid.NewString()[:8]),
		Username:            username,
		PasswordHash:        in.PasswordHash,
		Role:                in.Role,
		RegisteredAddresses: []string{},
		CreatedAt:           d.now().UTC(),
	}
	if err := d.insertLocked(ctx, u); err != nil {
		return models.User{}, err
	}
	d.logger.Info("user created", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// EnsureAdmin creates the bootstrap ADMIN account if no ADMIN exists yet.
func (d *Directory) EnsureAdmin(ctx context.Context, passwordHash string) (created bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.byID {
		if u.Role == models.RoleAdmin {
			return false, nil
		}
	}
	admin := models.User{
		ID:                  AdminID,
		Username:            AdminUsername,
		PasswordHash:        passwordHash,
		Role:                models.RoleAdmin,
		RegisteredAddresses: []string{},
		CreatedAt:           d.now().UTC(),
	}
	if err := d.insertLocked(ctx, admin); err != nil {
		return false, err
	}
	d.logger.Info("bootstrap admin created", zap.String("username", AdminUsername))
	return true, nil
}

func (d *Directory) insertLocked(ctx context.Context, u models.User) error {
	_, existed := d.byID[u.ID]
	d.byID[u.ID] = u
	if !existed {
		d.order = append(d.order, u.ID)
	}
	if err := d.syncLocked(ctx); err != nil {
		if existed {
			return err
		}
		delete(d.byID, u.ID)
		d.order = d.order[:len(d.order)-1]
		return err
	}
	return nil
}

// Get returns the user with id.
func (d *Directory) Get(id string) (models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

// FindByUsername looks a user up by exact username.
func (d *Directory) FindByUsername(username string) (models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.findByUsernameLocked(strings.TrimSpace(username))
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (d *Directory) findByUsernameLocked(username string) (models.User, bool) {
	for _, u := range d.byID {
		if u.Username == username {
			return u, true
		}
	}
	return models.User{}, false
}

// List returns every user, oldest first.
func (d *Directory) List() []models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.User, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Delete removes account id. Actors cannot delete themselves.
func (d *Directory) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfDelete
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	prevOrder := append([]string(nil), d.order...)
	delete(d.byID, id)
	for i, have := range d.order {
		if have == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	if err := d.syncLocked(ctx); err != nil {
		d.byID[id] = prev
		d.order = prevOrder
		return err
	}
	d.logger.Info("user deleted", zap.String("user_id", id), zap.String("by", actorID))
	return nil
}

// UpdateRole changes another account's role.
func (d *Directory) UpdateRole(ctx context.Context, actorID, id string, role models.Role) (models.User, error) {
	if actorID == id {
		return models.User{}, ErrSelfRoleChange
	}
	return d.SetRole(ctx, id, role)
}

// SetRole changes the role of id without actor checks. Used for staff promotion.
func (d *Directory) SetRole(ctx context.Context, id string, role models.Role) (models.User, error) {
	if !role.Valid() {
		return models.User{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return d.mutate(ctx, id, func(u *models.User) bool {
		if u.Role == role {
			return false
		}
		u.Role = role
		return true
	})
}

// AddAddress grants residentID to user id. Granting twice keeps one entry.
func (d *Directory) AddAddress(ctx context.Context, id, residentID string) (models.User, error) {
	return d.mutate(ctx, id, func(u *models.User) bool {
		if u.HasAddress(residentID) {
			return false
		}
		u.RegisteredAddresses = append(append([]string(nil), u.RegisteredAddresses...), residentID)
		return true
	})
}

// mutate applies fn to a copy of user id and persists it when fn reports a change.
func (d *Directory) mutate(ctx context.Context, id string, fn func(*models.User) bool) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.byID[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	u := prev
	if !fn(&u) {
		return u, nil
	}
	d.byID[id] = u
	if err := d.syncLocked(ctx); err != nil {
		d.byID[id] = prev
		return models.User{}, err
	}
	return u, nil
}

func (d *Directory) syncLocked(ctx context.Context) error {
	list := make([]models.User, 0, len(d.order))
	for _, id := range d.order {
		list = append(list, d.byID[id])
	}
	return storage.WriteJSON(ctx, d.kv, d.key, list)
}
