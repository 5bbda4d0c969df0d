package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/storage"
	"github.com/hongminglow/jiahe-fees/internal/users"
)

var (
	ErrUnknownUser     = errors.New("user does not exist")
	ErrInvalidPassword = errors.New("wrong password")
)

// Session is the signed-in user, passed explicitly to every access check.
type Session struct {
	User      models.User `json:"user"`
	StartedAt time.Time   `json:"startedAt"`
}

// Actor returns the session user, or nil for a missing session.
func (s *Session) Actor() *models.User {
	if s == nil {
		return nil
	}
	return &s.User
}

// Manager runs the login/logout lifecycle.
type Manager struct {
	users  *users.Directory
	tokens *TokenManager
	kv     storage.KV
	key    string
	logger *zap.Logger
	now    func() time.Time
}

// NewManager wires the session lifecycle to the user directory.
func NewManager(dir *users.Directory, tokens *TokenManager, kv storage.KV, keys storage.Keys, logger *zap.Logger) *Manager {
	return &Manager{
		users:  dir,
		tokens: tokens,
		kv:     kv,
		key:    keys.CurrentUser(),
		logger: logger,
		now:    time.Now,
	}
}

// Login verifies the credentials, records the current-user snapshot and issues a token.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, string, error) {
	user, err := m.users.FindByUsername(username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", ErrUnknownUser
		}
		return nil, "", err
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidPassword
	}

	token, err := m.tokens.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	sess := &Session{User: user.Public(), StartedAt: m.now().UTC()}
	if err := storage.WriteJSON(ctx, m.kv, m.key, sess); err != nil {
		return nil, "", err
	}
	m.logger.Info("login", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return sess, token, nil
}

// Logout clears the current-user snapshot.
func (m *Manager) Logout(ctx context.Context) error {
	return m.kv.Remove(ctx, m.key)
}

// Current returns the persisted session, or nil when nobody is signed in or the
// snapshot cannot be decoded.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	var sess *Session
	if err := storage.ReadJSON(ctx, m.kv, m.key, &sess); err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			m.logger.Warn("current session unreadable; treating as signed out", zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// FromToken resolves a bearer token into a session built from the user's current
// record, so role changes apply immediately.
func (m *Manager) FromToken(tokenStr string) (*Session, error) {
	sub, err := m.tokens.Subject(tokenStr)
	if err != nil {
		return nil, err
	}
	user, err := m.users.Get(sub)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s no longer exists", ErrInvalidToken, sub)
		}
		return nil, err
	}
	return &Session{User: user.Public(), StartedAt: m.now().UTC()}, nil
}
