package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/storage"
	"github.com/hongminglow/jiahe-fees/internal/storage/memory"
	"github.com/hongminglow/jiahe-fees/internal/users"
)

var keys = storage.NewKeys("jiahe_")

func newManager(t *testing.T) (*Manager, *users.Directory, storage.KV) {
	t.Helper()
	ctx := context.Background()
	kv := memory.New()
	dir, err := users.Open(ctx, kv, keys, zap.NewNop())
	require.NoError(t, err)
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	_, err = dir.EnsureAdmin(ctx, hash)
	require.NoError(t, err)
	tokens := NewTokenManager("test-secret", "jiahe-test", time.Hour)
	return NewManager(dir, tokens, kv, keys, zap.NewNop()), dir, kv
}

func TestPasswordDigest(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword("hunter22", hash))
	assert.False(t, CheckPassword("hunter23", hash))
}

func TestLoginLogoutLifecycle(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t)

	cur, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)

	sess, token, err := m.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleAdmin, sess.User.Role)
	assert.Empty(t, sess.User.PasswordHash)

	cur, err = m.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, users.AdminID, cur.User.ID)

	require.NoError(t, m.Logout(ctx))
	cur, err = m.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestLoginErrors(t *testing.T) {
	m, _, _ := newManager(t)
	_, _, err := m.Login(context.Background(), "nobody", "x")
	require.ErrorIs(t, err, ErrUnknownUser)
	_, _, err = m.Login(context.Background(), "admin", "wrong")
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestCurrentCorruptIsSignedOut(t *testing.T) {
	ctx := context.Background()
	m, _, kv := newManager(t)
	require.NoError(t, kv.Set(ctx, keys.CurrentUser(), []byte("<html>")))

	cur, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestFromTokenReflectsRoleChanges(t *testing.T) {
	ctx := context.Background()
	m, dir, _ := newManager(t)
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	u, err := dir.Create(ctx, users.NewUser{Username: "gina", PasswordHash: hash, Role: models.RoleExternal})
	require.NoError(t, err)

	_, token, err := m.Login(ctx, "gina", "pw")
	require.NoError(t, err)
	_, err = dir.SetRole(ctx, u.ID, models.RoleGatekeeper)
	require.NoError(t, err)

	sess, err := m.FromToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGatekeeper, sess.User.Role)

	require.NoError(t, dir.Delete(ctx, users.AdminID, u.ID))
	_, err = m.FromToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	issued := NewTokenManager("secret-a", "jiahe", time.Minute)
	token, err := issued.Generate(models.User{ID: "user-x", Role: models.RoleExternal})
	require.NoError(t, err)

	sub, err := issued.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "user-x", sub)

	_, err = NewTokenManager("secret-b", "jiahe", time.Minute).Subject(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	later := NewTokenManager("secret-a", "jiahe", time.Minute)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Subject(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNilSessionHasNoActor(t *testing.T) {
	var s *Session
	assert.Nil(t, s.Actor())
}
