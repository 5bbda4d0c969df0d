package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/jiahe-fees/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "jiahe.db"))
	require.NoError(t, err)
	defer s.Close()

	storagetest.Run(t, s, "test_")
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "jiahe.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "jiahe_fee_config", []byte(`{"management":900}`)))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "jiahe_fee_config")
	require.NoError(t, err)
	require.Equal(t, `{"management":900}`, string(got))
}
