package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/jiahe-fees/internal/storage/storagetest"
)

// TestStoreIntegration runs the KV contract against a live Redis.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_STORE_INTEGRATION") != "true" {
		t.Skip("set RUN_STORE_INTEGRATION=true to run this integration test")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Fatal("REDIS_ADDR is required")
	}

	store, err := NewStore(context.Background(), Options{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	storagetest.Run(t, store, fmt.Sprintf("it_%d_", time.Now().UnixNano()))
}
