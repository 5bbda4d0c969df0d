package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrCorrupt indicates a persisted value could not be decoded.
var ErrCorrupt = errors.New("stored value is corrupt")

// KV is the synchronous key-value persistence the whole application state lives in.
// Every collection is one JSON document under one fixed key.
type KV interface {
	// Get returns ErrNotFound when key has never been set or was removed.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key; removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Keys names the fixed collections under a common prefix.
type Keys struct {
	prefix string
}

// NewKeys returns the key set for prefix, e.g. "jiahe_".
func NewKeys(prefix string) Keys { return Keys{prefix: prefix} }

func (k Keys) Users() string         { return k.prefix + "users" }
func (k Keys) Registrations() string { return k.prefix + "registrations" }
func (k Keys) Payments() string      { return k.prefix + "payments" }
func (k Keys) Residents() string     { return k.prefix + "residents" }
func (k Keys) FeeConfig() string     { return k.prefix + "fee_config" }
func (k Keys) CurrentUser() string   { return k.prefix + "current_user" }

// ReadJSON decodes the value under key into dst. A missing key leaves dst untouched
// and returns nil; a value that does not decode returns ErrCorrupt.
func ReadJSON(ctx context.Context, kv KV, key string, dst any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w: %v", key, ErrCorrupt, err)
	}
	return nil
}

// WriteJSON encodes v and stores it under key.
func WriteJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
