package api

import (
	"log/slog"

	"github.com/gzfs/greenlit/internal/services"
)

// kvAdapter narrows Store to the vault's KV port. Read errors degrade to a
// miss; the vault treats absent keys as empty state anyway.
type kvAdapter struct {
	store Store
}

func (a kvAdapter) Get(key string) ([]byte, bool) {
	v, ok, err := a.store.GetKV(key)
	if err != nil {
		slog.Error("kv read failed", "key", key, "error", err)
		return nil, false
	}
	return v, ok
}

func (a kvAdapter) Set(key string, value []byte) error { return a.store.SetKV(key, value) }

func (a kvAdapter) Clear(key string) error { return a.store.ClearKV(key) }

var _ services.KV = kvAdapter{}
