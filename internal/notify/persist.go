package notify

import (
	"context"
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"github.com/harborops/opsdash/internal/store"
)

// loadJSON reads key from kv and unmarshals it into out. Read errors
// and malformed values are logged and leave out untouched; persisted
// state must never crash the host.
func loadJSON(ctx context.Context, kv store.KV, log *zap.Logger, key string, out interface{}) {
	value, found, err := kv.Get(ctx, key)
	if err != nil {
		log.Warn("reading persisted state failed, starting empty",
			zap.String("key", key), zap.Error(err))
		return
	}
	if !found || value == "" {
		return
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		log.Warn("persisted state is malformed, starting empty",
			zap.String("key", key), zap.Error(err))
	}
}

// saveJSON marshals v and writes it under key. Write failures are
// logged; the in-memory state stays authoritative for this process.
func saveJSON(ctx context.Context, kv store.KV, log *zap.Logger, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error("marshaling state failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		log.Error("persisting state failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Center) saveNotifications(ctx context.Context) {
	saveJSON(ctx, c.kv, c.log, notificationsKey, c.notifications)
}

func (c *Center) saveAlerts(ctx context.Context) {
	saveJSON(ctx, c.kv, c.log, alertsKey, c.alerts)
}

func (c *Center) saveTombstones(ctx context.Context) {
	keys := make([]string, 0, len(c.tombstones))
	for k := range c.tombstones {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	saveJSON(ctx, c.kv, c.log, tombstonesKey, keys)
}
