// Package notify maintains the deduplicated, persistent collections of
// user-facing notifications and higher-priority alerts shown in the
// operations dashboard.
package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborops/opsdash/internal/model"
	"github.com/harborops/opsdash/internal/store"
)

// Storage keys under the shared key-value store.
const (
	notificationsKey = "notifications:list"
	alertsKey        = "notifications:alerts"
	tombstonesKey    = "notifications:tombstones"
)

// Center holds the in-memory notification and alert collections and
// writes every mutation through to the key-value store. A dismissed
// dedup key is tombstoned: no later creation with that key succeeds.
type Center struct {
	kv  store.KV
	log *zap.Logger

	// mu guards the collections: the scheduler ticks on a background
	// command goroutine while the UI mutates read state.
	mu sync.Mutex

	notifications []model.Notification
	alerts        []model.Alert
	tombstones    map[string]struct{}
}

// NewCenter loads persisted state from kv and runs the duplicate
// repair pass once. Corrupt or unreadable persisted values degrade to
// empty collections; the center never fails to construct.
func NewCenter(ctx context.Context, kv store.KV, log *zap.Logger) *Center {
	c := &Center{
		kv:         kv,
		log:        log,
		tombstones: make(map[string]struct{}),
	}

	loadJSON(ctx, kv, log, notificationsKey, &c.notifications)
	loadJSON(ctx, kv, log, alertsKey, &c.alerts)

	var keys []string
	loadJSON(ctx, kv, log, tombstonesKey, &keys)
	for _, k := range keys {
		c.tombstones[k] = struct{}{}
	}

	c.RemoveDuplicates(ctx)
	return c
}

// AddNotification creates a notification from input, or delegates to
// AddAlert when input.IsAlert is set. A tombstoned dedup key makes the
// call a no-op. With a dedup key, any existing entry sharing the key is
// replaced; without one, an entry with identical title and message
// suppresses the new one.
func (c *Center) AddNotification(ctx context.Context, input model.Input) {
	if input.IsAlert {
		c.AddAlert(ctx, input)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isTombstoned(input.DedupKey) {
		c.log.Debug("notification suppressed by tombstone",
			zap.String("dedup_key", input.DedupKey))
		return
	}

	if input.DedupKey != "" {
		kept := c.notifications[:0]
		for _, n := range c.notifications {
			if n.DedupKey != input.DedupKey {
				kept = append(kept, n)
			}
		}
		c.notifications = kept
	} else {
		for _, n := range c.notifications {
			if n.Title == input.Title && n.Message == input.Message {
				return
			}
		}
	}

	// Most recent first.
	n := newNotification(input)
	c.notifications = append([]model.Notification{n}, c.notifications...)
	c.saveNotifications(ctx)
}

// AddAlert creates an alert from input. Alerts require a dedup key;
// creation without one is rejected with a log and no error reaches the
// caller. The alert collection stays sorted by descending priority,
// ties keeping insertion order.
func (c *Center) AddAlert(ctx context.Context, input model.Input) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if input.DedupKey == "" {
		c.log.Warn("alert rejected: missing dedup key",
			zap.String("title", input.Title))
		return
	}

	if c.isTombstoned(input.DedupKey) {
		c.log.Debug("alert suppressed by tombstone",
			zap.String("dedup_key", input.DedupKey))
		return
	}

	kept := c.alerts[:0]
	for _, a := range c.alerts {
		if a.DedupKey != input.DedupKey {
			kept = append(kept, a)
		}
	}
	c.alerts = append(kept, model.Alert{
		Notification: newNotification(input),
		Priority:     input.Priority,
	})

	sort.SliceStable(c.alerts, func(i, j int) bool {
		return c.alerts[i].Priority > c.alerts[j].Priority
	})
	c.saveAlerts(ctx)
}

// MarkRead marks the entry with the given id as read. IDs are unique
// across both collections; unknown ids are ignored.
func (c *Center) MarkRead(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.notifications {
		if c.notifications[i].ID == id {
			c.notifications[i].Read = true
			c.saveNotifications(ctx)
			return
		}
	}
	for i := range c.alerts {
		if c.alerts[i].ID == id {
			c.alerts[i].Read = true
			c.saveAlerts(ctx)
			return
		}
	}
}

// MarkAllRead marks every notification and alert as read.
func (c *Center) MarkAllRead(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.notifications {
		c.notifications[i].Read = true
	}
	for i := range c.alerts {
		c.alerts[i].Read = true
	}
	c.saveNotifications(ctx)
	c.saveAlerts(ctx)
}

// Remove deletes the entry with the given id from either collection.
// If the entry carries a dedup key, the key is tombstoned so the entry
// is never recreated.
func (c *Center) Remove(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.notifications {
		if n.ID == id {
			c.tombstone(ctx, n.DedupKey)
			c.notifications = append(c.notifications[:i], c.notifications[i+1:]...)
			c.saveNotifications(ctx)
			return
		}
	}
	for i, a := range c.alerts {
		if a.ID == id {
			c.tombstone(ctx, a.DedupKey)
			c.alerts = append(c.alerts[:i], c.alerts[i+1:]...)
			c.saveAlerts(ctx)
			return
		}
	}
	c.log.Debug("remove: no entry with id", zap.String("id", id))
}

// RemoveAlertByKey dismisses the alert carrying the given dedup key,
// tombstoning the key. A missing alert is a logged no-op.
func (c *Center) RemoveAlertByKey(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, a := range c.alerts {
		if a.DedupKey == key {
			c.tombstone(ctx, key)
			c.alerts = append(c.alerts[:i], c.alerts[i+1:]...)
			c.saveAlerts(ctx)
			return
		}
	}
	c.log.Debug("removeAlertByKey: no alert with key", zap.String("dedup_key", key))
}

// ClearAll empties both collections. Bulk clear does not tombstone
// notification or alert keys; use ClearAllAlerts to dismiss alerts
// permanently.
func (c *Center) ClearAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notifications = nil
	c.alerts = nil
	c.saveNotifications(ctx)
	c.saveAlerts(ctx)
}

// ClearAllAlerts tombstones every current alert's dedup key and
// empties the alert collection.
func (c *Center) ClearAllAlerts(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.alerts {
		if a.DedupKey != "" {
			c.tombstones[a.DedupKey] = struct{}{}
		}
	}
	c.alerts = nil
	c.saveTombstones(ctx)
	c.saveAlerts(ctx)
}

// RemoveDuplicates is the repair pass run at initialization: it
// collapses notifications by dedup key (first occurrence wins), then
// collapses remaining keyless notifications by identical title and
// message. Alerts without a dedup key are discarded entirely, the rest
// collapsed by key. Running it twice yields no further change.
func (c *Center) RemoveDuplicates(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seenKeys := make(map[string]struct{})
	seenText := make(map[[2]string]struct{})

	kept := c.notifications[:0]
	for _, n := range c.notifications {
		if n.DedupKey != "" {
			if _, dup := seenKeys[n.DedupKey]; dup {
				continue
			}
			seenKeys[n.DedupKey] = struct{}{}
			kept = append(kept, n)
			continue
		}
		text := [2]string{n.Title, n.Message}
		if _, dup := seenText[text]; dup {
			continue
		}
		seenText[text] = struct{}{}
		kept = append(kept, n)
	}
	changedNotifications := len(kept) != len(c.notifications)
	c.notifications = kept

	seenAlertKeys := make(map[string]struct{})
	keptAlerts := c.alerts[:0]
	for _, a := range c.alerts {
		if a.DedupKey == "" {
			continue
		}
		if _, dup := seenAlertKeys[a.DedupKey]; dup {
			continue
		}
		seenAlertKeys[a.DedupKey] = struct{}{}
		keptAlerts = append(keptAlerts, a)
	}
	changedAlerts := len(keptAlerts) != len(c.alerts)
	c.alerts = keptAlerts

	if changedNotifications {
		c.saveNotifications(ctx)
	}
	if changedAlerts {
		c.saveAlerts(ctx)
	}
}

// HasAlert reports whether an alert with the given dedup key exists.
func (c *Center) HasAlert(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.alerts {
		if a.DedupKey == key {
			return true
		}
	}
	return false
}

// HasNotification reports whether a notification with the given dedup
// key exists.
func (c *Center) HasNotification(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.notifications {
		if n.DedupKey == key {
			return true
		}
	}
	return false
}

// Notifications returns a copy of the notification list, most recent
// first.
func (c *Center) Notifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// Alerts returns a copy of the alert list in priority order.
func (c *Center) Alerts() []model.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

// UnreadCount returns how many notifications and alerts are unread.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, n := range c.notifications {
		if !n.Read {
			count++
		}
	}
	for _, a := range c.alerts {
		if !a.Read {
			count++
		}
	}
	return count
}

// isTombstoned reports whether key was permanently dismissed. The
// empty key is never tombstoned.
func (c *Center) isTombstoned(key string) bool {
	if key == "" {
		return false
	}
	_, ok := c.tombstones[key]
	return ok
}

// tombstone records key as dismissed and persists the registry.
func (c *Center) tombstone(ctx context.Context, key string) {
	if key == "" {
		return
	}
	c.tombstones[key] = struct{}{}
	c.saveTombstones(ctx)
}

// newNotification builds a Notification from input with a fresh id and
// timestamp.
func newNotification(input model.Input) model.Notification {
	return model.Notification{
		ID:        uuid.New().String(),
		Title:     input.Title,
		Message:   input.Message,
		Kind:      input.Kind,
		CreatedAt: time.Now(),
		DedupKey:  input.DedupKey,
	}
}
