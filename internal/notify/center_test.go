package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborops/opsdash/internal/model"
	"github.com/harborops/opsdash/internal/store"
)

func newTestCenter(t *testing.T) (*Center, *store.MemoryKV) {
	t.Helper()
	kv := store.NewMemoryKV()
	return NewCenter(context.Background(), kv, zap.NewNop()), kv
}

func TestAddNotification_DedupKeyReplaces(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddNotification(ctx, model.Input{
		Title: "first", Message: "one", Kind: model.KindInfo, DedupKey: "evt-1",
	})
	c.AddNotification(ctx, model.Input{
		Title: "second", Message: "two", Kind: model.KindWarning, DedupKey: "evt-1",
	})

	notifications := c.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "second", notifications[0].Title)
	assert.Equal(t, model.KindWarning, notifications[0].Kind)
}

func TestAddNotification_KeylessDuplicateIgnored(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddNotification(ctx, model.Input{Title: "shift change", Message: "dock 3"})
	c.AddNotification(ctx, model.Input{Title: "shift change", Message: "dock 3"})
	c.AddNotification(ctx, model.Input{Title: "shift change", Message: "dock 4"})

	assert.Len(t, c.Notifications(), 2)
}

func TestAddNotification_MostRecentFirst(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddNotification(ctx, model.Input{Title: "older", Message: "a"})
	c.AddNotification(ctx, model.Input{Title: "newer", Message: "b"})

	notifications := c.Notifications()
	require.Len(t, notifications, 2)
	assert.Equal(t, "newer", notifications[0].Title)
}

func TestAddNotification_DelegatesToAlert(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddNotification(ctx, model.Input{
		Title: "berth conflict", IsAlert: true, DedupKey: "conflict-9", Priority: 3,
	})

	assert.Empty(t, c.Notifications())
	assert.True(t, c.HasAlert("conflict-9"))
}

func TestAddAlert_RequiresDedupKey(t *testing.T) {
	c, _ := newTestCenter(t)

	c.AddAlert(context.Background(), model.Input{Title: "no key"})

	assert.Empty(t, c.Alerts())
}

func TestAddAlert_PriorityOrdering(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddAlert(ctx, model.Input{Title: "low", DedupKey: "a", Priority: 3})
	c.AddAlert(ctx, model.Input{Title: "high", DedupKey: "b", Priority: 10})
	c.AddAlert(ctx, model.Input{Title: "mid", DedupKey: "c", Priority: 5})

	alerts := c.Alerts()
	require.Len(t, alerts, 3)
	assert.Equal(t, []int{10, 5, 3}, []int{
		alerts[0].Priority, alerts[1].Priority, alerts[2].Priority,
	})
}

func TestAddAlert_DedupKeyReplaces(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddAlert(ctx, model.Input{Title: "first", DedupKey: "imminent-7", Priority: 10})
	c.AddAlert(ctx, model.Input{Title: "second", DedupKey: "imminent-7", Priority: 10})

	alerts := c.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "second", alerts[0].Title)
}

func TestRemove_TombstonesDedupKey(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddNotification(ctx, model.Input{Title: "x", DedupKey: "past-42"})
	id := c.Notifications()[0].ID

	c.Remove(ctx, id)
	assert.Empty(t, c.Notifications())

	// Tombstoned keys are never recreated.
	c.AddNotification(ctx, model.Input{Title: "again", DedupKey: "past-42"})
	assert.Empty(t, c.Notifications())
}

func TestRemove_UnknownIDIsNoOp(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddNotification(ctx, model.Input{Title: "keep", Message: "m"})
	c.Remove(ctx, "missing-id")

	assert.Len(t, c.Notifications(), 1)
}

func TestRemoveAlertByKey(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddAlert(ctx, model.Input{Title: "x", DedupKey: "today-pending-3", Priority: 5})
	c.RemoveAlertByKey(ctx, "today-pending-3")

	assert.False(t, c.HasAlert("today-pending-3"))

	c.AddAlert(ctx, model.Input{Title: "x", DedupKey: "today-pending-3", Priority: 5})
	assert.False(t, c.HasAlert("today-pending-3"), "tombstoned alert key must stay dead")

	// Removing an absent key is a logged no-op.
	c.RemoveAlertByKey(ctx, "never-existed")
}

func TestMarkReadAndMarkAllRead(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddNotification(ctx, model.Input{Title: "a", Message: "1"})
	c.AddAlert(ctx, model.Input{Title: "b", DedupKey: "k", Priority: 1})
	require.Equal(t, 2, c.UnreadCount())

	c.MarkRead(ctx, c.Notifications()[0].ID)
	assert.Equal(t, 1, c.UnreadCount())

	// Idempotent.
	c.MarkRead(ctx, c.Notifications()[0].ID)
	assert.Equal(t, 1, c.UnreadCount())

	c.MarkAllRead(ctx)
	assert.Equal(t, 0, c.UnreadCount())
}

func TestClearAll_DoesNotTombstone(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddNotification(ctx, model.Input{Title: "n", DedupKey: "n-key"})
	c.AddAlert(ctx, model.Input{Title: "a", DedupKey: "a-key", Priority: 1})

	c.ClearAll(ctx)
	assert.Empty(t, c.Notifications())
	assert.Empty(t, c.Alerts())

	// Bulk clear leaves the keys creatable.
	c.AddNotification(ctx, model.Input{Title: "n", DedupKey: "n-key"})
	c.AddAlert(ctx, model.Input{Title: "a", DedupKey: "a-key", Priority: 1})
	assert.Len(t, c.Notifications(), 1)
	assert.True(t, c.HasAlert("a-key"))
}

func TestClearAllAlerts_TombstonesEveryKey(t *testing.T) {
	c, _ := newTestCenter(t)
	ctx := context.Background()

	c.AddAlert(ctx, model.Input{Title: "a", DedupKey: "k1", Priority: 1})
	c.AddAlert(ctx, model.Input{Title: "b", DedupKey: "k2", Priority: 2})

	c.ClearAllAlerts(ctx)
	assert.Empty(t, c.Alerts())

	c.AddAlert(ctx, model.Input{Title: "a", DedupKey: "k1", Priority: 1})
	c.AddAlert(ctx, model.Input{Title: "b", DedupKey: "k2", Priority: 2})
	assert.Empty(t, c.Alerts())
}

func TestRemoveDuplicates(t *testing.T) {
	kv := store.NewMemoryKV()
	ctx := context.Background()

	// Seed persisted state with duplicates and a keyless alert, as a
	// buggy older client could have left behind.
	seed := `[
		{"id":"1","title":"t","message":"m","kind":"info","created_at":"2024-01-01T00:00:00Z","dedup_key":"dup"},
		{"id":"2","title":"other","message":"m2","kind":"info","created_at":"2024-01-01T00:00:00Z","dedup_key":"dup"},
		{"id":"3","title":"plain","message":"m3","kind":"info","created_at":"2024-01-01T00:00:00Z"},
		{"id":"4","title":"plain","message":"m3","kind":"info","created_at":"2024-01-01T00:00:00Z"}
	]`
	require.NoError(t, kv.Set(ctx, "notifications:list", seed))

	alertSeed := `[
		{"id":"5","title":"a","message":"","kind":"warning","created_at":"2024-01-01T00:00:00Z","dedup_key":"ak"},
		{"id":"6","title":"b","message":"","kind":"warning","created_at":"2024-01-01T00:00:00Z","dedup_key":"ak","priority":2},
		{"id":"7","title":"keyless","message":"","kind":"warning","created_at":"2024-01-01T00:00:00Z"}
	]`
	require.NoError(t, kv.Set(ctx, "notifications:alerts", alertSeed))

	c := NewCenter(ctx, kv, zap.NewNop())

	notifications := c.Notifications()
	require.Len(t, notifications, 2)
	assert.Equal(t, "1", notifications[0].ID, "first occurrence wins")
	assert.Equal(t, "3", notifications[1].ID)

	alerts := c.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "5", alerts[0].ID)

	// Idempotent: a second pass changes nothing.
	c.RemoveDuplicates(ctx)
	assert.Len(t, c.Notifications(), 2)
	assert.Len(t, c.Alerts(), 1)
}

func TestPersistenceRoundTrip(t *testing.T) {
	kv := store.NewMemoryKV()
	ctx := context.Background()

	c := NewCenter(ctx, kv, zap.NewNop())
	c.AddNotification(ctx, model.Input{Title: "n", Message: "m", DedupKey: "k"})
	c.AddAlert(ctx, model.Input{Title: "a", DedupKey: "ak", Priority: 7})
	c.RemoveAlertByKey(ctx, "ak")

	// A fresh center over the same storage sees the same state,
	// including the tombstone.
	c2 := NewCenter(ctx, kv, zap.NewNop())
	require.Len(t, c2.Notifications(), 1)
	assert.Empty(t, c2.Alerts())

	c2.AddAlert(ctx, model.Input{Title: "a", DedupKey: "ak", Priority: 7})
	assert.Empty(t, c2.Alerts(), "tombstone must survive restart")
}

func TestCorruptPersistedStateDegradesToEmpty(t *testing.T) {
	kv := store.NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "notifications:list", "{not json"))
	require.NoError(t, kv.Set(ctx, "notifications:alerts", "also not json"))
	require.NoError(t, kv.Set(ctx, "notifications:tombstones", "[1,2"))

	c := NewCenter(ctx, kv, zap.NewNop())
	assert.Empty(t, c.Notifications())
	assert.Empty(t, c.Alerts())

	// The center stays usable after the fail-open load.
	c.AddNotification(ctx, model.Input{Title: "works", Message: "fine"})
	assert.Len(t, c.Notifications(), 1)
}
