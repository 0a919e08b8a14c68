package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harborops/opsdash/internal/model"
	"github.com/harborops/opsdash/internal/notify"
	"github.com/harborops/opsdash/internal/source"
	"github.com/harborops/opsdash/internal/store"
)

// Storage keys for the scheduler's idempotence registries.
const (
	notifiedKey     = "programming:notified"
	imminentSentKey = "programming:imminent-sent"
)

// Dedup keys for the per-category summary notifications.
const (
	pastSummaryKey   = "programming-past-summary"
	todaySummaryKey  = "programming-today-summary"
	futureSummaryKey = "programming-future-summary"
)

// Companion alert priorities per bucket.
const (
	todayPendingPriority = 5
	imminentPriority     = 10
)

// Clock supplies the current time; injected so tests can pin it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall-clock Clock used outside tests.
var SystemClock Clock = systemClock{}

// Config holds the scheduler's tuning knobs.
type Config struct {
	// Throttle is the minimum gap between accepted ticks.
	Throttle time.Duration

	// ImminentWindow is the lookahead for "about to start" alerts.
	ImminentWindow time.Duration

	// MaxEmissionsPerTick caps per-item emissions in a single tick;
	// overflow is retried on the next tick.
	MaxEmissionsPerTick int

	// Location is the single reference zone programming times are
	// interpreted in.
	Location *time.Location
}

// notifiedSets is the persisted form of the per-bucket registry.
type notifiedSets struct {
	Past         []string `json:"past"`
	TodayOverdue []string `json:"today_overdue"`
	TodayPending []string `json:"today_pending"`
}

// Scheduler is the throttled control loop that classifies programming
// records and emits notifications and alerts exactly once per record
// per bucket. All mutable loop state lives on the instance; there are
// no package-level registries.
type Scheduler struct {
	kv     store.KV
	center *notify.Center
	src    source.ProgrammingSource
	clock  Clock
	log    *zap.Logger
	cfg    Config

	mu           sync.Mutex
	lastTick     time.Time
	notified     map[Bucket]map[string]bool
	imminentSent map[string]bool
}

// NewScheduler builds a scheduler and loads its registries from kv.
// Malformed registry state degrades to empty sets.
func NewScheduler(
	ctx context.Context,
	kv store.KV,
	center *notify.Center,
	src source.ProgrammingSource,
	clock Clock,
	log *zap.Logger,
	cfg Config,
) *Scheduler {
	if cfg.Throttle <= 0 {
		cfg.Throttle = 30 * time.Second
	}
	if cfg.ImminentWindow <= 0 {
		cfg.ImminentWindow = 5 * time.Minute
	}
	if cfg.MaxEmissionsPerTick <= 0 {
		cfg.MaxEmissionsPerTick = 5
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Scheduler{
		kv:     kv,
		center: center,
		src:    src,
		clock:  clock,
		log:    log,
		cfg:    cfg,
	}
	s.loadRegistries(ctx)
	return s
}

// Tick runs one guarded classification pass. Ticks are skipped while
// the source is loading or empty and while the throttle gate is
// closed. Returns the number of per-item emissions performed.
func (s *Scheduler) Tick(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickLocked(ctx)
}

// CheckNow forces an immediate tick, bypassing the throttle gate.
func (s *Scheduler) CheckNow(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastTick = time.Time{}
	return s.tickLocked(ctx)
}

// ResetNotifications clears every idempotence registry so previously
// notified records are re-evaluated from scratch. Tombstones in the
// notification center are untouched.
func (s *Scheduler) ResetNotifications(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notified = emptyNotified()
	s.imminentSent = make(map[string]bool)
	s.saveRegistries(ctx)
}

// OnSessionStart reloads the registries for the signed-in user.
func (s *Scheduler) OnSessionStart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadRegistries(ctx)
	s.lastTick = time.Time{}
}

// OnSessionEnd resets the throttle gate so the next session starts
// with a fresh tick. Registries stay persisted.
func (s *Scheduler) OnSessionEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastTick = time.Time{}
}

// tickLocked is the tick body. Callers hold s.mu, which also
// guarantees two ticks never overlap.
func (s *Scheduler) tickLocked(ctx context.Context) int {
	if s.src.Loading() {
		return 0
	}

	now := s.clock.Now()
	if !s.lastTick.IsZero() && now.Sub(s.lastTick) < s.cfg.Throttle {
		return 0
	}
	// Claim the gate before processing so a concurrent trigger cannot
	// start a second tick.
	s.lastTick = now

	items, err := s.src.List(ctx)
	if err != nil {
		s.log.Warn("listing programming records failed", zap.Error(err))
		return 0
	}
	if len(items) == 0 {
		return 0
	}

	cls := Classify(items, now, s.cfg.Location, s.cfg.ImminentWindow, s.seenView())

	emitted := 0
	emitted += s.emitBucket(ctx, BucketPast, cls.Past, emitted)
	emitted += s.emitBucket(ctx, BucketTodayOverdue, cls.TodayOverdue, emitted)
	emitted += s.emitBucket(ctx, BucketTodayPending, cls.TodayPending, emitted)

	// Imminent alerts bypass the per-tick cap and bucket registries.
	for _, item := range cls.Imminent {
		s.center.AddAlert(ctx, model.Input{
			Title:    "Service about to start",
			Message:  fmt.Sprintf("%s starts at %s.", item.Label(), item.ScheduledTime),
			Kind:     model.KindWarning,
			DedupKey: "imminent-" + item.ID,
			Priority: imminentPriority,
		})
		s.imminentSent[item.ID] = true
	}

	s.emitSummaries(ctx, cls)
	s.saveRegistries(ctx)

	return emitted
}

// emitBucket emits the per-item notification (and companion alert for
// the today buckets) for each record, up to the per-tick cap shared
// across buckets. Records beyond the cap are retried next tick.
func (s *Scheduler) emitBucket(
	ctx context.Context,
	bucket Bucket,
	items []model.ProgrammingRecord,
	already int,
) int {
	emitted := 0
	for _, item := range items {
		if already+emitted >= s.cfg.MaxEmissionsPerTick {
			break
		}

		key := string(bucket) + "-" + item.ID
		title, message, kind := bucketText(bucket, item)

		s.center.AddNotification(ctx, model.Input{
			Title:    title,
			Message:  message,
			Kind:     kind,
			DedupKey: key,
		})

		switch bucket {
		case BucketTodayOverdue:
			s.center.AddAlert(ctx, model.Input{
				Title:    title,
				Message:  message,
				Kind:     kind,
				DedupKey: key,
			})
		case BucketTodayPending:
			s.center.AddAlert(ctx, model.Input{
				Title:    title,
				Message:  message,
				Kind:     kind,
				DedupKey: key,
				Priority: todayPendingPriority,
			})
		}

		s.notified[bucket][item.ID] = true
		emitted++
	}
	return emitted
}

// emitSummaries creates the per-category summary notifications. Each
// summary has a fixed dedup key and is created at most once: an
// existing or tombstoned summary is left alone, so counts reflect the
// first creation.
func (s *Scheduler) emitSummaries(ctx context.Context, cls Classification) {
	pastCount := len(cls.Past)
	todayCount := len(cls.TodayOverdue) + len(cls.TodayPending)
	futureCount := len(cls.Future)

	if pastCount > 0 && !s.center.HasNotification(pastSummaryKey) {
		s.center.AddNotification(ctx, model.Input{
			Title:    "Unattended programming",
			Message:  fmt.Sprintf("%d scheduled services were not attended.", pastCount),
			Kind:     model.KindWarning,
			DedupKey: pastSummaryKey,
		})
	}
	if todayCount > 0 && !s.center.HasNotification(todaySummaryKey) {
		s.center.AddNotification(ctx, model.Input{
			Title:    "Programming for today",
			Message:  fmt.Sprintf("%d services are scheduled for today without assignment.", todayCount),
			Kind:     model.KindWarning,
			DedupKey: todaySummaryKey,
		})
	}
	if futureCount > 0 && !s.center.HasNotification(futureSummaryKey) {
		s.center.AddNotification(ctx, model.Input{
			Title:    "Upcoming programming",
			Message:  fmt.Sprintf("%d services are scheduled for the coming days.", futureCount),
			Kind:     model.KindInfo,
			DedupKey: futureSummaryKey,
		})
	}
}

// bucketText builds the notification title, message, and kind for a
// record in the given bucket.
func bucketText(bucket Bucket, item model.ProgrammingRecord) (string, string, model.Kind) {
	when := item.ScheduledDate
	if item.ScheduledTime != "" {
		when += " " + item.ScheduledTime
	}

	switch bucket {
	case BucketPast:
		return "Service not attended",
			fmt.Sprintf("%s was scheduled for %s and was never assigned.", item.Label(), when),
			model.KindError
	case BucketTodayOverdue:
		return "Service overdue",
			fmt.Sprintf("%s was scheduled for %s today and has no assignment.", item.Label(), item.ScheduledTime),
			model.KindWarning
	default:
		return "Service pending today",
			fmt.Sprintf("%s is scheduled for %s today and has no assignment.", item.Label(), item.ScheduledTime),
			model.KindInfo
	}
}

// seenView exposes the registries to the classifier read-only.
func (s *Scheduler) seenView() Seen {
	return Seen{
		Past:         s.notified[BucketPast],
		TodayOverdue: s.notified[BucketTodayOverdue],
		TodayPending: s.notified[BucketTodayPending],
		ImminentSent: s.imminentSent,
	}
}

// emptyNotified returns a fresh per-bucket registry.
func emptyNotified() map[Bucket]map[string]bool {
	return map[Bucket]map[string]bool{
		BucketPast:         make(map[string]bool),
		BucketTodayOverdue: make(map[string]bool),
		BucketTodayPending: make(map[string]bool),
	}
}

// loadRegistries reads the persisted registries, degrading malformed
// or unreadable state to empty sets.
func (s *Scheduler) loadRegistries(ctx context.Context) {
	s.notified = emptyNotified()
	s.imminentSent = make(map[string]bool)

	var sets notifiedSets
	if s.loadValue(ctx, notifiedKey, &sets) {
		for _, id := range sets.Past {
			s.notified[BucketPast][id] = true
		}
		for _, id := range sets.TodayOverdue {
			s.notified[BucketTodayOverdue][id] = true
		}
		for _, id := range sets.TodayPending {
			s.notified[BucketTodayPending][id] = true
		}
	}

	var sent []string
	if s.loadValue(ctx, imminentSentKey, &sent) {
		for _, id := range sent {
			s.imminentSent[id] = true
		}
	}
}

// saveRegistries writes both registries through to the key-value
// store.
func (s *Scheduler) saveRegistries(ctx context.Context) {
	sets := notifiedSets{
		Past:         setToSlice(s.notified[BucketPast]),
		TodayOverdue: setToSlice(s.notified[BucketTodayOverdue]),
		TodayPending: setToSlice(s.notified[BucketTodayPending]),
	}
	s.saveValue(ctx, notifiedKey, sets)
	s.saveValue(ctx, imminentSentKey, setToSlice(s.imminentSent))
}

// setToSlice returns the set's members sorted for stable persistence.
func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// loadValue reads and unmarshals one registry value. Returns false
// when the value is absent or malformed; malformed state is logged and
// treated as empty.
func (s *Scheduler) loadValue(ctx context.Context, key string, out interface{}) bool {
	value, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn("reading registry failed, starting empty",
			zap.String("key", key), zap.Error(err))
		return false
	}
	if !found || value == "" {
		return false
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		s.log.Warn("registry state is malformed, starting empty",
			zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// saveValue marshals and persists one registry value.
func (s *Scheduler) saveValue(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshaling registry failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		s.log.Error("persisting registry failed", zap.String("key", key), zap.Error(err))
	}
}
