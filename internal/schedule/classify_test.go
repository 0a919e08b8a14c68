package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborops/opsdash/internal/model"
)

func record(id, date, clock, status string) model.ProgrammingRecord {
	return model.ProgrammingRecord{
		ID:            id,
		ScheduledDate: date,
		ScheduledTime: clock,
		Status:        status,
		Service:       "stevedoring",
		Reference:     "MV Test",
	}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02T15:04", value, time.UTC)
	require.NoError(t, err)
	return parsed
}

func emptySeen() Seen {
	return Seen{
		Past:         map[string]bool{},
		TodayOverdue: map[string]bool{},
		TodayPending: map[string]bool{},
		ImminentSent: map[string]bool{},
	}
}

func TestClassify_Buckets(t *testing.T) {
	now := mustTime(t, "2024-01-10T12:00")
	items := []model.ProgrammingRecord{
		record("1", "2024-01-08", "10:00", model.ProgrammingUnassigned), // past
		record("2", "2024-01-10", "09:00", model.ProgrammingUnassigned), // today overdue
		record("3", "2024-01-10", "18:00", model.ProgrammingUnassigned), // today pending
		record("4", "2024-01-12", "08:00", model.ProgrammingUnassigned), // future
	}

	cls := Classify(items, now, time.UTC, 5*time.Minute, emptySeen())

	require.Len(t, cls.Past, 1)
	assert.Equal(t, "1", cls.Past[0].ID)
	require.Len(t, cls.TodayOverdue, 1)
	assert.Equal(t, "2", cls.TodayOverdue[0].ID)
	require.Len(t, cls.TodayPending, 1)
	assert.Equal(t, "3", cls.TodayPending[0].ID)
	require.Len(t, cls.Future, 1)
	assert.Equal(t, "4", cls.Future[0].ID)
	assert.Empty(t, cls.Imminent)
}

func TestClassify_PartitionIsDisjointAndComplete(t *testing.T) {
	now := mustTime(t, "2024-06-15T10:30")
	items := []model.ProgrammingRecord{
		record("a", "2024-06-01", "08:00", model.ProgrammingUnassigned),
		record("b", "2024-06-15", "08:00", model.ProgrammingUnassigned),
		record("c", "2024-06-15", "10:30", model.ProgrammingUnassigned),
		record("d", "2024-06-15", "23:00", model.ProgrammingUnassigned),
		record("e", "2024-06-16", "00:00", model.ProgrammingUnassigned),
		record("f", "2024-07-01", "12:00", model.ProgrammingUnassigned),
		record("g", "2024-06-15", "11:00", model.ProgrammingAssigned), // filtered
		record("", "2024-06-15", "11:00", model.ProgrammingUnassigned), // no id
		record("h", "", "11:00", model.ProgrammingUnassigned),          // no date
		record("i", "junk", "11:00", model.ProgrammingUnassigned),      // bad date
	}

	cls := Classify(items, now, time.UTC, 5*time.Minute, emptySeen())

	seen := map[string]int{}
	for _, bucket := range [][]model.ProgrammingRecord{
		cls.Past, cls.TodayOverdue, cls.TodayPending, cls.Future,
	} {
		for _, item := range bucket {
			seen[item.ID]++
		}
	}

	assert.Equal(t, map[string]int{
		"a": 1, "b": 1, "c": 1, "d": 1, "e": 1, "f": 1,
	}, seen, "buckets must be disjoint and cover exactly the valid unassigned items")
}

func TestClassify_ScheduledInstantEqualToNowIsPending(t *testing.T) {
	now := mustTime(t, "2024-01-10T09:00")
	items := []model.ProgrammingRecord{
		record("42", "2024-01-10", "09:00", model.ProgrammingUnassigned),
	}

	cls := Classify(items, now, time.UTC, 5*time.Minute, emptySeen())

	require.Len(t, cls.TodayPending, 1)
	assert.Empty(t, cls.TodayOverdue)
}

func TestClassify_MissingTimeDefaultsToMidnight(t *testing.T) {
	now := mustTime(t, "2024-01-10T08:00")
	items := []model.ProgrammingRecord{
		record("1", "2024-01-10", "", model.ProgrammingUnassigned),
	}

	cls := Classify(items, now, time.UTC, 5*time.Minute, emptySeen())

	// 00:00 today is before 08:00, so the item is overdue.
	require.Len(t, cls.TodayOverdue, 1)
}

func TestClassify_DayBeforeScenario(t *testing.T) {
	// Scheduled 2024-01-10 09:00, evaluated the next morning.
	now := mustTime(t, "2024-01-11T08:00")
	items := []model.ProgrammingRecord{
		record("42", "2024-01-10", "09:00", model.ProgrammingUnassigned),
	}

	cls := Classify(items, now, time.UTC, 5*time.Minute, emptySeen())

	require.Len(t, cls.Past, 1)
	assert.Equal(t, "42", cls.Past[0].ID)
}

func TestClassify_ImminentWindow(t *testing.T) {
	// Five minutes before the scheduled start.
	now := mustTime(t, "2024-01-10T08:55")
	items := []model.ProgrammingRecord{
		record("42", "2024-01-10", "09:00", model.ProgrammingUnassigned),
	}

	cls := Classify(items, now, time.UTC, 5*time.Minute, emptySeen())

	require.Len(t, cls.Imminent, 1)
	assert.Equal(t, "42", cls.Imminent[0].ID)
}

func TestClassify_OutsideImminentWindow(t *testing.T) {
	now := mustTime(t, "2024-01-10T08:54")
	items := []model.ProgrammingRecord{
		record("42", "2024-01-10", "09:00", model.ProgrammingUnassigned),
	}

	cls := Classify(items, now, time.UTC, 5*time.Minute, emptySeen())

	assert.Empty(t, cls.Imminent, "six minutes out is not imminent")
}

func TestClassify_ImminentAppliesToTomorrowJustAfterMidnight(t *testing.T) {
	now := mustTime(t, "2024-01-10T23:58")
	items := []model.ProgrammingRecord{
		record("9", "2024-01-11", "00:01", model.ProgrammingUnassigned),
	}

	cls := Classify(items, now, time.UTC, 5*time.Minute, emptySeen())

	require.Len(t, cls.Future, 1)
	require.Len(t, cls.Imminent, 1, "future-bucket items inside the window are imminent")
}

func TestClassify_SeenRegistriesSkipItems(t *testing.T) {
	now := mustTime(t, "2024-01-10T12:00")
	items := []model.ProgrammingRecord{
		record("1", "2024-01-08", "10:00", model.ProgrammingUnassigned),
		record("2", "2024-01-10", "09:00", model.ProgrammingUnassigned),
	}

	seen := emptySeen()
	seen.Past["1"] = true

	cls := Classify(items, now, time.UTC, 5*time.Minute, seen)

	assert.Empty(t, cls.Past)
	require.Len(t, cls.TodayOverdue, 1)
}

func TestClassify_ImminentSentSuppressesFlag(t *testing.T) {
	now := mustTime(t, "2024-01-10T08:57")
	items := []model.ProgrammingRecord{
		record("42", "2024-01-10", "09:00", model.ProgrammingUnassigned),
	}

	seen := emptySeen()
	seen.ImminentSent["42"] = true

	cls := Classify(items, now, time.UTC, 5*time.Minute, seen)

	assert.Empty(t, cls.Imminent)
	require.Len(t, cls.TodayPending, 1, "bucket assignment is unaffected")
}
