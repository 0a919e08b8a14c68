// Package schedule classifies programming records against the clock
// and drives the throttled alert-emission loop.
package schedule

import (
	"time"

	"github.com/harborops/opsdash/internal/model"
)

// Bucket is a time-relative classification outcome for a programming
// record.
type Bucket string

const (
	BucketPast         Bucket = "past"
	BucketTodayOverdue Bucket = "today-overdue"
	BucketTodayPending Bucket = "today-pending"
	BucketFuture       Bucket = "future"
)

// Seen holds read-only views of the idempotence registries consulted
// during classification. Records already present in their bucket's set
// are left out of the result; records in ImminentSent are never
// flagged imminent again.
type Seen struct {
	Past         map[string]bool
	TodayOverdue map[string]bool
	TodayPending map[string]bool
	ImminentSent map[string]bool
}

// Classification partitions records into the four disjoint buckets.
// Imminent is a separate flag: a record whose start is within the
// lookahead window appears both in its bucket and in Imminent.
type Classification struct {
	Past         []model.ProgrammingRecord
	TodayOverdue []model.ProgrammingRecord
	TodayPending []model.ProgrammingRecord
	Future       []model.ProgrammingRecord
	Imminent     []model.ProgrammingRecord
}

// Classify partitions items relative to now, interpreted in the single
// reference location loc. Records without an id or target date, with a
// status other than UNASSIGNED, or with an unparsable date are
// skipped. window is the imminence lookahead. The function is pure:
// registry bookkeeping belongs to the scheduler.
func Classify(
	items []model.ProgrammingRecord,
	now time.Time,
	loc *time.Location,
	window time.Duration,
	seen Seen,
) Classification {
	var cls Classification

	nowLocal := now.In(loc)
	nowY, nowM, nowD := nowLocal.Date()

	for _, item := range items {
		if item.ID == "" || item.Status != model.ProgrammingUnassigned {
			continue
		}

		start, ok := item.StartTime(loc)
		if !ok {
			continue
		}

		// A record that has not started yet is imminent when its start
		// falls inside the lookahead window, regardless of whether it
		// lands in the today-pending or future bucket.
		if !start.Before(now) && !seen.ImminentSent[item.ID] {
			if minutes := int(start.Sub(now) / time.Minute); minutes >= 0 &&
				time.Duration(minutes)*time.Minute <= window {
				cls.Imminent = append(cls.Imminent, item)
			}
		}

		itemY, itemM, itemD := start.Date()
		switch {
		case beforeDay(itemY, int(itemM), itemD, nowY, int(nowM), nowD):
			if !seen.Past[item.ID] {
				cls.Past = append(cls.Past, item)
			}
		case itemY == nowY && itemM == nowM && itemD == nowD:
			if start.Before(now) {
				if !seen.TodayOverdue[item.ID] {
					cls.TodayOverdue = append(cls.TodayOverdue, item)
				}
			} else {
				if !seen.TodayPending[item.ID] {
					cls.TodayPending = append(cls.TodayPending, item)
				}
			}
		default:
			cls.Future = append(cls.Future, item)
		}
	}

	return cls
}

// beforeDay reports whether calendar day a is strictly before day b.
func beforeDay(aY, aM, aD, bY, bM, bD int) bool {
	if aY != bY {
		return aY < bY
	}
	if aM != bM {
		return aM < bM
	}
	return aD < bD
}
