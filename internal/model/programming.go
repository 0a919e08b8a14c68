package model

import "time"

// ProgrammingStatus values for service programming records. Only
// unassigned records are considered by the alert scheduler.
const (
	ProgrammingUnassigned = "UNASSIGNED"
	ProgrammingAssigned   = "ASSIGNED"
	ProgrammingCancelled  = "CANCELLED"
)

// ProgrammingRecord is a scheduled service programming entry owned by
// the operations planning module. This subsystem only reads it.
type ProgrammingRecord struct {
	// ID is the planning module's identifier for the record.
	ID string `json:"id" db:"id"`

	// ScheduledDate is the target calendar date, "2006-01-02".
	ScheduledDate string `json:"scheduled_date" db:"scheduled_date"`

	// ScheduledTime is the target wall-clock time, "15:04". Empty
	// means the start of the day.
	ScheduledTime string `json:"scheduled_time" db:"scheduled_time"`

	// Status is the assignment state; see the Programming* constants.
	Status string `json:"status" db:"status"`

	// Service names the programmed service, used in message text only.
	Service string `json:"service" db:"service"`

	// Reference is the vessel/operation reference, used in message
	// text only.
	Reference string `json:"reference" db:"reference"`

	// UpdatedAt is when the planning module last touched the record.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// StartTime resolves the record's absolute start instant in the given
// location. The stored date and time are local wall-clock values with
// no offset; loc supplies the reference zone. Returns false when the
// date is missing or unparsable.
func (r ProgrammingRecord) StartTime(loc *time.Location) (time.Time, bool) {
	if r.ScheduledDate == "" {
		return time.Time{}, false
	}

	clock := r.ScheduledTime
	if clock == "" {
		clock = "00:00"
	}

	t, err := time.ParseInLocation("2006-01-02 15:04", r.ScheduledDate+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Label returns the display name used when building notification text.
func (r ProgrammingRecord) Label() string {
	switch {
	case r.Service != "" && r.Reference != "":
		return r.Service + " / " + r.Reference
	case r.Service != "":
		return r.Service
	case r.Reference != "":
		return r.Reference
	default:
		return "service " + r.ID
	}
}
