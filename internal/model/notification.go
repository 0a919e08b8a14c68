package model

import "time"

// Kind classifies the visual severity of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notification represents a user-facing message surfaced in the
// notification center.
type Notification struct {
	// ID is the unique identifier for this notification, assigned at
	// creation and never changed afterwards.
	ID string `json:"id"`

	// Title is the short headline shown in the list.
	Title string `json:"title"`

	// Message is the human-readable notification body.
	Message string `json:"message"`

	// Kind is the severity bucket used for rendering.
	Kind Kind `json:"kind"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`

	// DedupKey identifies the semantic event this notification
	// represents (e.g. "past-42"). Creating a new entry with an
	// existing key replaces the previous one. Optional for
	// notifications, mandatory for alerts.
	DedupKey string `json:"dedup_key,omitempty"`
}

// Alert is a higher-visibility notification. Alerts always carry a
// dedup key and sort by descending priority.
type Alert struct {
	Notification

	// Priority orders alerts in the center; higher shows first.
	Priority int `json:"priority"`
}

// Input describes a notification or alert to be created. ID and
// CreatedAt are assigned by the center.
type Input struct {
	Title    string
	Message  string
	Kind     Kind
	DedupKey string

	// IsAlert routes the input to the alert collection.
	IsAlert bool

	// Priority applies only when IsAlert is set.
	Priority int
}
