// Package window decides whether the clearance system accepts new clearance
// processes. The decision is a pure function of the singleton settings
// document and the current time; manual overrides beat the schedule.
package window

import "time"

// Settings is the singleton clearance-window configuration. Exactly one
// document exists; it is lazily created with a default window when absent.
type Settings struct {
	StartDate       time.Time `bson:"startDate" json:"start_date"`
	EndDate         time.Time `bson:"endDate" json:"end_date"`
	IsActive        bool      `bson:"isActive" json:"is_active"`
	ManuallyOpened  bool      `bson:"manuallyOpened" json:"manually_opened"`
	EmergencyClosed bool      `bson:"emergencyClosed" json:"emergency_closed"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updated_at"`
}

// DefaultSettings is the lazily-created fallback: a 5-day scheduled window
// starting tomorrow.
func DefaultSettings(now time.Time) Settings {
	start := now.AddDate(0, 0, 1)
	return Settings{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 5),
		IsActive:  true,
		UpdatedAt: now,
	}
}

// Kind labels why the window is open or closed.
type Kind string

const (
	KindEmergency     Kind = "emergency"
	KindManual        Kind = "manual"
	KindScheduled     Kind = "scheduled"
	KindBeforeOpening Kind = "before_opening"
	KindAfterClosing  Kind = "after_closing"
	KindInactive      Kind = "inactive"
)

// Decision is the outcome of evaluating the window policy.
type Decision struct {
	Open   bool   `json:"open"`
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason"`

	// ClosesIn is set while a scheduled window is open; OpensIn while one
	// has not started yet.
	ClosesIn time.Duration `json:"closes_in,omitempty"`
	OpensIn  time.Duration `json:"opens_in,omitempty"`
}

// Evaluate applies the policy rules in priority order, first match wins:
// emergency close, manual open, then the schedule when active, inactive
// otherwise. Pure function, no side effects.
func Evaluate(s Settings, now time.Time) Decision {
	switch {
	case s.EmergencyClosed:
		return Decision{
			Kind:   KindEmergency,
			Reason: "clearance system closed by emergency action",
		}
	case s.ManuallyOpened:
		return Decision{
			Open:   true,
			Kind:   KindManual,
			Reason: "clearance system opened manually",
		}
	case s.IsActive && !now.Before(s.StartDate) && !now.After(s.EndDate):
		return Decision{
			Open:     true,
			Kind:     KindScheduled,
			Reason:   "clearance window is open",
			ClosesIn: s.EndDate.Sub(now),
		}
	case s.IsActive && now.Before(s.StartDate):
		return Decision{
			Kind:    KindBeforeOpening,
			Reason:  "clearance window has not opened yet",
			OpensIn: s.StartDate.Sub(now),
		}
	case s.IsActive:
		return Decision{
			Kind:   KindAfterClosing,
			Reason: "clearance window has closed",
		}
	default:
		return Decision{
			Kind:   KindInactive,
			Reason: "scheduled clearance window is disabled",
		}
	}
}
