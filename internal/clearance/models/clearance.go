// Package models holds the clearance record aggregate: six independently
// mutable section statuses, a derived overall status, and an append-only
// approval history.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	dErrors "cleargate/pkg/domain-errors"
)

// Section is one of the six clearance checkpoints a student must pass.
type Section string

const (
	SectionDepartment Section = "department"
	SectionLibrary    Section = "library"
	SectionDormitory  Section = "dormitory"
	SectionFinance    Section = "finance"
	SectionRegistrar  Section = "registrar"
	SectionCafeteria  Section = "cafeteria"
)

// Sections returns all checkpoints in their canonical order.
func Sections() []Section {
	return []Section{
		SectionDepartment,
		SectionLibrary,
		SectionDormitory,
		SectionFinance,
		SectionRegistrar,
		SectionCafeteria,
	}
}

// ParseSection validates a caller-supplied section name.
func ParseSection(s string) (Section, error) {
	for _, sec := range Sections() {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown section: "+s)
}

// SectionStatus is the decision state of a single checkpoint.
type SectionStatus string

const (
	StatusPending  SectionStatus = "pending"
	StatusCleared  SectionStatus = "cleared"
	StatusRejected SectionStatus = "rejected"
)

// ParseSectionStatus validates a caller-supplied status value.
func ParseSectionStatus(s string) (SectionStatus, error) {
	switch SectionStatus(s) {
	case StatusPending, StatusCleared, StatusRejected:
		return SectionStatus(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid section status: "+s)
}

// OverallStatus is derived from the six section statuses and never written
// directly by callers.
type OverallStatus string

const (
	OverallPending  OverallStatus = "pending"
	OverallApproved OverallStatus = "approved"
	OverallRejected OverallStatus = "rejected"
)

// IsTerminal reports whether a status transition into this value triggers a
// student notification.
func (s OverallStatus) IsTerminal() bool {
	return s == OverallApproved || s == OverallRejected
}

// SectionState is the stored state of one checkpoint. Reason is populated
// only while Status is rejected.
type SectionState struct {
	Status SectionStatus `bson:"status" json:"status"`
	Reason string        `bson:"reason,omitempty" json:"reason,omitempty"`
}

// HistoryEntry records one real staff decision. Records start with an empty
// history; no synthetic pending rows are ever inserted.
type HistoryEntry struct {
	ID        string        `bson:"id" json:"id"`
	Section   Section       `bson:"section" json:"section"`
	Approver  string        `bson:"approver" json:"approver"`
	Status    SectionStatus `bson:"status" json:"status"`
	Reason    string        `bson:"reason,omitempty" json:"reason,omitempty"`
	Timestamp time.Time     `bson:"timestamp" json:"timestamp"`
}

// IsPlaceholder reports whether the entry is a legacy bootstrap artifact:
// no real approver, or a system-inserted pending row. New records never
// produce these, but migrated data may still carry them.
func (e HistoryEntry) IsPlaceholder() bool {
	if e.Approver == "" {
		return true
	}
	return e.Approver == "System" && e.Status == StatusPending
}

// ClearanceRecord is the aggregate for one student's clearance process.
// There is at most one per student; it is never deleted and serves as the
// permanent audit trail. Version is the compare-and-set token for atomic
// whole-document updates.
type ClearanceRecord struct {
	ID        primitive.ObjectID       `bson:"_id,omitempty" json:"-"`
	StudentID string                   `bson:"studentId" json:"student_id"`
	Sections  map[Section]SectionState `bson:"sections" json:"sections"`
	Overall   OverallStatus            `bson:"overallStatus" json:"overall_status"`
	History   []HistoryEntry           `bson:"approvalHistory" json:"approval_history"`
	Version   int64                    `bson:"version" json:"-"`
	CreatedAt time.Time                `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time                `bson:"updatedAt" json:"updated_at"`
}

// NewClearanceRecord starts a clearance process: all sections pending and an
// empty history, since creation is not a staff decision.
func NewClearanceRecord(studentID string, now time.Time) *ClearanceRecord {
	sections := make(map[Section]SectionState, len(Sections()))
	for _, sec := range Sections() {
		sections[sec] = SectionState{Status: StatusPending}
	}
	return &ClearanceRecord{
		StudentID: studentID,
		Sections:  sections,
		Overall:   OverallPending,
		History:   []HistoryEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ComputeOverall derives the aggregate status: rejected dominates, approval
// requires all six cleared, anything else is pending.
func ComputeOverall(sections map[Section]SectionState) OverallStatus {
	cleared := 0
	for _, sec := range Sections() {
		switch sections[sec].Status {
		case StatusRejected:
			return OverallRejected
		case StatusCleared:
			cleared++
		}
	}
	if cleared == len(Sections()) {
		return OverallApproved
	}
	return OverallPending
}

// ApplySection writes one staff decision onto the record: section state,
// history entry, and recomputed overall status, all in memory. The caller
// persists the whole document in one atomic write. Returns the overall
// status before and after so the caller can detect terminal transitions
// without another read.
//
// A decision that matches the current status still appends history: it is a
// real re-decision. The stored reason survives only while the section is
// rejected.
func (r *ClearanceRecord) ApplySection(section Section, status SectionStatus, approver, reason, entryID string, now time.Time) (before, after OverallStatus) {
	before = r.Overall

	state := SectionState{Status: status}
	if status == StatusRejected {
		state.Reason = reason
	}
	r.Sections[section] = state

	entry := HistoryEntry{
		ID:        entryID,
		Section:   section,
		Approver:  approver,
		Status:    status,
		Timestamp: now,
	}
	if status == StatusRejected {
		entry.Reason = reason
	}
	r.History = append(r.History, entry)

	r.Overall = ComputeOverall(r.Sections)
	r.UpdatedAt = now
	return before, r.Overall
}

// FilteredHistory returns the genuine staff decisions, newest first. Legacy
// placeholder rows are dropped.
func (r *ClearanceRecord) FilteredHistory() []HistoryEntry {
	out := make([]HistoryEntry, 0, len(r.History))
	for _, e := range r.History {
		if e.IsPlaceholder() {
			continue
		}
		out = append(out, e)
	}
	// History is appended in order; reversing yields newest first without a
	// timestamp sort that could reorder same-instant entries.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Clone returns a deep copy, so compare-and-set retries never mutate a
// record another goroutine may hold.
func (r *ClearanceRecord) Clone() *ClearanceRecord {
	cp := *r
	cp.Sections = make(map[Section]SectionState, len(r.Sections))
	for k, v := range r.Sections {
		cp.Sections[k] = v
	}
	cp.History = make([]HistoryEntry, len(r.History))
	copy(cp.History, r.History)
	return &cp
}
