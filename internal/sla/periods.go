package sla

import (
	"sort"
	"time"
)

// ChangeTypeStatus marks history rows that record a status transition. Rows
// with other change types (priority, assignment, ...) share the same stream
// and are skipped here.
const ChangeTypeStatus = "status"

// HistoryEvent is one row of a ticket's change history.
type HistoryEvent struct {
	ChangeType string    `json:"change_type"`
	OldStatus  Status    `json:"old_status"`
	NewStatus  Status    `json:"new_status"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusPeriod says the ticket held Status for the half-open interval
// [Start, End).
type StatusPeriod struct {
	Status Status
	Start  time.Time
	End    time.Time
}

// ReconstructPeriods rebuilds the contiguous sequence of status periods for a
// ticket from its creation instant, current status and raw change history.
//
// The first period starts at createdAt with the implicit initial status "new".
// For tickets whose current status is finished, the sequence ends at the last
// status change rather than now, so later evaluations never accrue time past
// the moment the ticket finished. A ticket with no status changes yields a
// single period spanning its whole lifetime.
func ReconstructPeriods(createdAt time.Time, current Status, events []HistoryEvent, now time.Time) []StatusPeriod {
	changes := make([]HistoryEvent, 0, len(events))
	for _, ev := range events {
		if ev.ChangeType == ChangeTypeStatus {
			changes = append(changes, ev)
		}
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].CreatedAt.Before(changes[j].CreatedAt)
	})

	if len(changes) == 0 {
		status := current
		if Classify(current) != ClassActive {
			// No transition was ever recorded, so the whole lifetime is
			// chargeable regardless of what the status row claims now.
			status = StatusNew
		}
		if now.After(createdAt) {
			return []StatusPeriod{{Status: status, Start: createdAt, End: now}}
		}
		return nil
	}

	finalBoundary := now
	if Classify(current) == ClassFinished {
		finalBoundary = changes[len(changes)-1].CreatedAt
	}

	periods := make([]StatusPeriod, 0, len(changes)+1)
	cursor := createdAt
	status := StatusNew
	for _, ev := range changes {
		if ev.CreatedAt.After(cursor) {
			periods = append(periods, StatusPeriod{Status: status, Start: cursor, End: ev.CreatedAt})
			cursor = ev.CreatedAt
		}
		status = ev.NewStatus
	}
	if cursor.Before(finalBoundary) {
		periods = append(periods, StatusPeriod{Status: status, Start: cursor, End: finalBoundary})
	}
	return periods
}
