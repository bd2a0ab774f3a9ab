package sla

// Status is a ticket status as recorded by the ticket system.
type Status string

const (
	StatusNew             Status = "new"
	StatusOngoing         Status = "ongoing"
	StatusInAnalysis      Status = "in_analysis"
	StatusReopened        Status = "reopened"
	StatusWaitingCustomer Status = "waiting_customer"
	StatusEscalated       Status = "escalated"
	StatusResolved        Status = "resolved"
	StatusClosed          Status = "closed"
)

// Class partitions statuses by their effect on the SLA clock.
type Class int

const (
	// ClassActive statuses accrue business time against the SLA.
	ClassActive Class = iota
	// ClassPaused statuses suspend accrual without finishing the ticket.
	ClassPaused
	// ClassFinished statuses stop the SLA permanently.
	ClassFinished
)

// Classify maps a status onto its SLA class. Unknown statuses classify as
// Active: an unrecognized status must keep counting against the SLA rather
// than silently pausing it.
func Classify(s Status) Class {
	switch s {
	case StatusWaitingCustomer, StatusEscalated:
		return ClassPaused
	case StatusResolved, StatusClosed:
		return ClassFinished
	default:
		return ClassActive
	}
}
