package sla

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// Severity buckets a ticket by how much of its SLA budget is gone.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityBreached Severity = "breached"
)

const (
	warningPercent  = 75
	criticalPercent = 90
)

// Result is the outcome of evaluating one ticket against one SLA duration.
// It is derived on demand and never persisted.
type Result struct {
	TimeElapsed     time.Duration `json:"time_elapsed"`
	TimeRemaining   time.Duration `json:"time_remaining"`
	PercentConsumed float64       `json:"percent_consumed"`
	Breached        bool          `json:"breached"`
	DueDate         time.Time     `json:"due_date"`
	Severity        Severity      `json:"severity"`
	Paused          bool          `json:"paused"`
}

// EvalInput carries everything Evaluate needs; all fields are plain data
// already fetched by the caller.
type EvalInput struct {
	CreatedAt  time.Time
	Status     Status
	ResolvedAt *time.Time
	Periods    []StatusPeriod
	SLAHours   float64
	Now        time.Time
}

// Evaluate computes the chargeable business time a ticket has consumed against
// an SLA budget of in.SLAHours, along with the derived deadline fields.
//
// For finished tickets the end boundary is ResolvedAt when set, otherwise the
// end of the last reconstructed period; two evaluations of a finished ticket
// at different wall-clock instants return identical results. Only periods in
// active statuses accrue time, so paused stretches are excluded and a reopened
// ticket does not pay for the time it spent closed.
func Evaluate(cal Calendar, in EvalInput) Result {
	resolved := in.ResolvedAt != nil || Classify(in.Status) == ClassFinished
	end := in.Now
	if resolved {
		switch {
		case in.ResolvedAt != nil:
			end = *in.ResolvedAt
		case len(in.Periods) > 0:
			end = in.Periods[len(in.Periods)-1].End
		}
	}

	var elapsed time.Duration
	if len(in.Periods) == 0 {
		elapsed = cal.BusinessDuration(in.CreatedAt, end)
	} else {
		for _, p := range in.Periods {
			if !p.Start.Before(end) {
				break
			}
			if Classify(p.Status) != ClassActive {
				continue
			}
			elapsed += cal.BusinessDuration(p.Start, minTime(p.End, end))
		}
		if last := in.Periods[len(in.Periods)-1]; Classify(last.Status) == ClassActive && last.End.Before(end) {
			elapsed += cal.BusinessDuration(last.End, end)
		}
	}

	budget := time.Duration(in.SLAHours * float64(time.Hour))
	remaining := budget - elapsed
	if remaining < 0 {
		remaining = 0
	}
	percent := 100.0
	if budget > 0 {
		percent = float64(elapsed) / float64(budget) * 100
		percent = math.Round(percent*100) / 100
		if percent > 100 {
			percent = 100
		}
	}
	breached := elapsed > budget

	res := Result{
		TimeElapsed:     elapsed,
		TimeRemaining:   remaining,
		PercentConsumed: percent,
		Breached:        breached,
		DueDate:         cal.AddBusinessDuration(in.CreatedAt, budget),
		Severity:        severity(breached, percent),
		Paused:          !resolved && Classify(in.Status) == ClassPaused,
	}
	log.Debug().
		Time("created_at", in.CreatedAt).
		Str("status", string(in.Status)).
		Float64("sla_hours", in.SLAHours).
		Dur("elapsed", res.TimeElapsed).
		Bool("breached", res.Breached).
		Str("severity", string(res.Severity)).
		Msg("sla evaluated")
	return res
}

func severity(breached bool, percent float64) Severity {
	switch {
	case breached:
		return SeverityBreached
	case percent >= criticalPercent:
		return SeverityCritical
	case percent >= warningPercent:
		return SeverityWarning
	default:
		return SeverityOK
	}
}
