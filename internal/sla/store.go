package sla

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// DB is the subset of a pgx pool used by this package, narrowed so tests can
// substitute fake rows.
type DB interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TicketSnapshot is the slice of a ticket row the engine needs.
type TicketSnapshot struct {
	ID             string     `json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	Status         Status     `json:"status"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	Priority       string     `json:"priority"`
	CompanyID      string     `json:"company_id"`
	DepartmentID   string     `json:"department_id"`
	IncidentTypeID string     `json:"incident_type_id"`
}

// LoadTicketSnapshot fetches the fields needed to evaluate one ticket.
func LoadTicketSnapshot(ctx context.Context, db DB, id string) (*TicketSnapshot, error) {
	const q = `select id::text, created_at, status, resolved_at, priority,
       company_id::text, department_id::text, incident_type_id::text
  from tickets where id=$1`
	var t TicketSnapshot
	err := db.QueryRow(ctx, q, id).Scan(&t.ID, &t.CreatedAt, &t.Status, &t.ResolvedAt,
		&t.Priority, &t.CompanyID, &t.DepartmentID, &t.IncidentTypeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadStatusHistory returns a ticket's change history ordered oldest first.
// All change types are returned; the reconstructor filters.
func LoadStatusHistory(ctx context.Context, db DB, ticketID string) ([]HistoryEvent, error) {
	const q = `select change_type, coalesce(old_status,''), coalesce(new_status,''), created_at
  from ticket_status_history where ticket_id=$1 order by created_at asc`
	rows, err := db.Query(ctx, q, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []HistoryEvent{}
	for rows.Next() {
		var ev HistoryEvent
		var oldS, newS string
		if err := rows.Scan(&ev.ChangeType, &oldS, &newS, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.OldStatus = Status(oldS)
		ev.NewStatus = Status(newS)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// LoadOpenTickets returns tickets whose status has not reached a finished
// state, oldest first. Used by dashboard aggregation and the breach scanner.
func LoadOpenTickets(ctx context.Context, db DB, limit int) ([]TicketSnapshot, error) {
	const q = `select id::text, created_at, status, resolved_at, priority,
       company_id::text, department_id::text, incident_type_id::text
  from tickets where status not in ($1, $2) order by created_at asc limit $3`
	rows, err := db.Query(ctx, q, string(StatusResolved), string(StatusClosed), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TicketSnapshot{}
	for rows.Next() {
		var t TicketSnapshot
		if err := rows.Scan(&t.ID, &t.CreatedAt, &t.Status, &t.ResolvedAt,
			&t.Priority, &t.CompanyID, &t.DepartmentID, &t.IncidentTypeID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// PGConfigStore implements ConfigStore against the layered configuration
// tables.
type PGConfigStore struct {
	DB DB
}

func (s *PGConfigStore) SpecificConfig(ctx context.Context, company, department, incidentType, priority string) (*Config, error) {
	const q = `select id::text, response_hours, resolution_hours
  from sla_configs
 where company_id=$1 and department_id=$2 and incident_type_id=$3 and priority=$4`
	return s.scanConfig(s.DB.QueryRow(ctx, q, company, department, incidentType, priority))
}

func (s *PGConfigStore) DepartmentDefault(ctx context.Context, company, department, incidentType string) (*Config, error) {
	const q = `select id::text, response_hours, resolution_hours
  from sla_department_defaults
 where company_id=$1 and department_id=$2 and incident_type_id=$3`
	return s.scanConfig(s.DB.QueryRow(ctx, q, company, department, incidentType))
}

func (s *PGConfigStore) CompanyDefault(ctx context.Context, company, priority string) (*Config, error) {
	const q = `select id::text, response_hours, resolution_hours
  from sla_company_defaults
 where company_id=$1 and priority=$2`
	return s.scanConfig(s.DB.QueryRow(ctx, q, company, priority))
}

func (s *PGConfigStore) scanConfig(row pgx.Row) (*Config, error) {
	var cfg Config
	err := row.Scan(&cfg.ConfigID, &cfg.ResponseHours, &cfg.ResolutionHours)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
