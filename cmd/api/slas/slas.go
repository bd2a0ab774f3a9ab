package slas

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
	metricspkg "github.com/mark3748/helpdesk-sla/cmd/api/metrics"
	slapkg "github.com/mark3748/helpdesk-sla/internal/sla"
)

// ResultDTO is the wire shape of an evaluated SLA clock; durations are
// reported in milliseconds for dashboard consumers.
type ResultDTO struct {
	TimeElapsedMS   int64     `json:"time_elapsed_ms"`
	TimeRemainingMS int64     `json:"time_remaining_ms"`
	PercentConsumed float64   `json:"percent_consumed"`
	Breached        bool      `json:"breached"`
	DueDate         time.Time `json:"due_date"`
	Severity        string    `json:"severity"`
	Paused          bool      `json:"paused"`
}

func toDTO(r slapkg.Result) ResultDTO {
	return ResultDTO{
		TimeElapsedMS:   r.TimeElapsed.Milliseconds(),
		TimeRemainingMS: r.TimeRemaining.Milliseconds(),
		PercentConsumed: r.PercentConsumed,
		Breached:        r.Breached,
		DueDate:         r.DueDate,
		Severity:        string(r.Severity),
		Paused:          r.Paused,
	}
}

// TicketSLA evaluates both SLA clocks for one ticket.
func TicketSLA(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		t, err := slapkg.LoadTicketSnapshot(ctx, a.DB, c.Param("id"))
		if err != nil {
			apppkg.AbortError(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
			return
		}
		if t == nil {
			apppkg.AbortError(c, http.StatusNotFound, "not_found", "ticket not found", nil)
			return
		}
		events, err := slapkg.LoadStatusHistory(ctx, a.DB, t.ID)
		if err != nil {
			apppkg.AbortError(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
			return
		}
		cfg, err := a.SLA.Resolve(ctx, slapkg.ResolutionKey{
			CompanyID:      t.CompanyID,
			DepartmentID:   t.DepartmentID,
			IncidentTypeID: t.IncidentTypeID,
			Priority:       t.Priority,
		})
		if err != nil {
			apppkg.AbortError(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
			return
		}
		if cfg == nil {
			// No SLA configured at any level; never substitute a default.
			c.JSON(http.StatusOK, gin.H{"ticket_id": t.ID, "configured": false})
			return
		}
		now := time.Now()
		periods := slapkg.ReconstructPeriods(t.CreatedAt, t.Status, events, now)
		response := slapkg.Evaluate(a.Cal, slapkg.EvalInput{
			CreatedAt:  t.CreatedAt,
			Status:     t.Status,
			ResolvedAt: t.ResolvedAt,
			Periods:    periods,
			SLAHours:   cfg.ResponseHours,
			Now:        now,
		})
		resolution := slapkg.Evaluate(a.Cal, slapkg.EvalInput{
			CreatedAt:  t.CreatedAt,
			Status:     t.Status,
			ResolvedAt: t.ResolvedAt,
			Periods:    periods,
			SLAHours:   cfg.ResolutionHours,
			Now:        now,
		})
		metricspkg.ObserveEvaluation(resolution.Breached)
		c.JSON(http.StatusOK, gin.H{
			"ticket_id":  t.ID,
			"configured": true,
			"config":     cfg,
			"response":   toDTO(response),
			"resolution": toDTO(resolution),
		})
	}
}

// resolveReq mirrors the JSON body for resolving an SLA configuration.
type resolveReq struct {
	CompanyID      string `json:"company_id" binding:"required"`
	DepartmentID   string `json:"department_id"`
	IncidentTypeID string `json:"incident_type_id"`
	Priority       string `json:"priority" binding:"required"`
}

// Resolve returns the SLA configuration applying to a resolution context.
func Resolve(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in resolveReq
		if err := c.ShouldBindJSON(&in); err != nil {
			errs := map[string]string{}
			if ve, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range ve {
					errs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			apppkg.AbortError(c, http.StatusBadRequest, "invalid_request", "invalid body", errs)
			return
		}
		cfg, err := a.SLA.Resolve(c.Request.Context(), slapkg.ResolutionKey{
			CompanyID:      in.CompanyID,
			DepartmentID:   in.DepartmentID,
			IncidentTypeID: in.IncidentTypeID,
			Priority:       in.Priority,
		})
		if err != nil {
			apppkg.AbortError(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
			return
		}
		if cfg == nil {
			c.JSON(http.StatusOK, gin.H{"configured": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"configured": true, "config": cfg})
	}
}

// CompanyDefault is one row of a company's per-priority duration table.
type CompanyDefault struct {
	ID              string  `json:"id"`
	CompanyID       string  `json:"company_id"`
	Priority        string  `json:"priority"`
	ResponseHours   float64 `json:"response_hours"`
	ResolutionHours float64 `json:"resolution_hours"`
}

// List returns the company-level default durations.
func List(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.DB == nil {
			c.JSON(http.StatusOK, []CompanyDefault{})
			return
		}
		rows, err := a.DB.Query(c.Request.Context(),
			`select id::text, company_id::text, priority, response_hours, resolution_hours
  from sla_company_defaults order by company_id, priority`)
		if err != nil {
			apppkg.AbortError(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
			return
		}
		defer rows.Close()
		out := []CompanyDefault{}
		for rows.Next() {
			var d CompanyDefault
			if err := rows.Scan(&d.ID, &d.CompanyID, &d.Priority, &d.ResponseHours, &d.ResolutionHours); err != nil {
				apppkg.AbortError(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
				return
			}
			out = append(out, d)
		}
		c.JSON(http.StatusOK, out)
	}
}

// CachePurge drops expired resolver cache entries.
func CachePurge(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"purged": a.SLA.Purge()})
	}
}

// CachePreload re-resolves the most-accessed cache keys.
func CachePreload(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Limit int `json:"limit"`
		}
		_ = c.ShouldBindJSON(&in)
		if in.Limit <= 0 {
			in.Limit = 20
		}
		n, err := a.SLA.Preload(c.Request.Context(), in.Limit)
		if err != nil {
			apppkg.AbortError(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"preloaded": n})
	}
}
