package dashboard

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
	slapkg "github.com/mark3748/helpdesk-sla/internal/sla"
)

// Overview aggregates SLA state across open tickets for the dashboard.
type Overview struct {
	Total        int            `json:"total"`
	Unconfigured int            `json:"unconfigured"`
	Breached     int            `json:"breached"`
	Paused       int            `json:"paused"`
	BySeverity   map[string]int `json:"by_severity"`
	AvgPercent   float64        `json:"avg_percent_consumed"`
}

const scanLimit = 500

// SLA returns breach counts and severity distribution over open tickets.
func SLA(a *apppkg.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := scanLimit
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= scanLimit {
				limit = n
			}
		}
		if a.DB == nil {
			c.JSON(http.StatusOK, Overview{BySeverity: map[string]int{}})
			return
		}
		ctx := c.Request.Context()
		tickets, err := slapkg.LoadOpenTickets(ctx, a.DB, limit)
		if err != nil {
			apppkg.AbortError(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
			return
		}
		now := time.Now()
		out := Overview{BySeverity: map[string]int{}}
		sum := 0.0
		evaluated := 0
		for _, t := range tickets {
			out.Total++
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
				out.Unconfigured++
				continue
			}
			events, err := slapkg.LoadStatusHistory(ctx, a.DB, t.ID)
			if err != nil {
				apppkg.AbortError(c, http.StatusInternalServerError, "storage_error", err.Error(), nil)
				return
			}
			periods := slapkg.ReconstructPeriods(t.CreatedAt, t.Status, events, now)
			res := slapkg.Evaluate(a.Cal, slapkg.EvalInput{
				CreatedAt:  t.CreatedAt,
				Status:     t.Status,
				ResolvedAt: t.ResolvedAt,
				Periods:    periods,
				SLAHours:   cfg.ResolutionHours,
				Now:        now,
			})
			evaluated++
			sum += res.PercentConsumed
			out.BySeverity[string(res.Severity)]++
			if res.Breached {
				out.Breached++
			}
			if res.Paused {
				out.Paused++
			}
		}
		if evaluated > 0 {
			out.AvgPercent = math.Round(sum/float64(evaluated)*100) / 100
		}
		c.JSON(http.StatusOK, out)
	}
}
