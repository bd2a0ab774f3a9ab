package exports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	app "github.com/mark3748/helpdesk-sla/cmd/api/app"
	s3pkg "github.com/mark3748/helpdesk-sla/internal/s3"
	slapkg "github.com/mark3748/helpdesk-sla/internal/sla"
)

const scanLimit = 1000

// Breaches writes a CSV of currently breached tickets to the object store and
// returns a download URL.
func Breaches(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.M == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "object store not configured"})
			return
		}
		ctx := c.Request.Context()
		tickets, err := slapkg.LoadOpenTickets(ctx, a.DB, scanLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		now := time.Now()
		buf := &bytes.Buffer{}
		w := csv.NewWriter(buf)
		_ = w.Write([]string{"ticket_id", "status", "priority", "percent_consumed", "elapsed_ms", "due_date", "severity"})
		for _, t := range tickets {
			cfg, err := a.SLA.Resolve(ctx, slapkg.ResolutionKey{
				CompanyID:      t.CompanyID,
				DepartmentID:   t.DepartmentID,
				IncidentTypeID: t.IncidentTypeID,
				Priority:       t.Priority,
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if cfg == nil {
				continue
			}
			events, err := slapkg.LoadStatusHistory(ctx, a.DB, t.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
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
			if !res.Breached {
				continue
			}
			_ = w.Write([]string{
				t.ID,
				string(t.Status),
				t.Priority,
				strconv.FormatFloat(res.PercentConsumed, 'f', 2, 64),
				strconv.FormatInt(res.TimeElapsed.Milliseconds(), 10),
				res.DueDate.Format(time.RFC3339),
				string(res.Severity),
			})
		}
		w.Flush()
		objectKey := "sla-breaches-" + uuid.New().String() + ".csv"
		_, err = a.M.PutObject(ctx, a.Cfg.MinIOBucket, objectKey, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{ContentType: "text/csv"})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if mc, ok := a.M.(*minio.Client); ok {
			svc := s3pkg.Service{Client: mc, Bucket: a.Cfg.MinIOBucket, MaxTTL: time.Hour}
			url, err := svc.PresignGet(ctx, objectKey, objectKey, time.Minute)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": url})
			return
		}
		scheme := "http"
		if a.Cfg.MinIOUseSSL {
			scheme = "https"
		}
		url := fmt.Sprintf("%s://%s/%s/%s", scheme, a.Cfg.MinIOEndpoint, a.Cfg.MinIOBucket, objectKey)
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}
