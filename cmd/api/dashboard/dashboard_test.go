package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
	slapkg "github.com/mark3748/helpdesk-sla/internal/sla"
)

type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool                                   { return r.i < len(r.data) }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i]
	r.i++
	for i := range dest {
		switch d := dest[i].(type) {
		case *string:
			*d = row[i].(string)
		case *time.Time:
			*d = row[i].(time.Time)
		case *slapkg.Status:
			*d = slapkg.Status(row[i].(string))
		case **time.Time:
			if row[i] != nil {
				ts := row[i].(time.Time)
				*d = &ts
			}
		}
	}
	return nil
}

type fakeDB struct{ tickets [][]any }

func (db *fakeDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	if strings.Contains(sql, "from tickets") {
		return &fakeRows{data: db.tickets}, nil
	}
	return &fakeRows{}, nil
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return nil
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

type fakeStore struct{ cfg *slapkg.Config }

func (s fakeStore) SpecificConfig(ctx context.Context, company, department, incidentType, priority string) (*slapkg.Config, error) {
	if s.cfg == nil {
		return nil, nil
	}
	c := *s.cfg
	return &c, nil
}

func (s fakeStore) DepartmentDefault(ctx context.Context, company, department, incidentType string) (*slapkg.Config, error) {
	return nil, nil
}

func (s fakeStore) CompanyDefault(ctx context.Context, company, priority string) (*slapkg.Config, error) {
	return nil, nil
}

func TestSLAOverview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// One long-breached ticket and one unconfigured-looking ticket sharing a
	// config key so both resolve; breach comes from the two week old ticket.
	db := &fakeDB{tickets: [][]any{
		{"t-1", time.Now().AddDate(0, 0, -14), "ongoing", nil, "high", "c1", "d1", "i1"},
		{"t-2", time.Now(), "new", nil, "high", "c1", "d1", "i1"},
	}}
	resolver := slapkg.NewResolver(fakeStore{cfg: &slapkg.Config{ConfigID: "cfg-1", ResponseHours: 1, ResolutionHours: 4}})
	a := apppkg.NewApp(apppkg.Config{Env: "test"}, db, nil, nil, resolver)
	a.R.GET("/dashboard/sla", SLA(a))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/sla", nil)
	a.R.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var out Overview
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 2 || out.Unconfigured != 0 {
		t.Fatalf("unexpected totals %+v", out)
	}
	if out.Breached != 1 {
		t.Fatalf("expected 1 breach, got %d", out.Breached)
	}
}

func TestSLAOverviewUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := &fakeDB{tickets: [][]any{
		{"t-1", time.Now(), "ongoing", nil, "high", "c1", "d1", "i1"},
	}}
	resolver := slapkg.NewResolver(fakeStore{})
	a := apppkg.NewApp(apppkg.Config{Env: "test"}, db, nil, nil, resolver)
	a.R.GET("/dashboard/sla", SLA(a))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/sla", nil)
	a.R.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var out Overview
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || out.Unconfigured != 1 {
		t.Fatalf("unexpected overview %+v", out)
	}
}
