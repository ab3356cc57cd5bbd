//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"

	"hotel_occupancy/internal/adapters/backend"
	httpserver "hotel_occupancy/internal/adapters/http_server"
	redisad "hotel_occupancy/internal/adapters/redis"
	"hotel_occupancy/internal/app"
	"hotel_occupancy/internal/domain"
	mysqlrepo "hotel_occupancy/internal/storage/mysql"
)

// ---------- helpers ----------

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hotel",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hotel?parseTime=true&multiStatements=true&loc=UTC",
		resource.GetPort("3306/tcp"))
	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := mysqlrepo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func call(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

// ---------- test ----------

func TestHTTP_EndToEnd_ImportThenBook(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	inv := domain.Inventory{
		"Standard": {Rooms: 2, BaseRate: decimal.NewFromInt(325)},
		"Suite":    {Rooms: 1, BaseRate: decimal.NewFromInt(900)},
	}
	if err := repo.SyncInventory(ctx, inv); err != nil {
		t.Fatalf("SyncInventory: %v", err)
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	// hosted backend stand-in
	rows := map[string][]map[string]any{
		"bookings": {
			{"id": "imp-1", "user_id": "u1", "check_in_date": "2025-06-01", "check_out_date": "2025-06-03", "status": "confirmed"},
			{"id": "imp-2", "user_id": "u2", "room_type": "Suite", "check_in_date": "2025-06-02", "check_out_date": "2025-06-04", "status": "checked_in"},
			{"id": "imp-bad", "user_id": "u3", "check_in_date": "2025-06-02"},
		},
		"orders": {
			{"id": 1, "created_at": "2025-06-01T12:00:00Z", "total_amount": 60, "status": "completed"},
		},
	}
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var res string
		if _, err := fmt.Sscanf(r.URL.Path, "/rest/v1/%s", &res); err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("offset") != "" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		out := rows[res]
		if out == nil {
			out = []map[string]any{}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(be.Close)

	client, err := backend.New(be.URL, "anon", 100)
	if err != nil {
		t.Fatalf("backend client: %v", err)
	}
	importer := app.NewImportService(client, repo, repo, repo, cache, 100, "Standard")
	stats, err := importer.ImportWindow(ctx, domain.DateRange{Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("ImportWindow: %v", err)
	}
	if stats.Bookings != 2 || stats.Orders != 1 || stats.Rejected != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	srv := httpserver.New(10 * time.Second)
	srv.MountHandlers(&httpserver.Handlers{
		Bookings: app.NewBookingService(repo, inv, cache),
		Reports:  app.NewReportService(repo, repo, inv, cache, 10*time.Minute),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)

	var occ struct {
		Days []struct {
			Date     string `json:"date"`
			Occupied int    `json:"occupied"`
		} `json:"days"`
	}
	if code := call(t, http.MethodGet, ts.URL+"/v1/occupancy?room_type=Suite&from=2025-06-01&to=2025-06-05", nil, &occ); code != http.StatusOK {
		t.Fatalf("occupancy status %d", code)
	}
	if len(occ.Days) != 4 || occ.Days[0].Occupied != 0 || occ.Days[1].Occupied != 1 || occ.Days[3].Occupied != 0 {
		t.Fatalf("unexpected occupancy: %+v", occ.Days)
	}

	// the imported checked-in guest holds the only suite
	var prob struct {
		IDs []string `json:"conflicting_booking_ids"`
	}
	code := call(t, http.MethodPost, ts.URL+"/v1/bookings", map[string]any{
		"guest_id": "walk-in", "room_type": "Suite", "status": "confirmed",
		"check_in": "2025-06-03", "check_out": "2025-06-05",
	}, &prob)
	if code != http.StatusConflict || len(prob.IDs) != 1 || prob.IDs[0] != "imp-2" {
		t.Fatalf("expected 409 against imp-2, got %d %+v", code, prob)
	}

	var created struct {
		ID string `json:"id"`
	}
	if code := call(t, http.MethodPost, ts.URL+"/v1/bookings", map[string]any{
		"guest_id": "walk-in", "room_type": "Suite", "status": "confirmed",
		"check_in": "2025-06-04", "check_out": "2025-06-06",
	}, &created); code != http.StatusCreated || created.ID == "" {
		t.Fatalf("create status %d", code)
	}
	if code := call(t, http.MethodPost, ts.URL+"/v1/bookings", map[string]any{
		"id": created.ID, "room_type": "Suite", "status": "pending",
		"check_in": "2025-09-01", "check_out": "2025-09-02",
	}, nil); code != http.StatusBadRequest {
		t.Fatalf("duplicate id: expected 400, got %d", code)
	}

	// cached report must reflect the write
	if code := call(t, http.MethodGet, ts.URL+"/v1/occupancy?room_type=Suite&from=2025-06-01&to=2025-06-05", nil, &occ); code != http.StatusOK {
		t.Fatalf("occupancy status %d", code)
	}
	if occ.Days[3].Occupied != 1 {
		t.Fatalf("expected new booking on 2025-06-04, got %+v", occ.Days)
	}

	var kpi struct {
		Days []struct {
			Date     string `json:"date"`
			Revenue  string `json:"revenue"`
			CheckIns int    `json:"check_ins"`
		} `json:"days"`
		Summary struct {
			CheckIns int `json:"check_ins"`
		} `json:"summary"`
	}
	if code := call(t, http.MethodGet, ts.URL+"/v1/kpis?from=2025-06-01&to=2025-06-08", nil, &kpi); code != http.StatusOK {
		t.Fatalf("kpis status %d", code)
	}
	if kpi.Days[0].Revenue != "60" || kpi.Days[0].CheckIns != 1 || kpi.Summary.CheckIns != 3 {
		t.Fatalf("unexpected kpis: %+v", kpi)
	}
}
