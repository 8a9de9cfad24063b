package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nerrad567/bakery-api/internal/bakery"
	"github.com/nerrad567/bakery-api/internal/infrastructure/config"
	"github.com/nerrad567/bakery-api/internal/infrastructure/database"
	"github.com/nerrad567/bakery-api/internal/infrastructure/logging"
	_ "github.com/nerrad567/bakery-api/migrations"
)

var seededAt = time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)

func seedBakeries() []bakery.Bakery {
	return []bakery.Bakery{
		{ID: 1, Name: "Sweet Treats", CreatedAt: seededAt},
		{ID: 2, Name: "Crumbs & Co", CreatedAt: seededAt},
		{ID: 3, Name: "Empty Oven", CreatedAt: seededAt},
	}
}

func seedBakedGoods() []bakery.BakedGood {
	return []bakery.BakedGood{
		{ID: 1, Name: "Cookie", Price: bakery.MustPrice("2.50"), BakeryID: 1, CreatedAt: seededAt},
		{ID: 2, Name: "Cake", Price: bakery.MustPrice("15.00"), BakeryID: 1, CreatedAt: seededAt},
		{ID: 3, Name: "Baguette", Price: bakery.MustPrice("4.25"), BakeryID: 2, CreatedAt: seededAt},
		{ID: 4, Name: "Tart", Price: bakery.MustPrice("15"), BakeryID: 2, CreatedAt: seededAt},
		{ID: 5, Name: "Muffin", Price: bakery.MustPrice("3.00"), BakeryID: 2, CreatedAt: seededAt},
	}
}

// testServer builds a Server around repo with quiet logging.
func testServer(t *testing.T, repo bakery.Repository, health HealthChecker) *Server {
	t.Helper()

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Logger:  logging.Discard(),
		Repo:    repo,
		Health:  health,
		Version: "test",
	})
	require.NoError(t, err)
	return srv
}

// migratedRepo opens an in-memory SQLite store, applies the embedded
// migrations and inserts the seed rows.
func migratedRepo(t *testing.T) (*bakery.SQLiteRepository, *database.DB) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: ":memory:", BusyTimeout: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	for _, b := range seedBakeries() {
		_, err := db.ExecContext(ctx, "INSERT INTO bakeries (id, name, created_at) VALUES (?, ?, ?)",
			b.ID, b.Name, b.CreatedAt.Format(time.RFC3339))
		require.NoError(t, err)
	}
	for _, g := range seedBakedGoods() {
		_, err := db.ExecContext(ctx, "INSERT INTO baked_goods (id, name, price, bakery_id, created_at) VALUES (?, ?, ?, ?, ?)",
			g.ID, g.Name, g.Price.InexactFloat64(), g.BakeryID, g.CreatedAt.Format(time.RFC3339))
		require.NoError(t, err)
	}
	return bakery.NewSQLiteRepository(db.DB), db
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// failingRepo returns storeErr from every call.
type failingRepo struct{ storeErr error }

func (f failingRepo) ListBakeries(context.Context) ([]bakery.Bakery, error) { return nil, f.storeErr }
func (f failingRepo) GetBakery(context.Context, int64) (*bakery.BakeryDetail, error) {
	return nil, f.storeErr
}
func (f failingRepo) ListBakedGoodsByPrice(context.Context) ([]bakery.BakedGood, error) {
	return nil, f.storeErr
}
func (f failingRepo) GetMostExpensiveBakedGood(context.Context) (*bakery.BakedGood, error) {
	return nil, f.storeErr
}

// panicRepo panics on every call.
type panicRepo struct{ failingRepo }

func (panicRepo) ListBakeries(context.Context) ([]bakery.Bakery, error) { panic("boom") }

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{Repo: bakery.NewMemoryRepository(nil, nil)})
	assert.Error(t, err, "missing logger")

	_, err = New(Deps{Logger: logging.Discard()})
	assert.Error(t, err, "missing repository")
}

func TestIndex(t *testing.T) {
	h := testServer(t, bakery.NewMemoryRepository(nil, nil), nil).Handler()

	rec := do(t, h, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "Index for Bakery/BakedGood API", rec.Body.String())
}

// routeBackends exercises the handlers against both the SQL store and the
// in-memory one.
func routeBackends(t *testing.T) map[string]http.Handler {
	t.Helper()
	sqlRepo, _ := migratedRepo(t)
	return map[string]http.Handler{
		"sqlite": testServer(t, sqlRepo, nil).Handler(),
		"memory": testServer(t, bakery.NewMemoryRepository(seedBakeries(), seedBakedGoods()), nil).Handler(),
	}
}

func TestListBakeries(t *testing.T) {
	for name, h := range routeBackends(t) {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/bakeries")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var got []map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			require.Len(t, got, 3)
			for i, b := range got {
				assert.Equal(t, float64(i+1), b["id"])
				assert.NotContains(t, b, "baked_goods")
				assert.Equal(t, "2026-01-18T12:00:00Z", b["created_at"])
			}
		})
	}
}

func TestListBakeries_Empty(t *testing.T) {
	h := testServer(t, bakery.NewMemoryRepository(nil, nil), nil).Handler()

	rec := do(t, h, http.MethodGet, "/bakeries")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetBakery(t *testing.T) {
	for name, h := range routeBackends(t) {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/bakeries/1")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{
				"id": 1,
				"name": "Sweet Treats",
				"created_at": "2026-01-18T12:00:00Z",
				"updated_at": null,
				"baked_goods": [
					{"id": 1, "name": "Cookie", "price": 2.5, "bakery_id": 1, "created_at": "2026-01-18T12:00:00Z", "updated_at": null},
					{"id": 2, "name": "Cake", "price": 15, "bakery_id": 1, "created_at": "2026-01-18T12:00:00Z", "updated_at": null}
				]
			}`, rec.Body.String())

			rec = do(t, h, http.MethodGet, "/bakeries/3")
			require.Equal(t, http.StatusOK, rec.Code)
			var detail map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
			assert.Equal(t, []any{}, detail["baked_goods"])
		})
	}
}

func TestGetBakery_NotFound(t *testing.T) {
	for name, h := range routeBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, target := range []string{"/bakeries/999", "/bakeries/0", "/bakeries/99999999999999999999"} {
				rec := do(t, h, http.MethodGet, target)
				assert.Equal(t, http.StatusNotFound, rec.Code, target)
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), target)
				assert.JSONEq(t, `{"error": "Bakery not found"}`, rec.Body.String(), target)
			}
		})
	}
}

func TestGetBakery_NonIntegerID(t *testing.T) {
	h := testServer(t, bakery.NewMemoryRepository(seedBakeries(), nil), nil).Handler()

	for _, target := range []string{"/bakeries/abc", "/bakeries/-1", "/bakeries/1.5"} {
		rec := do(t, h, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.NotContains(t, rec.Body.String(), "Bakery not found", target)
	}
}

func TestBakedGoodsByPrice(t *testing.T) {
	for name, h := range routeBackends(t) {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/baked_goods/by_price")
			require.Equal(t, http.StatusOK, rec.Code)

			var got []bakery.BakedGood
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			require.Len(t, got, 5)

			var ids []int64
			for _, g := range got {
				ids = append(ids, g.ID)
			}
			assert.Equal(t, []int64{2, 4, 3, 5, 1}, ids)
		})
	}
}

func TestMostExpensive(t *testing.T) {
	for name, h := range routeBackends(t) {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/baked_goods/most_expensive")
			require.Equal(t, http.StatusOK, rec.Code)

			var top bakery.BakedGood
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))

			byPrice := do(t, h, http.MethodGet, "/baked_goods/by_price")
			var all []bakery.BakedGood
			require.NoError(t, json.Unmarshal(byPrice.Body.Bytes(), &all))
			require.NotEmpty(t, all)
			assert.Equal(t, all[0].ID, top.ID)
			assert.Equal(t, "Cake", top.Name)
		})
	}
}

func TestBakedGoods_EmptyStore(t *testing.T) {
	h := testServer(t, bakery.NewMemoryRepository(seedBakeries(), nil), nil).Handler()

	rec := do(t, h, http.MethodGet, "/baked_goods/by_price")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/baked_goods/most_expensive")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "No baked goods found"}`, rec.Body.String())
}

func TestStoreFailure(t *testing.T) {
	h := testServer(t, failingRepo{storeErr: errors.New("disk on fire")}, nil).Handler()

	for _, target := range []string{"/bakeries", "/bakeries/1", "/baked_goods/by_price", "/baked_goods/most_expensive"} {
		rec := do(t, h, http.MethodGet, target)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, target)
		assert.JSONEq(t, `{"error": "internal server error"}`, rec.Body.String(), target)
		assert.NotContains(t, rec.Body.String(), "disk on fire", target)
	}
}

func TestStoreFailure_ClosedDatabase(t *testing.T) {
	repo, db := migratedRepo(t)
	h := testServer(t, repo, db).Handler()
	require.NoError(t, db.Close())

	rec := do(t, h, http.MethodGet, "/bakeries")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := testServer(t, panicRepo{}, nil).Handler()

	rec := do(t, h, http.MethodGet, "/bakeries")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "internal server error"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	_, db := migratedRepo(t)
	h := testServer(t, bakery.NewMemoryRepository(nil, nil), db).Handler()

	rec := do(t, h, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok", "version": "test"}`, rec.Body.String())

	down := HealthCheckFunc(func(context.Context) error { return errors.New("unreachable") })
	h = testServer(t, bakery.NewMemoryRepository(nil, nil), down).Handler()
	rec = do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "unreachable")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	h := testServer(t, bakery.NewMemoryRepository(nil, nil), nil).Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/cakes").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/bakeries").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/baked_goods/most_expensive").Code)
}

func TestRequestID(t *testing.T) {
	h := testServer(t, bakery.NewMemoryRepository(nil, nil), nil).Handler()

	rec := do(t, h, http.MethodGet, "/bakeries")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/bakeries", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	srv, err := New(Deps{
		Config: config.APIConfig{CORS: config.CORSConfig{AllowedOrigins: []string{"https://shop.example"}}},
		Logger: logging.Discard(),
		Repo:   bakery.NewMemoryRepository(nil, nil),
	})
	require.NoError(t, err)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/bakeries", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/bakeries", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// recordingSpan keeps the attributes and status set on it.
type recordingSpan struct {
	trace.Span
	name   string
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	ended  bool
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}
func (s *recordingSpan) SetStatus(code codes.Code, _ string) { s.status = code }
func (s *recordingSpan) End(...trace.SpanEndOption)         { s.ended = true }

// recordingTracer hands out recordingSpans.
type recordingTracer struct {
	trace.Tracer
	mu    sync.Mutex
	spans []*recordingSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	span := &recordingSpan{
		Span:  noop.Span{},
		name:  name,
		attrs: make(map[attribute.Key]attribute.Value),
	}
	cfg := trace.NewSpanStartConfig(opts...)
	span.SetAttributes(cfg.Attributes()...)

	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()
	return trace.ContextWithSpan(ctx, span), span
}

type recordingProvider struct {
	trace.TracerProvider
	tracer *recordingTracer
}

func (p recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.tracer }

func tracedServer(t *testing.T, repo bakery.Repository, serviceName string) (http.Handler, *recordingTracer) {
	t.Helper()
	tracer := &recordingTracer{Tracer: noop.Tracer{}}
	srv, err := New(Deps{
		Tracing:        config.TracingConfig{Enabled: true, ServiceName: serviceName},
		TracerProvider: recordingProvider{TracerProvider: noop.NewTracerProvider(), tracer: tracer},
		Logger:         logging.Discard(),
		Repo:           repo,
	})
	require.NoError(t, err)
	return srv.Handler(), tracer
}

func TestTracingSpanAttributes(t *testing.T) {
	h, tracer := tracedServer(t, bakery.NewMemoryRepository(seedBakeries(), seedBakedGoods()), "bakery-api-eu")

	rec := do(t, h, http.MethodGet, "/bakeries/2")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, tracer.spans, 1)
	span := tracer.spans[0]
	assert.Equal(t, "http.request", span.name)
	assert.True(t, span.ended)
	assert.Equal(t, "bakery-api-eu", span.attrs["service.name"].AsString())
	assert.Equal(t, "/bakeries/{id:[0-9]+}", span.attrs["http.route"].AsString())
	assert.Equal(t, int64(http.StatusOK), span.attrs["http.status_code"].AsInt64())
	assert.Equal(t, codes.Unset, span.status)
}

func TestTracingMarksServerErrors(t *testing.T) {
	h, tracer := tracedServer(t, failingRepo{storeErr: errors.New("gone")}, "bakery-api")

	do(t, h, http.MethodGet, "/bakeries")
	require.Len(t, tracer.spans, 1)
	assert.Equal(t, codes.Error, tracer.spans[0].status)
}

func TestTracingDisabled(t *testing.T) {
	srv := testServer(t, bakery.NewMemoryRepository(nil, nil), nil)
	assert.Nil(t, srv.tracer)
}

func TestStoreFailureLogsComponentAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	srv, err := New(Deps{
		Logger: logging.NewTo(&buf, config.LoggingConfig{Level: "error"}, "test"),
		Repo:   failingRepo{storeErr: errors.New("disk on fire")},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/baked_goods/most_expensive", nil)
	req.Header.Set("X-Request-ID", "req-7")
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.SplitN(buf.String(), "\n", 2)[0]), &entry))
	assert.Equal(t, "store query failed", entry["msg"])
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Contains(t, entry["error"], "disk on fire")
}

func TestStartClose(t *testing.T) {
	srv := testServer(t, bakery.NewMemoryRepository(seedBakeries(), nil), nil)
	assert.NoError(t, srv.Close(), "Close before Start")
	assert.Error(t, srv.HealthCheck(context.Background()))

	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Close() })
	assert.NoError(t, srv.HealthCheck(context.Background()))

	resp, err := http.Get("http://" + srv.Addr() + "/bakeries")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJoinOrDefault(t *testing.T) {
	assert.Equal(t, "x", joinOrDefault(nil, "x"))
	assert.Equal(t, "a, b", joinOrDefault([]string{"a", "b"}, "x"))
}

func TestETag(t *testing.T) {
	h := testServer(t, bakery.NewMemoryRepository(seedBakeries(), seedBakedGoods()), nil).Handler()

	first := do(t, h, http.MethodGet, "/baked_goods/by_price")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.True(t, strings.HasPrefix(etag, `W/"`), "etag = %q", etag)

	again := do(t, h, http.MethodGet, "/baked_goods/by_price")
	assert.Equal(t, etag, again.Header().Get("ETag"))

	other := do(t, h, http.MethodGet, "/bakeries/1")
	assert.NotEqual(t, etag, other.Header().Get("ETag"))
}

func TestIfNoneMatchStillReturnsBody(t *testing.T) {
	h := testServer(t, bakery.NewMemoryRepository(seedBakeries(), seedBakedGoods()), nil).Handler()
	etag := do(t, h, http.MethodGet, "/bakeries").Header().Get("ETag")

	for _, header := range []string{etag, "*"} {
		req := httptest.NewRequest(http.MethodGet, "/bakeries", nil)
		req.Header.Set("If-None-Match", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, header)
		assert.Contains(t, rec.Body.String(), "Sweet Treats", header)
	}
}

func TestJSONDoesNotEscapeHTML(t *testing.T) {
	for name, h := range routeBackends(t) {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/bakeries/2")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"name":"Crumbs & Co"`)
			assert.NotContains(t, rec.Body.String(), `\u0026`)
		})
	}
}

func TestServerTimingHeader(t *testing.T) {
	h := testServer(t, bakery.NewMemoryRepository(seedBakeries(), nil), nil).Handler()

	rec := do(t, h, http.MethodGet, "/bakeries")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Server-Timing"), "store")
}
