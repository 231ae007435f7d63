package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/metrics"
	"github.com/iliyamo/movie-catalog/internal/session"
	"github.com/iliyamo/movie-catalog/internal/utils"
)

const secret = "test-secret"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(e *echo.Echo, method, target string, mod func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if mod != nil {
		mod(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireLogin(t *testing.T) {
	store := session.NewMemoryStore()
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		uid, _ := UserID(c)
		return c.String(http.StatusOK, strconv.FormatUint(uid, 10)+" "+c.Get(CtxSessionID).(string))
	}, RequireLogin(secret, store))

	tok, err := utils.NewSessionToken(secret, 7, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	bearer := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok.Token) }

	if rec := serve(e, http.MethodGet, "/me", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/me", bearer); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unregistered session: %d", rec.Code)
	}

	if err := store.Put(context.Background(), tok.ID, 7, time.Hour); err != nil {
		t.Fatal(err)
	}
	rec := serve(e, http.MethodGet, "/me", bearer)
	if rec.Code != http.StatusOK || rec.Body.String() != "7 "+tok.ID {
		t.Fatalf("bearer: %d %q", rec.Code, rec.Body.String())
	}

	rec = serve(e, http.MethodGet, "/me", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok.Token})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie: %d", rec.Code)
	}

	forged, _ := utils.NewSessionToken("other-secret", 7, time.Hour)
	rec = serve(e, http.MethodGet, "/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+forged.Token) })
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged token: %d", rec.Code)
	}

	_ = store.Delete(context.Background(), tok.ID)
	if rec := serve(e, http.MethodGet, "/me", bearer); rec.Code != http.StatusUnauthorized {
		t.Fatalf("revoked session: %d", rec.Code)
	}
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestTokenBucketInMemory(t *testing.T) {
	m := metrics.New()
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		KeyStrategy: "ip", Prefix: "rl", InMemoryFallback: true,
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, secret, nil, m))
	e.GET("/", okHandler)

	for i := 0; i < 2; i++ {
		if rec := serve(e, http.MethodGet, "/", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	rec := serve(e, http.MethodGet, "/", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if got := testutil.ToFloat64(m.RateLimited); got != 1 {
		t.Fatalf("rate_limited = %v", got)
	}

	other := serve(e, http.MethodGet, "/", func(r *http.Request) { r.RemoteAddr = "10.0.0.9:1234" })
	if other.Code != http.StatusOK {
		t.Fatalf("other client limited: %d", other.Code)
	}
}

func TestTokenBucketRedis(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour,
		KeyStrategy: "ip", Prefix: "rl",
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, secret, rdb, nil))
	e.GET("/", okHandler)

	if rec := serve(e, http.MethodGet, "/", nil); rec.Code != http.StatusOK {
		t.Fatalf("first: %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/", nil); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second: %d", rec.Code)
	}
}

func TestTokenBucketUserStrategySeparatesUsers(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour,
		KeyStrategy: "user", Prefix: "rl", InMemoryFallback: true, Debug: true,
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, secret, nil, nil))
	e.GET("/", okHandler)

	as := func(uid uint64) func(*http.Request) {
		tok, err := utils.NewSessionToken(secret, uid, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok.Token) }
	}
	alice, bob := as(1), as(2)

	rec := serve(e, http.MethodGet, "/", alice)
	if rec.Code != http.StatusOK || rec.Header().Get("X-RateLimit-Key") != "rl:user:1" {
		t.Fatalf("alice: %d key=%q", rec.Code, rec.Header().Get("X-RateLimit-Key"))
	}
	if rec := serve(e, http.MethodGet, "/", alice); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("alice again: %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/", bob); rec.Code != http.StatusOK {
		t.Fatalf("bob shares alice's bucket: %d", rec.Code)
	}

	forged, _ := utils.NewSessionToken("other-secret", 3, time.Hour)
	rec = serve(e, http.MethodGet, "/", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+forged.Token) })
	if rec.Header().Get("X-RateLimit-Key") != "rl:user:anon" {
		t.Fatalf("forged token keyed as %q", rec.Header().Get("X-RateLimit-Key"))
	}
}

func TestTokenBucketDisabled(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: false, Capacity: 1}, secret, nil, nil))
	e.GET("/", okHandler)
	for i := 0; i < 3; i++ {
		if rec := serve(e, http.MethodGet, "/", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
}

func TestRedisCacheHitAndInvalidate(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled: true, Methods: map[string]bool{"GET": true}, Paths: []string{"/movies"},
		TTL: time.Minute, Prefix: "cache", KeyStrategy: "route_query", MaxBodyBytes: 1 << 20,
	}
	m := metrics.New()
	calls := 0
	e := echo.New()
	e.Use(NewRedisCache(cfg, rdb, m))
	e.GET("/movies", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	})
	e.POST("/movies", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.POST("/fail", func(c echo.Context) error { return c.NoContent(http.StatusBadRequest) })
	e.GET("/other", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "x")
	})

	first := serve(e, http.MethodGet, "/movies?page=1&genre=a", nil)
	second := serve(e, http.MethodGet, "/movies?genre=a&page=1", nil)
	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("cache headers: %q then %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if first.Body.String() != second.Body.String() || calls != 1 {
		t.Fatalf("cached body differs or handler re-ran: calls=%d", calls)
	}

	serve(e, http.MethodPost, "/fail", nil)
	if rec := serve(e, http.MethodGet, "/movies?page=1&genre=a", nil); rec.Header().Get("X-Cache") != "HIT" {
		t.Fatal("failed mutation should not invalidate")
	}

	serve(e, http.MethodPost, "/movies", nil)
	if rec := serve(e, http.MethodGet, "/movies?page=1&genre=a", nil); rec.Header().Get("X-Cache") != "MISS" || calls != 2 {
		t.Fatalf("mutation did not invalidate: %q calls=%d", rec.Header().Get("X-Cache"), calls)
	}

	serve(e, http.MethodGet, "/other", nil)
	serve(e, http.MethodGet, "/other", nil)
	if calls != 4 {
		t.Fatalf("paths outside the cache prefixes were cached: calls=%d", calls)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")); got != 2 {
		t.Fatalf("hits = %v", got)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(201, hdr, []byte(`{"a":1}`))
	if err != nil {
		t.Fatal(err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != 201 || got.Get("Content-Type") != "application/json" || string(body) != `{"a":1}` {
		t.Fatalf("decode: %v %d %v %q", ok, status, got, body)
	}
	if _, _, _, ok := decodePayload([]byte{1, 2}); ok {
		t.Fatal("short payload should not decode")
	}
}
