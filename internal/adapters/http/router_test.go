package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/partner-portal/internal/adapters/memory"
	"github.com/viralforge/partner-portal/internal/application"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func newTestServer(t *testing.T, opts RouterOptions) *httptest.Server {
	t.Helper()
	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Config:        application.Config{ServiceName: "partner-portal", DefaultCurrency: "INR", DepreciationFactor: 0.5},
		Partners:      repos.Partners,
		Leads:         repos.Leads,
		Kits:          repos.Kits,
		Sales:         repos.Sales,
		Slabs:         repos.Slabs,
		Payouts:       repos.Payouts,
		Tickets:       repos.Tickets,
		Replies:       repos.Replies,
		Notifications: repos.Notifications,
		Outbox:        repos.Outbox,
		EventDedup:    repos.EventDedup,
		Idempotency:   repos.Idempotency,
		Cache:         memory.NewCache(),
		Clock:         func() time.Time { return testNow },
	})
	srv := httptest.NewServer(NewRouter(NewHandler(svc), opts))
	t.Cleanup(srv.Close)
	return srv
}

type caller struct {
	token     string
	role      string
	partnerID string
}

func do(t *testing.T, srv *httptest.Server, c caller, method, path string, body any, idemKey string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.role != "" {
		req.Header.Set("X-Actor-Role", c.role)
	}
	if c.partnerID != "" {
		req.Header.Set("X-Partner-ID", c.partnerID)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	status, env := do(t, srv, caller{}, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadinessReflectsStore(t *testing.T) {
	srv := newTestServer(t, RouterOptions{Readiness: failingPinger{}})
	status, env := do(t, srv, caller{}, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "NOT_READY", env.Code)

	ok := newTestServer(t, RouterOptions{Readiness: memory.NewRepositories()})
	status, _ = do(t, ok, caller{}, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestMissingBearerIsUnauthorized(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	status, env := do(t, srv, caller{}, http.MethodGet, "/v1/kits", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestSaleFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	admin := caller{token: "admin-1", role: "admin"}

	status, env := do(t, srv, admin, http.MethodPost, "/v1/partners", map[string]any{"name": "Acme Retail", "email": "ops@acme.test"}, "")
	require.Equal(t, http.StatusCreated, status, env.Message)
	partner := decodeData[map[string]any](t, env)
	partnerID := partner["partner_id"].(string)

	status, env = do(t, srv, admin, http.MethodPost, "/v1/kits", map[string]any{"sku": "KIT-01", "name": "Starter", "unit_price": 1000, "quantity": 5}, "")
	require.Equal(t, http.StatusCreated, status, env.Message)
	kitID := decodeData[map[string]any](t, env)["kit_id"].(string)

	status, env = do(t, srv, admin, http.MethodPost, "/v1/commission/slabs", map[string]any{"name": "Base", "min_sales": 0, "max_sales": 0, "rate_percent": 10}, "")
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = do(t, srv, admin, http.MethodPost, "/v1/kits/distributions", map[string]any{"kit_id": kitID, "partner_id": partnerID, "quantity": 2}, "")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "IDEMPOTENCY_KEY_REQUIRED", env.Code)

	status, env = do(t, srv, admin, http.MethodPost, "/v1/kits/distributions", map[string]any{"kit_id": kitID, "partner_id": partnerID, "quantity": 2}, "dist-1")
	require.Equal(t, http.StatusCreated, status, env.Message)

	seller := caller{token: "seller-1", role: "partner", partnerID: partnerID}
	sale := map[string]any{"kit_id": kitID, "amount": 1000}
	status, env = do(t, srv, seller, http.MethodPost, "/v1/sales", sale, "sale-1")
	require.Equal(t, http.StatusCreated, status, env.Message)
	first := decodeData[map[string]any](t, env)

	status, env = do(t, srv, seller, http.MethodPost, "/v1/sales", sale, "sale-1")
	require.Equal(t, http.StatusCreated, status, env.Message)
	assert.Equal(t, first["sale_id"], decodeData[map[string]any](t, env)["sale_id"])

	status, env = do(t, srv, seller, http.MethodGet, "/v1/partners/"+partnerID+"/stock", nil, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	stock := decodeData[[]map[string]any](t, env)
	require.Len(t, stock, 1)
	assert.EqualValues(t, 1, stock[0]["quantity"])

	status, env = do(t, srv, seller, http.MethodGet, "/v1/partners/"+partnerID+"/statement?from=2026-03&to=2026-03", nil, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	stmt := decodeData[map[string]any](t, env)
	assert.EqualValues(t, 100, stmt["grand_total"])

	other := caller{token: "seller-2", role: "partner", partnerID: "00000000-0000-0000-0000-000000000001"}
	status, _ = do(t, srv, other, http.MethodGet, "/v1/partners/"+partnerID, nil, "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	srv := newTestServer(t, RouterOptions{Limiter: NewRateLimiter(0.001, 1)})
	admin := caller{token: "admin-1", role: "admin"}

	status, _ := do(t, srv, admin, http.MethodGet, "/v1/kits", nil, "")
	require.Equal(t, http.StatusOK, status)
	status, env := do(t, srv, admin, http.MethodGet, "/v1/kits", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", env.Code)

	other := caller{token: "admin-2", role: "admin"}
	status, _ = do(t, srv, other, http.MethodGet, "/v1/kits", nil, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestJWTAuthentication(t *testing.T) {
	secret := "test-secret"
	srv := newTestServer(t, RouterOptions{Auth: NewAuthenticator(secret)})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, portalClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-9",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	status, env := do(t, srv, caller{token: signed}, http.MethodGet, "/v1/kits", nil, "")
	assert.Equal(t, http.StatusOK, status, env.Message)

	forged, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	status, _ = do(t, srv, caller{token: forged}, http.MethodGet, "/v1/kits", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, srv, caller{token: "not-a-jwt", role: "admin"}, http.MethodGet, "/v1/kits", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestJWTClaimsOverrideActorHeaders(t *testing.T) {
	secret := "test-secret"
	srv := newTestServer(t, RouterOptions{Auth: NewAuthenticator(secret)})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, portalClaims{
		Role: "partner",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "partner-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	kit := map[string]any{"sku": "KIT-H", "name": "Header kit", "unit_price": 100, "quantity": 1}
	status, _ := do(t, srv, caller{token: signed, role: "admin"}, http.MethodPost, "/v1/kits", kit, "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestMapDomainErrorFallsBackToInternal(t *testing.T) {
	status, code, _ := mapDomainError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", code)
}
