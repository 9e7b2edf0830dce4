package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dms/internal/adapter/api"
	"dms/internal/adapter/api/handler"
	"dms/internal/adapter/api/middleware"
	"dms/internal/adapter/repository"
	"dms/internal/domain/entity"
	"dms/internal/infrastructure/directory"
	"dms/internal/infrastructure/export"
	"dms/internal/infrastructure/lock"
	"dms/internal/infrastructure/ratelimit"
	"dms/internal/infrastructure/token"
	"dms/internal/usecase"
)

const password = "s3cret-pass"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newServer(t *testing.T, limiter *ratelimit.RateLimiter) *echo.Echo {
	t.Helper()
	hash, err := usecase.HashPassword(password)
	require.NoError(t, err)

	alpha := "Sub Distributor Alpha"
	dir, err := directory.New([]*entity.Holder{
		{Name: alpha, Tier: entity.LocationSubDistributor, Parent: entity.MainDistribution},
		{Name: "Operator One", Tier: entity.LocationOperator, Parent: alpha},
	}, []*entity.User{
		{ID: "u-admin", Name: "Admin", Email: "admin@example.com", Role: entity.RoleAdmin, Holder: entity.MainDistribution, PasswordHash: hash, Active: true},
		{ID: "u-dist", Name: "Dist", Email: "dist@example.com", Role: entity.RoleDistributor, Holder: entity.MainDistribution, PasswordHash: hash, Active: true},
		{ID: "u-sub-a", Name: "Alpha", Email: "alpha@example.com", Role: entity.RoleSubDistributor, Holder: alpha, PasswordHash: hash, Active: true},
		{ID: "u-op-1", Name: "Op", Email: "op@example.com", Role: entity.RoleOperator, Holder: "Operator One", PasswordHash: hash, Active: true},
	})
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	jwtManager := token.NewJWTManager("test-secret", time.Hour)
	workflow := usecase.NewWorkflowUseCase(store, dir, lock.NewLocalLocker())

	handler.Setup(
		usecase.NewAuthUseCase(dir, jwtManager),
		workflow,
		usecase.NewNotificationUseCase(store, lock.NewLocalLocker()),
		usecase.NewReportUseCase(store, export.NewXLSXExporter()),
		usecase.NewDashboardUseCase(store, workflow),
	)
	handler.SetupHealthHandler(store, "memory")

	e := echo.New()
	e.Validator = api.NewValidator()
	Setup(e, middleware.NewAuthMiddleware(jwtManager), limiter)
	return e
}

func do(e *echo.Echo, method, target, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func data(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func login(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/v1/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result usecase.AuthResult
	data(t, rec, &result)
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestDistributionFlowOverHTTP(t *testing.T) {
	e := newServer(t, ratelimit.NewRateLimiter(1000, 1000))

	adminToken := login(t, e, "admin@example.com")
	distToken := login(t, e, "dist@example.com")
	subToken := login(t, e, "alpha@example.com")

	rec := do(e, http.MethodPost, "/v1/devices",
		`{"macAddress":"AA:BB:CC:DD:EE:01","serialNumber":"SN-01","model":"HG8245","manufacturer":"Huawei"}`, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var device entity.Device
	data(t, rec, &device)

	rec = do(e, http.MethodPost, "/v1/distributions",
		`{"fromDistributor":"Main Distribution","toDistributor":"Sub Distributor Alpha","deviceIds":["`+device.ID+`"]}`, distToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var dist entity.Distribution
	data(t, rec, &dist)

	rec = do(e, http.MethodGet, "/v1/approvals/pending", "", subToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []entity.PendingApproval
	data(t, rec, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, dist.ID, pending[0].EntityID)
	assert.Equal(t, entity.EntityDistribution, pending[0].EntityType)

	rec = do(e, http.MethodPost, "/v1/distributions/"+dist.ID+"/approve", `{"notes":"ok"}`, subToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/v1/devices/"+device.ID, "", subToken)
	require.Equal(t, http.StatusOK, rec.Code)
	data(t, rec, &device)
	assert.Equal(t, "Sub Distributor Alpha", device.CurrentHolder)
	assert.Equal(t, entity.LocationSubDistributor, device.CurrentLocation)

	rec = do(e, http.MethodGet, "/v1/approvals/pending", "", subToken)
	data(t, rec, &pending)
	assert.Empty(t, pending)
}

func TestAuthAndCapabilityGates(t *testing.T) {
	e := newServer(t, ratelimit.NewRateLimiter(1000, 1000))

	rec := do(e, http.MethodGet, "/v1/devices", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/v1/devices", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/v1/auth/login", `{"email":"op@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	opToken := login(t, e, "op@example.com")

	rec = do(e, http.MethodPost, "/v1/devices",
		`{"macAddress":"AA:BB:CC:DD:EE:01","serialNumber":"SN-01","model":"HG8245","manufacturer":"Huawei"}`, opToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/v1/reports/inventory", "", opToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/v1/devices", "", opToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/v1/auth/me", "", opToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile usecase.Profile
	data(t, rec, &profile)
	assert.Equal(t, entity.RoleOperator, profile.Actor.Role)
	assert.Contains(t, profile.Permissions, "defects:create")

	rec = do(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	e := newServer(t, ratelimit.NewRateLimiter(0.001, 2))

	body := `{"email":"op@example.com","password":"wrong"}`
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/auth/login", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/auth/login", body, "").Code)

	rec := do(e, http.MethodPost, "/v1/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestDashboardAndSummaryRoutes(t *testing.T) {
	e := newServer(t, ratelimit.NewRateLimiter(1000, 1000))

	adminToken := login(t, e, "admin@example.com")
	distToken := login(t, e, "dist@example.com")
	subToken := login(t, e, "alpha@example.com")
	opToken := login(t, e, "op@example.com")

	rec := do(e, http.MethodPost, "/v1/devices",
		`{"macAddress":"AA:BB:CC:DD:EE:01","serialNumber":"SN-01","model":"HG8245","manufacturer":"Huawei"}`, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var device entity.Device
	data(t, rec, &device)

	rec = do(e, http.MethodPost, "/v1/distributions",
		`{"fromDistributor":"Main Distribution","toDistributor":"Sub Distributor Alpha","deviceIds":["`+device.ID+`"]}`, distToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/v1/dashboard/stats", "", subToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stats entity.DashboardStats
	data(t, rec, &stats)
	assert.Equal(t, "Sub Distributor Alpha", stats.Scope)
	assert.Equal(t, 1, stats.PendingApprovals)

	rec = do(e, http.MethodGet, "/v1/dashboard/recent-activities?limit=5", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []entity.DeviceEvent
	data(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventRegistered, events[0].Action)

	rec = do(e, http.MethodGet, "/v1/dashboard/alerts", "", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []entity.Alert
	data(t, rec, &alerts)
	assert.NotEmpty(t, alerts)

	rec = do(e, http.MethodGet, "/v1/notifications/unread-count", "", subToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var count usecase.UnreadCount
	data(t, rec, &count)
	assert.Equal(t, 1, count.Unread)

	rec = do(e, http.MethodPost, "/v1/notifications/read-all", "", subToken)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(e, http.MethodGet, "/v1/notifications/unread-count", "", subToken)
	data(t, rec, &count)
	assert.Zero(t, count.Unread)

	for _, path := range []string{"/v1/reports/distribution-summary", "/v1/reports/defect-summary", "/v1/reports/return-summary"} {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, path, "", adminToken).Code, path)
		assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, path, "", opToken).Code, path)
	}

	rec = do(e, http.MethodGet, "/v1/reports/distribution-summary", "", adminToken)
	var summary entity.DistributionSummary
	data(t, rec, &summary)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[string(entity.DistributionPending)])
}
