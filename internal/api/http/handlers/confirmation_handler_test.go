package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/membership-service/internal/api/http"
	"github.com/spec-kit/membership-service/internal/api/http/handlers"
	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/events"
	"github.com/spec-kit/membership-service/internal/mailer"
	"github.com/spec-kit/membership-service/internal/observability"
	"github.com/spec-kit/membership-service/internal/persistence"
	"github.com/spec-kit/membership-service/internal/ratelimit"
	"github.com/spec-kit/membership-service/internal/repository"
	"github.com/spec-kit/membership-service/internal/service"
)

type seqGenerator struct {
	codes []string
	next  int
}

func (g *seqGenerator) Generate() (string, error) {
	code := g.codes[g.next%len(g.codes)]
	g.next++
	return code, nil
}

type testApp struct {
	app   *fiber.App
	store *repository.MemoryStore
}

func newTestApp(t *testing.T, budgets map[string]ratelimit.Budget, codes ...string) *testApp {
	t.Helper()
	if len(codes) == 0 {
		codes = []string{"004213"}
	}

	cfg := config.Config{
		Confirmation: config.ConfirmationConfig{InitialCodeTTLHours: 24, ResendCodeTTLMinutes: 5},
		Auth:         config.AuthConfig{JWTSecret: "test-secret", TemporaryTokenTTLSeconds: 900, BcryptCost: 4},
	}

	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()

	confirmation := service.NewConfirmationService(cfg, service.ConfirmationDependencies{
		MemberRepo:  store,
		CodeRepo:    store,
		Generator:   &seqGenerator{codes: codes},
		Mailer:      mailer.New(config.MailerConfig{}, logger),
		Credentials: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TemporaryTokenTTL()),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	members := service.NewMemberService(store, confirmation, dispatcher, logger)

	gate := ratelimit.NewLocalGate(budgets)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler("membership-service", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Members:      handlers.NewMembersHandler(members, gate),
		Confirmation: handlers.NewConfirmationHandler(confirmation, gate),
		Admin:        handlers.NewAdminHandler(metrics),
	})

	return &testApp{app: app, store: store}
}

func (ta *testApp) do(t *testing.T, method, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ta.app.Test(req, 5000)
	require.NoError(t, err)

	var parsed map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}

func (ta *testApp) register(t *testing.T, email string) string {
	t.Helper()
	resp, body := ta.do(t, http.MethodPost, "/members", map[string]string{"email": email})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	member := body["data"].(map[string]any)["member"].(map[string]any)
	return member["id"].(string)
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error payload, got %v", body)
	return errObj["code"].(string)
}

func TestConfirmEndpointHappyPath(t *testing.T) {
	ta := newTestApp(t, nil, "004213")
	id := ta.register(t, "a@x.com")

	resp, body := ta.do(t, http.MethodPost, "/members/"+id+"/confirm", map[string]string{"code": "004213"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["temporary_token"])
	assert.Equal(t, float64(900), data["expires_in_seconds"])
	assert.NotEmpty(t, data["message"])
}

func TestConfirmEndpointInvalidCode(t *testing.T) {
	ta := newTestApp(t, nil, "123456")
	id := ta.register(t, "a@x.com")

	resp, body := ta.do(t, http.MethodPost, "/members/"+id+"/confirm", map[string]string{"code": "000000"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_CODE", errorCode(t, body))
}

func TestConfirmEndpointMemberNotFound(t *testing.T) {
	ta := newTestApp(t, nil)

	resp, body := ta.do(t, http.MethodPost, "/members/does-not-exist/confirm", map[string]string{"code": "004213"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestConfirmEndpointAlreadyConfirmed(t *testing.T) {
	ta := newTestApp(t, nil, "004213")
	id := ta.register(t, "a@x.com")

	resp, _ := ta.do(t, http.MethodPost, "/members/"+id+"/confirm", map[string]string{"code": "004213"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := ta.do(t, http.MethodPost, "/members/"+id+"/confirm", map[string]string{"code": "004213"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_CONFIRMED", errorCode(t, body))
}

func TestResendEndpoint(t *testing.T) {
	ta := newTestApp(t, nil, "111111", "222222")
	id := ta.register(t, "a@x.com")

	resp, _ := ta.do(t, http.MethodPost, "/members/"+id+"/confirm/resend", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Old code superseded by the resend.
	resp, body := ta.do(t, http.MethodPost, "/members/"+id+"/confirm", map[string]string{"code": "111111"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_CODE", errorCode(t, body))

	resp, _ = ta.do(t, http.MethodPost, "/members/"+id+"/confirm", map[string]string{"code": "222222"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConfirmEndpointRateLimited(t *testing.T) {
	ta := newTestApp(t, map[string]ratelimit.Budget{
		ratelimit.OpConfirm: {Permits: 2, Period: time.Minute},
	}, "123456")
	id := ta.register(t, "a@x.com")

	for i := 0; i < 2; i++ {
		resp, _ := ta.do(t, http.MethodPost, "/members/"+id+"/confirm", map[string]string{"code": "000000"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "attempt %d", i+1)
	}

	resp, body := ta.do(t, http.MethodPost, "/members/"+id+"/confirm", map[string]string{"code": "000000"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, body))
}

func TestSetPasswordFlow(t *testing.T) {
	ta := newTestApp(t, nil, "004213")
	id := ta.register(t, "a@x.com")

	resp, body := ta.do(t, http.MethodPost, "/members/"+id+"/confirm", map[string]string{"code": "004213"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := body["data"].(map[string]any)["temporary_token"].(string)

	resp, _ = ta.do(t, http.MethodPost, "/members/password", map[string]string{
		"temporary_token": token,
		"new_password":    "s3cret-pass",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Second exchange of the same token is rejected.
	resp, body = ta.do(t, http.MethodPost, "/members/password", map[string]string{
		"temporary_token": token,
		"new_password":    "another-pass",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "PASSWORD_ALREADY_SET", errorCode(t, body))
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.register(t, "a@x.com")

	resp, body := ta.do(t, http.MethodPost, "/members", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(t, body))
}

func TestMemberDirectoryEndpoints(t *testing.T) {
	ta := newTestApp(t, nil, "111111", "222222")
	id := ta.register(t, "a@x.com")
	ta.register(t, "b@x.com")

	resp, body := ta.do(t, http.MethodGet, "/members/?limit=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	members := body["data"].(map[string]any)["members"].([]any)
	assert.Len(t, members, 2)

	resp, body = ta.do(t, http.MethodGet, "/members/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	member := body["data"].(map[string]any)["member"].(map[string]any)
	assert.Equal(t, "a@x.com", member["email"])
	assert.Equal(t, "UNCONFIRMED", member["state"])

	resp, _ = ta.do(t, http.MethodDelete, "/members/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = ta.do(t, http.MethodGet, "/members/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestSweepEndpoint(t *testing.T) {
	ta := newTestApp(t, nil)

	resp, body := ta.do(t, http.MethodPost, "/admin/confirmation-codes/sweep", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["data"].(map[string]any)["deleted"])
}
