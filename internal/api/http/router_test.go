package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/directory"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository/sqlite"
	"github.com/spec-kit/helpdesk/internal/service"
)

type testServer struct {
	app *fiber.App
	sub *domain.Subcategory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store := sqlite.NewTestStore(t)
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	policy := lifecycle.NewPolicy(config.HelpdeskConfig{
		TechnicianGroup:        "CPD",
		CommentLogGroup:        "CPD",
		PendingEvaluationLimit: 3,
	})
	tokens := auth.NewTokenManager("router-test", 10)
	revoker := auth.NewMemoryRevoker()

	authService := service.NewAuthService(service.AuthDependencies{
		Store:      store,
		Directory:  directory.NewChain(logger, directory.NewLocalProvider(store.Repos().Users, 4)),
		Tokens:     tokens,
		Revoker:    revoker,
		Policy:     policy,
		BcryptCost: 4,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Policy:     policy,
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    metrics,
	})

	_, err := authService.CreateLocalUser(ctx, service.LocalAccount{Username: "rita", Password: "rita-password"})
	require.NoError(t, err)
	_, err = authService.CreateLocalUser(ctx, service.LocalAccount{Username: "tiago", Password: "tiago-password", Groups: []string{"CPD"}})
	require.NoError(t, err)

	cat, _, err := store.Repos().Categories.UpsertCategory(ctx, "Hardware")
	require.NoError(t, err)
	sub, _, err := store.Repos().Categories.UpsertSubcategory(ctx, cat.ID, "Impressora")
	require.NoError(t, err)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	health := handlers.NewHealthHandler("helpdesk", "test",
		handlers.StoreCheck(config.DriverSQLite, store),
		handlers.SchemaCheck(store.DB(), config.DriverSQLite),
		handlers.RedisCheck(nil),
	)
	RegisterRoutes(app, RouteConfig{
		Health:         health,
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Technician:     handlers.NewTechnicianHandler(ticketService),
		Categories:     handlers.NewCategoriesHandler(service.NewCategoryService(store, nil, logger)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, revoker, store.Repos().Users),
		Policy:         policy,
		Gatherer:       registry,
	})
	return &testServer{app: app, sub: sub}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	data := body["data"].(map[string]any)
	return data["auth"].(map[string]any)["token"].(string)
}

func errorCode(body map[string]any) string {
	errBody, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errBody["code"].(string)
	return code
}

func TestTicketFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	requester := s.login(t, "rita", "rita-password")
	technician := s.login(t, "tiago", "tiago-password")

	status, body := s.do(t, http.MethodGet, "/auth/me", technician, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "technician_dashboard", body["data"].(map[string]any)["landing"])

	status, body = s.do(t, http.MethodPost, "/tickets", requester, map[string]string{"subcategory_id": s.sub.ID, "note": "no toner"})
	require.Equal(t, http.StatusCreated, status, body)
	ticket := body["data"].(map[string]any)
	ticketID := ticket["id"].(string)
	assert.Equal(t, "OPEN", ticket["status"])
	assert.Equal(t, "LOW", ticket["priority"])

	status, body = s.do(t, http.MethodPost, "/technician/tickets/"+ticketID+"/accept", requester, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = s.do(t, http.MethodPost, "/technician/tickets/"+ticketID+"/accept", technician, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "IN_PROGRESS", body["data"].(map[string]any)["status"])

	status, body = s.do(t, http.MethodPost, "/technician/tickets/"+ticketID+"/accept", technician, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))

	status, body = s.do(t, http.MethodPatch, "/technician/tickets/"+ticketID+"/status", technician, map[string]string{"status": "CLOSED"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	fields := body["error"].(map[string]any)["details"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "status")

	status, _ = s.do(t, http.MethodPost, "/technician/tickets/"+ticketID+"/resolve", technician, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/tickets/"+ticketID+"/evaluation", requester, map[string]any{"score": 4, "description": "ok"})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "CLOSED", body["data"].(map[string]any)["ticket"].(map[string]any)["status"])

	status, body = s.do(t, http.MethodGet, "/tickets/"+ticketID, requester, nil)
	require.Equal(t, http.StatusOK, status)
	detail := body["data"].(map[string]any)
	assert.Len(t, detail["timeline"], 4)
	assert.NotNil(t, detail["evaluation"])

	status, body = s.do(t, http.MethodGet, "/tickets/history", requester, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestAuthenticationErrors(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "rita", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	token := s.login(t, "rita", "rita-password")
	status, _ = s.do(t, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = s.do(t, http.MethodGet, "/dashboard", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestNotFoundAndProbes(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "rita", "rita-password")

	status, body := s.do(t, http.MethodGet, "/tickets/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, map[string]any{"sqlite": "ok", "schema": "ok", "redis": "disabled"}, body["dependencies"])

	status, body = s.do(t, http.MethodGet, "/categories", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
}
