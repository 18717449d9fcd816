package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/nexusdesk/internal/adapter/llm"
	"github.com/xiaot623/nexusdesk/internal/clock"
	"github.com/xiaot623/nexusdesk/internal/controller"
	"github.com/xiaot623/nexusdesk/internal/domain"
	"github.com/xiaot623/nexusdesk/internal/events"
	"github.com/xiaot623/nexusdesk/internal/policy"
	"github.com/xiaot623/nexusdesk/internal/service"
	"github.com/xiaot623/nexusdesk/internal/store"
	"github.com/xiaot623/nexusdesk/internal/testutil"
)

// failingStore accepts reads and rejects every write.
type failingStore struct {
	store.Store
}

func (failingStore) Put(ctx context.Context, key string, value []byte) error {
	return assert.AnError
}

func newTestHandler(t *testing.T, st store.Store) (*Handler, *echo.Echo) {
	t.Helper()
	if st == nil {
		st = testutil.NewTestSQLiteStore(t, "test")
	}
	clk := clock.NewFake(time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC))
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	ctrl := controller.New(st, controller.WithClock(clk))
	svc := service.New(ctrl, llm.NewMockClient(), events.NewProducer(nil, ""), engine, clk)
	h := NewHandler(svc)

	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetTicketNotFound(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tickets/TKT-999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("ticketId")
	c.SetParamValues("TKT-999")

	if err := h.GetTicket(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assert.JSONEq(t, `{"success":false,"error":"Ticket not found"}`, rec.Body.String())
}

func TestTicketRoutes(t *testing.T) {
	_, e := newTestHandler(t, nil)

	code, env := do(t, e, http.MethodGet, "/api/tickets", "")
	require.Equal(t, http.StatusOK, code)
	var tickets []domain.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &tickets))
	assert.Len(t, tickets, 3)

	code, env = do(t, e, http.MethodPost, "/api/tickets", `{"title":"Login issue","description":"Cannot log in"}`)
	require.Equal(t, http.StatusCreated, code)
	var created domain.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "TKT-004", created.ID)
	assert.Equal(t, domain.TicketStatusOpen, created.Status)
	assert.Equal(t, domain.TicketPriorityHigh, created.Priority)

	code, env = do(t, e, http.MethodPost, "/api/tickets", `{"title":"Only title"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Title and description are required", env.Error)

	code, env = do(t, e, http.MethodPost, "/api/tickets/TKT-004/status", `{"status":"Resolved"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid status value", env.Error)

	code, _ = do(t, e, http.MethodPost, "/api/tickets/TKT-999/status", `{"status":"Closed"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = do(t, e, http.MethodPost, "/api/tickets/TKT-004/status", `{"status":"In Progress"}`)
	require.Equal(t, http.StatusOK, code)
	var updated domain.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	code, env = do(t, e, http.MethodPost, "/api/tickets/TKT-004/comments", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Comment text is required", env.Error)

	code, env = do(t, e, http.MethodPost, "/api/tickets/TKT-004/comments", `{"text":"Try resetting password"}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	require.Len(t, updated.Conversation, 2)
	assert.Equal(t, domain.AuthorAIAssistant, updated.Conversation[1].Author)

	code, env = do(t, e, http.MethodGet, "/api/tickets/TKT-004", "")
	require.Equal(t, http.StatusOK, code)
	var got domain.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got.Conversation, 2)
}

func TestSessionRoutes(t *testing.T) {
	_, e := newTestHandler(t, nil)

	code, env := do(t, e, http.MethodPost, "/api/sessions", `{"sessionId":"s-1","firstMessage":"My   invoice is wrong"}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"sessionId":"s-1","title":"My invoice is wrong • 03/10 09:05"}`, string(env.Data))

	code, env = do(t, e, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusOK, code)
	var created service.CreatedSession
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.SessionID)
	assert.Equal(t, "Chat 03/10 09:05", created.Title)

	code, env = do(t, e, http.MethodGet, "/api/sessions/count", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":2}`, string(env.Data))

	code, env = do(t, e, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, code)
	var sessions []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &sessions))
	require.Len(t, sessions, 2)
	assert.IsType(t, float64(0), sessions[0]["createdAt"])

	code, env = do(t, e, http.MethodPut, "/api/sessions/s-1/title", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Title is required", env.Error)

	code, _ = do(t, e, http.MethodPut, "/api/sessions/missing/title", `{"title":"New"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = do(t, e, http.MethodPut, "/api/sessions/s-1/title", `{"title":"New"}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"title":"New"}`, string(env.Data))

	code, _ = do(t, e, http.MethodDelete, "/api/sessions/s-1", "")
	assert.Equal(t, http.StatusOK, code)
	code, env = do(t, e, http.MethodDelete, "/api/sessions/s-1", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Session not found", env.Error)

	code, env = do(t, e, http.MethodDelete, "/api/sessions", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"deletedCount":1}`, string(env.Data))
}

func TestProfileAndCheckoutRoutes(t *testing.T) {
	_, e := newTestHandler(t, nil)

	code, env := do(t, e, http.MethodPost, "/api/user/profile", `{"name":"X"}`)
	require.Equal(t, http.StatusOK, code)
	var profile domain.UserProfile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "X", profile.Name)
	assert.Equal(t, "demo@nexusdesk.ai", profile.Email)
	assert.NotNil(t, profile.TrialEndsAt)

	code, env = do(t, e, http.MethodPost, "/api/stripe/create-checkout-session", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Price ID is required", env.Error)

	code, env = do(t, e, http.MethodPost, "/api/stripe/create-checkout-session", `{"priceId":"price_pro"}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"url":"/dashboard/settings?subscription_updated=true"}`, string(env.Data))

	code, env = do(t, e, http.MethodGet, "/api/user/profile", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"name":"X","email":"demo@nexusdesk.ai","subscriptionStatus":"Active","trialEndsAt":null}`, string(env.Data))
}

func TestAnalyticsRoute(t *testing.T) {
	_, e := newTestHandler(t, nil)

	code, env := do(t, e, http.MethodGet, "/api/analytics", "")
	require.Equal(t, http.StatusOK, code)
	var a service.Analytics
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Len(t, a.TicketData, 7)
	assert.Len(t, a.SatisfactionData, 4)
}

func TestPersistenceFailureIs500(t *testing.T) {
	_, e := newTestHandler(t, failingStore{Store: testutil.NewTestSQLiteStore(t, "test")})

	code, env := do(t, e, http.MethodPost, "/api/tickets/TKT-001/status", `{"status":"Closed"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, env.Success)
	assert.Empty(t, env.Data)

	code, env = do(t, e, http.MethodGet, "/api/tickets/TKT-001", "")
	require.Equal(t, http.StatusOK, code)
	var got domain.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
}
