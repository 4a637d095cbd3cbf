package httpapi

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/resources"
	"github.com/roach88/storefront/internal/rules"
	"github.com/roach88/storefront/internal/testutil"
)

// newTestRouter serves one seeded collection with scripted outcomes.
func newTestRouter(t *testing.T, collection string, outcomes ...bool) http.Handler {
	t.Helper()
	table, err := rules.Default()
	require.NoError(t, err)

	reg, err := resources.NewRegistry(table, resources.Options{
		Collections: []string{collection},
		Engine: []engine.Option{
			engine.WithClock(testutil.NewStepClock()),
			engine.WithOutcome(testutil.NewOutcomes(outcomes...)),
			engine.WithTokens(testutil.NewCountingTokens("")),
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.NoError(t, reg.Seed(ctx))

	e, ok := reg.Engine(collection)
	require.True(t, ok)
	return NewRouter(e)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, "payments")

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy","service":"payment-service","version":"1.0.0"}`, rec.Body.String())
}

func TestUsersCRUD(t *testing.T) {
	h := newTestRouter(t, "users")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "list seeded",
			method:     http.MethodGet,
			path:       "/users",
			wantStatus: http.StatusOK,
			wantBody:   `[{"id":1,"name":"John Doe","email":"john@example.com"},{"id":2,"name":"Jane Smith","email":"jane@example.com"}]`,
		},
		{
			name:       "filter by email",
			method:     http.MethodGet,
			path:       "/users?email=jane@example.com&unknown=1",
			wantStatus: http.StatusOK,
			wantBody:   `[{"id":2,"name":"Jane Smith","email":"jane@example.com"}]`,
		},
		{
			name:       "filter without match",
			method:     http.MethodGet,
			path:       "/users?name=Nobody",
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
		{
			name:       "create",
			method:     http.MethodPost,
			path:       "/users",
			body:       `{"name":"Ada","email":"ada@example.com"}`,
			wantStatus: http.StatusCreated,
			wantBody:   `{"id":3,"name":"Ada","email":"ada@example.com"}`,
		},
		{
			name:       "create missing fields",
			method:     http.MethodPost,
			path:       "/users",
			body:       `{"name":"Ada"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Name and email are required","missing":["email"]}`,
		},
		{
			name:       "create invalid json",
			method:     http.MethodPost,
			path:       "/users",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid JSON body"}`,
		},
		{
			name:       "create json with trailing data",
			method:     http.MethodPost,
			path:       "/users",
			body:       `{"name":"a","email":"b"} garbage`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid JSON body"}`,
		},
		{
			name:       "create non-object json",
			method:     http.MethodPost,
			path:       "/users",
			body:       `[1,2]`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid JSON body"}`,
		},
		{
			name:       "get",
			method:     http.MethodGet,
			path:       "/users/1",
			wantStatus: http.StatusOK,
			wantBody:   `{"id":1,"name":"John Doe","email":"john@example.com"}`,
		},
		{
			name:       "get missing",
			method:     http.MethodGet,
			path:       "/users/99",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"User not found"}`,
		},
		{
			name:       "get non-numeric id",
			method:     http.MethodGet,
			path:       "/users/abc",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"User not found"}`,
		},
		{
			name:       "update keeps blank fields",
			method:     http.MethodPut,
			path:       "/users/1",
			body:       `{"name":"John Q. Doe","email":""}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"id":1,"name":"John Q. Doe","email":"john@example.com"}`,
		},
		{
			name:       "delete",
			method:     http.MethodDelete,
			path:       "/users/2",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "delete again",
			method:     http.MethodDelete,
			path:       "/users/2",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"User not found"}`,
		},
	}

	// Steps share one service and run in order.
	for _, tt := range tests {
		rec := do(t, h, tt.method, tt.path, tt.body)
		assert.Equal(t, tt.wantStatus, rec.Code, tt.name)
		if tt.wantBody == "" {
			assert.Empty(t, rec.Body.String(), tt.name)
			continue
		}
		assert.JSONEq(t, tt.wantBody, rec.Body.String(), tt.name)
	}
}

func TestProductsCategoryFilterIgnoresCase(t *testing.T) {
	h := newTestRouter(t, "products")

	rec := do(t, h, http.MethodGet, "/products?category=electronics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":1,"name":"Laptop","price":999.99,"category":"Electronics","stock":10},
		{"id":2,"name":"Phone","price":699.99,"category":"Electronics","stock":25}
	]`, rec.Body.String())
}

func TestOrdersRoutes(t *testing.T) {
	h := newTestRouter(t, "orders")

	rec := do(t, h, http.MethodPost, "/orders", `{"userId":3,"products":[{"productId":3,"quantity":2,"unitPrice":19.99}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{
		"id":3,"userId":3,"status":"pending","total":39.98,
		"lineItems":[{"productId":3,"quantity":2,"unitPrice":19.99}],
		"createdAt":"2024-01-15T10:00:00.000Z"
	}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/orders/3/status", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Valid status is required","validStatuses":["pending","processing","completed","cancelled"]}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/orders/3/status", `{"status":"processing"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updatedAt":"2024-01-15T10:00:01.000Z"`)

	rec = do(t, h, http.MethodGet, "/orders?status=processing", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":3`)
	assert.NotContains(t, rec.Body.String(), `"id":1`)

	rec = do(t, h, http.MethodDelete, "/orders/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodPut, "/orders/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPaymentRefundRoute(t *testing.T) {
	h := newTestRouter(t, "payments")

	rec := do(t, h, http.MethodPost, "/payments/1/refund", `{"amount":50}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{
		"id":3,"orderId":1,"amount":-50,"method":"credit_card","status":"completed",
		"transactionId":"refund_tok0001","originalPaymentId":1,
		"processedAt":"2024-01-15T10:00:00.000Z"
	}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/payments/1/refund", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":-999.99`)

	rec = do(t, h, http.MethodPost, "/payments/2/refund", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Can only refund completed payments"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/payments/1/refund", `{"amount":5000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Refund amount cannot exceed payment amount"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/payments/42/refund", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Payment not found"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/payments", `{"orderId":1,"amount":10,"method":"cash"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid payment method","validMethods":["credit_card","debit_card","paypal","bank_transfer"]}`, rec.Body.String())
}

func TestNotificationRoutes(t *testing.T) {
	h := newTestRouter(t, "notifications", false)

	rec := do(t, h, http.MethodGet, "/notifications/stats/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":2,"pending":1,"sent":1,"failed":0,"byType":{"email":1,"sms":1,"push":0,"webhook":0}}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/notifications/2/send", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"failed"`)
	assert.Contains(t, rec.Body.String(), `"error":"Failed to deliver notification"`)

	rec = do(t, h, http.MethodPost, "/notifications/2/send", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Can only send pending notifications"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/notifications", `{"userId":1,"type":"fax","message":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid notification type","validTypes":["email","sms","push","webhook"]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/notifications?type=sms&status=failed", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":2`)
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(t, "users")

	rec := do(t, h, http.MethodGet, "/products", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/users/stats/summary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoppedEngineIsUnavailable(t *testing.T) {
	table, err := rules.Default()
	require.NoError(t, err)
	entity, ok := table.Entity("users")
	require.True(t, ok)

	e := engine.New(entity, engine.Behavior{}, nil)
	e.Stop()

	rec := do(t, NewRouter(e), http.MethodGet, "/users/1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"Service unavailable"}`, rec.Body.String())
}

func TestErrorBodyKeepsMessage(t *testing.T) {
	body := errorBody("boom", map[string]any{"error": "override", "field": "x"})
	assert.Equal(t, map[string]any{"error": "boom", "field": "x"}, body)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
