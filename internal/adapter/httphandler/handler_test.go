package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/niksmo/storebuilder/internal/adapter/metrics"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// The mocks embed their port so that tests implement only what they call.

type mockAuth struct {
	port.Authenticator
	mock.Mock
}

func (m *mockAuth) Authenticate(ctx context.Context, token string) (domain.User, error) {
	args := m.Called(token)
	return args.Get(0).(domain.User), args.Error(1)
}

type mockAuthz struct {
	mock.Mock
}

func (m *mockAuthz) Authorize(
	ctx context.Context, actorID string, kind domain.ResourceKind, id string,
) error {
	return m.Called(actorID, kind, id).Error(0)
}

type mockStores struct {
	port.StoreManager
	mock.Mock
}

func (m *mockStores) UpdateStore(
	ctx context.Context, id string, in domain.StoreInput,
) (domain.Store, error) {
	args := m.Called(id, in)
	return args.Get(0).(domain.Store), args.Error(1)
}

func (m *mockStores) StoreSales(ctx context.Context, id string) (domain.StoreSales, error) {
	args := m.Called(id)
	return args.Get(0).(domain.StoreSales), args.Error(1)
}

type mockOrders struct {
	port.OrderManager
	mock.Mock
}

func (m *mockOrders) PlaceOrder(
	ctx context.Context, c domain.Checkout,
) (domain.Order, domain.CheckoutRedirect, error) {
	args := m.Called(c)
	return args.Get(0).(domain.Order), args.Get(1).(domain.CheckoutRedirect), args.Error(2)
}

func (m *mockOrders) ReconcilePayment(
	ctx context.Context, form url.Values,
) (domain.Order, bool, error) {
	args := m.Called(form)
	return args.Get(0).(domain.Order), args.Bool(1), args.Error(2)
}

func (m *mockOrders) ViewOrder(ctx context.Context, actorID, id string) (domain.Order, error) {
	args := m.Called(actorID, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *mockOrders) RefundOrder(
	ctx context.Context, id string, amount *decimal.Decimal, reason string,
) (domain.Order, decimal.Decimal, error) {
	args := m.Called(id, amount, reason)
	return args.Get(0).(domain.Order), args.Get(1).(decimal.Decimal), args.Error(2)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticHealth bool

func (h staticHealth) Healthy(context.Context) bool { return bool(h) }

type fixture struct {
	auth    *mockAuth
	authz   *mockAuthz
	stores  *mockStores
	orders  *mockOrders
	metrics *metrics.Metrics
	handler http.Handler
}

func newFixture(t *testing.T, limiter *RateLimiter) *fixture {
	t.Helper()
	if limiter == nil {
		limiter = NewRateLimiter(1000, 1000)
	}
	f := &fixture{
		auth:    &mockAuth{},
		authz:   &mockAuthz{},
		stores:  &mockStores{},
		orders:  &mockOrders{},
		metrics: metrics.New(),
	}
	f.handler = NewRouter(Deps{
		Auth:     f.auth,
		Authz:    f.authz,
		Stores:   f.stores,
		Orders:   f.orders,
		Health:   staticHealth(true),
		Observer: f.metrics,
		Limiter:  limiter,
		Version:  "test",
	})
	t.Cleanup(func() {
		f.auth.AssertExpectations(t)
		f.authz.AssertExpectations(t)
		f.stores.AssertExpectations(t)
		f.orders.AssertExpectations(t)
	})
	return f
}

func (f *fixture) login(token, userID string) {
	f.auth.On("Authenticate", token).Return(domain.User{ID: userID}, nil)
}

func (f *fixture) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func jsonRequest(method, target, body, token string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHealthAndNotFound(t *testing.T) {
	f := newFixture(t, nil)

	t.Run("health", func(t *testing.T) {
		w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "connected", body["database"])
		assert.Equal(t, "test", body["version"])
	})

	t.Run("unknown route", func(t *testing.T) {
		w := f.do(httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Route not found", body["message"])
		assert.Equal(t, "/api/nothing", body["path"])
		assert.Equal(t, http.MethodGet, body["method"])
	})

	t.Run("metrics", func(t *testing.T) {
		w := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "storebuilder_http_requests_total")
	})
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t, nil)
	f.auth.On("Authenticate", "expired").
		Return(domain.User{}, fmt.Errorf("parse: %w", domain.ErrUnauthenticated))

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"invalid token", "expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(jsonRequest(http.MethodGet, "/api/stores/s1/sales", "", tt.token))
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Not authorized, please log in", decodeBody(t, w)["message"])
		})
	}
}

func TestStoreGuard(t *testing.T) {
	body := `{"name":"Renamed"}`

	t.Run("foreign store is forbidden", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login("tok-u2", "u2")
		f.authz.On("Authorize", "u2", domain.ResourceStore, "s1").
			Return(fmt.Errorf("authorize: %w", domain.ErrForbidden))

		w := f.do(jsonRequest(http.MethodPut, "/api/stores/s1", body, "tok-u2"))

		require.Equal(t, http.StatusForbidden, w.Code)
		f.stores.AssertNotCalled(t, "UpdateStore", mock.Anything, mock.Anything)
	})

	t.Run("owner updates", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login("tok-u1", "u1")
		f.authz.On("Authorize", "u1", domain.ResourceStore, "s1").Return(nil)
		f.stores.On("UpdateStore", "s1", mock.MatchedBy(func(in domain.StoreInput) bool {
			return in.Name != nil && *in.Name == "Renamed"
		})).Return(domain.Store{ID: "s1", Name: "Renamed", Slug: "renamed"}, nil)

		w := f.do(jsonRequest(http.MethodPut, "/api/stores/s1", body, "tok-u1"))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		st := decodeBody(t, w)["store"].(map[string]any)
		assert.Equal(t, "renamed", st["slug"])
	})

	t.Run("non json body", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login("tok-u1", "u1")
		f.authz.On("Authorize", "u1", domain.ResourceStore, "s1").Return(nil)

		r := jsonRequest(http.MethodPut, "/api/stores/s1", body, "tok-u1")
		r.Header.Set("Content-Type", "text/plain")
		w := f.do(r)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}

func TestStoreSalesUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.login("tok-u1", "u1")
	f.authz.On("Authorize", "u1", domain.ResourceStore, "s1").Return(nil)
	f.stores.On("StoreSales", "s1").
		Return(domain.StoreSales{}, fmt.Errorf("ledger: %w", domain.ErrUnavailable))

	w := f.do(jsonRequest(http.MethodGet, "/api/stores/s1/sales", "", "tok-u1"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

const createOrderBody = `{
	"storeId": "s1",
	"paymentMethod": "payfast",
	"customer": {"email": "buyer@example.com", "firstName": "Thandi"},
	"items": [{"productId": "p1", "quantity": 2}]
}`

func TestCreateOrder(t *testing.T) {
	placed := domain.Order{
		ID:          "o1",
		OrderNumber: "M7R-123456-AB12",
		Pricing: domain.Pricing{
			Total:    decimal.RequireFromString("100"),
			Currency: domain.CurrencyZAR,
		},
		Payment: domain.Payment{Method: domain.PaymentPayfast},
	}
	redirect := domain.CheckoutRedirect{
		URL:  "https://sandbox.payfast.co.za/eng/process",
		Data: map[string]string{"m_payment_id": "o1", "signature": "abc"},
	}

	t.Run("guest checkout", func(t *testing.T) {
		f := newFixture(t, nil)
		f.orders.On("PlaceOrder", mock.MatchedBy(func(c domain.Checkout) bool {
			return c.CustomerUserID == "" && c.StoreID == "s1" &&
				len(c.Items) == 1 && c.Items[0].Quantity == 2
		})).Return(placed, redirect, nil)

		w := f.do(jsonRequest(http.MethodPost, "/api/payments/create-order", createOrderBody, ""))

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp struct {
			Order struct {
				OrderNumber string  `json:"orderNumber"`
				Total       float64 `json:"total"`
			} `json:"order"`
			Payment PaymentRedirect `json:"payment"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "M7R-123456-AB12", resp.Order.OrderNumber)
		assert.InDelta(t, 100.0, resp.Order.Total, 0.001)
		assert.Equal(t, redirect.URL, resp.Payment.URL)
		assert.Equal(t, "o1", resp.Payment.Data["m_payment_id"])
		assert.Contains(t, w.Body.String(), `"total":100.00`)
	})

	t.Run("billing defaults to shipping", func(t *testing.T) {
		f := newFixture(t, nil)
		f.orders.On("PlaceOrder", mock.MatchedBy(func(c domain.Checkout) bool {
			return c.Billing.SameAsShipping &&
				c.Billing.Address.City == "Cape Town" &&
				c.Shipping.Address.City == "Cape Town"
		})).Return(placed, redirect, nil)

		body := `{
			"storeId": "s1",
			"paymentMethod": "payfast",
			"customer": {"email": "buyer@example.com"},
			"shipping": {"address": {"street": "1 Long St", "city": "Cape Town"}},
			"items": [{"productId": "p1", "quantity": 1}]
		}`
		w := f.do(jsonRequest(http.MethodPost, "/api/payments/create-order", body, ""))

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("explicit billing is kept", func(t *testing.T) {
		f := newFixture(t, nil)
		f.orders.On("PlaceOrder", mock.MatchedBy(func(c domain.Checkout) bool {
			return !c.Billing.SameAsShipping && c.Billing.Address.City == "Durban"
		})).Return(placed, redirect, nil)

		body := `{
			"storeId": "s1",
			"paymentMethod": "payfast",
			"customer": {"email": "buyer@example.com"},
			"shipping": {"address": {"city": "Cape Town"}},
			"billing": {"address": {"city": "Durban"}},
			"items": [{"productId": "p1", "quantity": 1}]
		}`
		w := f.do(jsonRequest(http.MethodPost, "/api/payments/create-order", body, ""))

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("signed in customer", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login("tok-u3", "u3")
		f.orders.On("PlaceOrder", mock.MatchedBy(func(c domain.Checkout) bool {
			return c.CustomerUserID == "u3"
		})).Return(placed, redirect, nil)

		w := f.do(jsonRequest(http.MethodPost, "/api/payments/create-order", createOrderBody, "tok-u3"))

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t, nil)
		body := `{"storeId": "s1", "paymentMethod": "payfast", "items": []}`

		w := f.do(jsonRequest(http.MethodPost, "/api/payments/create-order", body, ""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.orders.AssertNotCalled(t, "PlaceOrder", mock.Anything)
	})

	t.Run("store not found", func(t *testing.T) {
		f := newFixture(t, nil)
		f.orders.On("PlaceOrder", mock.Anything).Return(
			domain.Order{}, domain.CheckoutRedirect{},
			fmt.Errorf("place: store %w", domain.ErrNotFound),
		)

		w := f.do(jsonRequest(http.MethodPost, "/api/payments/create-order", createOrderBody, ""))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func notifyRequest(form url.Values) *http.Request {
	r := httptest.NewRequest(
		http.MethodPost, "/api/payments/payfast/notify",
		strings.NewReader(form.Encode()),
	)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestPayfastNotify(t *testing.T) {
	form := url.Values{
		"custom_str1":    {"o1"},
		"payment_status": {"COMPLETE"},
		"signature":      {"sig"},
	}
	paid := domain.Order{ID: "o1", Payment: domain.Payment{Status: domain.PaymentCompleted}}

	tests := []struct {
		name     string
		applied  bool
		err      error
		wantCode int
	}{
		{"applied", true, nil, http.StatusOK},
		{"replayed", false, nil, http.StatusOK},
		{"bad signature", false, fmt.Errorf("verify: %w", domain.ErrInvalidSignature), http.StatusBadRequest},
		{"unknown order", false, fmt.Errorf("modify: order %w", domain.ErrNotFound), http.StatusNotFound},
		{"database down", false, errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.orders.On("ReconcilePayment", form).Return(paid, tt.applied, tt.err)

			w := f.do(notifyRequest(form))

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestPayfastNotifyMetrics(t *testing.T) {
	f := newFixture(t, nil)
	form := url.Values{"custom_str1": {"o1"}, "signature": {"sig"}}
	f.orders.On("ReconcilePayment", form).
		Return(domain.Order{ID: "o1"}, true, nil).Once()
	f.orders.On("ReconcilePayment", form).
		Return(domain.Order{ID: "o1"}, false, nil).Once()

	f.do(notifyRequest(form))
	f.do(notifyRequest(form))

	w := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(),
		`storebuilder_payments_notifications_total{result="applied"} 1`)
	assert.Contains(t, w.Body.String(),
		`storebuilder_payments_notifications_total{result="replayed"} 1`)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, NewRateLimiter(0.001, 1))

	t.Run("login is throttled per ip", func(t *testing.T) {
		login := func() *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("x"))
		}
		first := f.do(login())
		second := f.do(login())

		assert.Equal(t, http.StatusUnsupportedMediaType, first.Code)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
	})

	t.Run("payment notifications are not throttled", func(t *testing.T) {
		form := url.Values{"custom_str1": {"o1"}}
		f.orders.On("ReconcilePayment", form).
			Return(domain.Order{ID: "o1"}, false, nil).Times(3)

		for range 3 {
			w := f.do(notifyRequest(form))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestCORS(t *testing.T) {
	f := &fixture{metrics: metrics.New()}
	f.handler = NewRouter(Deps{
		Health:         staticHealth(true),
		Observer:       f.metrics,
		Limiter:        NewRateLimiter(1000, 1000),
		AllowedOrigins: []string{"https://shop.example.com"},
	})

	t.Run("preflight from frontend", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/payments/create-order", nil)
		r.Header.Set("Origin", "https://shop.example.com")
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		r.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

		w := f.do(r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("unknown origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://evil.example.com")

		w := f.do(r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestViewOrderForbidden(t *testing.T) {
	f := newFixture(t, nil)
	f.login("tok-u9", "u9")
	f.orders.On("ViewOrder", "u9", "o1").
		Return(domain.Order{}, fmt.Errorf("view: %w", domain.ErrForbidden))

	w := f.do(jsonRequest(http.MethodGet, "/api/orders/o1", "", "tok-u9"))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefund(t *testing.T) {
	refunded := domain.Order{ID: "o1", Status: domain.OrderRefunded}

	t.Run("full refund by default", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login("tok-u1", "u1")
		f.authz.On("Authorize", "u1", domain.ResourceOrder, "o1").Return(nil)
		f.orders.On("RefundOrder", "o1", (*decimal.Decimal)(nil), "").
			Return(refunded, decimal.RequireFromString("100"), nil)

		w := f.do(jsonRequest(http.MethodPost, "/api/orders/o1/refund", "", "tok-u1"))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"refundAmount":100.00`)
	})

	t.Run("over the total", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login("tok-u1", "u1")
		f.authz.On("Authorize", "u1", domain.ResourceOrder, "o1").Return(nil)
		f.orders.On("RefundOrder", "o1", mock.MatchedBy(func(d *decimal.Decimal) bool {
			return d != nil && d.Equal(decimal.NewFromInt(500))
		}), "damaged").Return(
			domain.Order{}, decimal.Zero,
			fmt.Errorf("refund: %w", domain.Invalid("refund amount cannot exceed order total")),
		)

		w := f.do(jsonRequest(http.MethodPost, "/api/orders/o1/refund",
			`{"amount": 500, "reason": "damaged"}`, "tok-u1"))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "refund amount cannot exceed order total", decodeBody(t, w)["message"])
	})
}

func TestRenderPrompt(t *testing.T) {
	f := newFixture(t, nil)
	f.login("tok-u1", "u1")

	t.Run("renders", func(t *testing.T) {
		body := `{"productName": "Braai Apron", "category": "physical", "features": ["cotton", "pockets"]}`
		w := f.do(jsonRequest(http.MethodPost, "/api/ai/prompts/productDescription", body, "tok-u1"))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		prompt := decodeBody(t, w)["prompt"].(string)
		assert.Contains(t, prompt, `"Braai Apron"`)
		assert.Contains(t, prompt, "cotton, pockets")
	})

	t.Run("unknown kind", func(t *testing.T) {
		w := f.do(jsonRequest(http.MethodPost, "/api/ai/prompts/poetry", `{}`, "tok-u1"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing argument", func(t *testing.T) {
		w := f.do(jsonRequest(http.MethodPost, "/api/ai/prompts/productDescription",
			`{"productName": "Apron"}`, "tok-u1"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestResponderFail(t *testing.T) {
	tests := []struct {
		name       string
		detailed   bool
		err        error
		wantCode   int
		wantDetail bool
	}{
		{"validation", false, domain.Invalid("bad"), http.StatusBadRequest, false},
		{"conflict", false, domain.ConflictError{Field: "slug"}, http.StatusBadRequest, false},
		{"transition", false, domain.ErrInvalidTransition, http.StatusBadRequest, false},
		{"internal hidden", false, errors.New("boom"), http.StatusInternalServerError, false},
		{"internal detailed", true, errors.New("boom"), http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			responder{detailed: tt.detailed}.fail(w, discardLogger(), tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantDetail, body.Error != "")
			if tt.wantCode == http.StatusInternalServerError {
				assert.Equal(t, serverErrorMessage, body.Message)
			}
		})
	}
}

func TestRateLimiterEvictsIdle(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.limiter("10.0.0.1")
	now = now.Add(limiterIdleTTL + time.Minute)
	l.limiter("10.0.0.2")
	l.evictIdle()

	assert.NotContains(t, l.limiters, "10.0.0.1")
	assert.Contains(t, l.limiters, "10.0.0.2")
}

func TestMoneyJSON(t *testing.T) {
	var req PayoutRequest
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 150.5}`), &req))
	assert.True(t, req.Amount.Decimal().Equal(decimal.RequireFromString("150.5")))

	b, err := json.Marshal(Money(decimal.RequireFromString("7")))
	require.NoError(t, err)
	assert.Equal(t, "7.00", string(b))
}
