package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/robotech_store/internal/catalog"
	"github.com/Skotchmaster/robotech_store/internal/events"
	"github.com/Skotchmaster/robotech_store/internal/otp"
	"github.com/Skotchmaster/robotech_store/internal/repo"
	"github.com/Skotchmaster/robotech_store/internal/service"
	"github.com/Skotchmaster/robotech_store/internal/transport"
	pkgdb "github.com/Skotchmaster/robotech_store/pkg/db"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

type harness struct {
	e     *echo.Echo
	store *pkgdb.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	st, err := pkgdb.OpenSQLite(ctx, pkgdb.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cat, err := catalog.Load()
	require.NoError(t, err)
	r := repo.New(st)
	pub := &events.MemoryPublisher{}

	_, err = (&service.SchemaService{Repo: r, Catalog: cat}).Reset(ctx)
	require.NoError(t, err)

	cart := &service.CartService{Repo: r, Events: pub}
	orders := &service.OrderService{Repo: r, Events: pub}
	d := &Deps{
		Store:   st,
		Catalog: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Catalog: cat}},
		Cart:    &CartHTTP{Svc: cart},
		Auth:    &AuthHTTP{Svc: &service.AuthService{Repo: r, OTP: otp.NewMemoryStore(), Events: pub}},
		Orders:  &OrderHTTP{Svc: orders, Checkout: &service.Checkout{Cart: cart, Orders: orders}},
	}
	e := New(Options{Logger: logging.NewWithWriter(io.Discard, "error")}, d)
	return &harness{e: e, store: st}
}

func (h *harness) do(t *testing.T, method, target string, body any) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			rdr = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func productIDs(t *testing.T, body map[string]any, key string) []int {
	t.Helper()
	raw, ok := body[key].([]any)
	require.True(t, ok, "%s missing in %v", key, body)
	out := make([]int, len(raw))
	for i, it := range raw {
		m := it.(map[string]any)
		if v, ok := m["id"]; ok {
			out[i] = int(v.(float64))
		} else {
			out[i] = int(m["product_id"].(float64))
		}
	}
	return out
}

func TestGetProducts(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/api/products?category=Sensors&sort=price_low&page=1&limit=6", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []int{27, 34, 26, 22, 31, 32}, productIDs(t, body, "products"))
	assert.Equal(t, map[string]any{"total": 15.0, "page": 1.0, "limit": 6.0, "pages": 3.0}, body["pagination"])

	first := body["products"].([]any)[0].(map[string]any)
	assert.IsType(t, float64(0), first["price"])
	assert.IsType(t, true, first["is_featured"])

	code, body = h.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 10.0, body["pagination"].(map[string]any)["pages"])

	code, body = h.do(t, http.MethodGet, "/api/products?featured=true&sort=newest&limit=100", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int{59, 42, 39, 20, 13, 9, 6, 3, 2, 1}, productIDs(t, body, "products"))
}

func TestGetProductsRejectsBadParams(t *testing.T) {
	h := newHarness(t)

	for _, target := range []string{
		"/api/products?limit=0",
		"/api/products?limit=abc",
		"/api/products?page=0",
		"/api/products?featured=maybe",
	} {
		code, body := h.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.Equal(t, false, body["success"], target)
		assert.NotEmpty(t, body["error"], target)
	}

	_, body := h.do(t, http.MethodGet, "/api/products?limit=0", nil)
	assert.Equal(t, "invalid filter: limit must be between 1 and 100, got 0", body["error"])
}

func TestProductsByIDs(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodPost, "/api/products/by-ids", map[string]any{"ids": []any{22, "5", 99999}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int{5, 22}, productIDs(t, body, "products"))

	code, _ = h.do(t, http.MethodPost, "/api/products/by-ids", `{"ids": [`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSearchWithoutBackendUsesSubstringQuery(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/api/search?q=ARDUINO&limit=20", nil)
	require.Equal(t, http.StatusOK, code)
	assert.ElementsMatch(t, []int{2, 3, 4, 5, 18}, productIDs(t, body, "products"))
}

func TestCartScenario(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodPost, "/api/cart/update", map[string]any{"user_id": "u1", "product_id": 5, "quantity": 2, "phone": "+100"})
	require.Equal(t, http.StatusOK, code, body)

	code, _ = h.do(t, http.MethodPost, "/api/cart/update", map[string]any{"user_id": "u1", "product_id": "5", "quantity": "3"})
	require.Equal(t, http.StatusOK, code)

	code, body = h.do(t, http.MethodGet, "/api/cart?user_id=u1", nil)
	require.Equal(t, http.StatusOK, code)
	cart := body["cart"].([]any)
	require.Len(t, cart, 1)
	line := cart[0].(map[string]any)
	assert.Equal(t, 3.0, line["quantity"])
	assert.Equal(t, 450.0, line["price"])
	assert.Equal(t, "Arduino Uno R3", line["name"])

	code, body = h.do(t, http.MethodPost, "/api/cart/add", map[string]any{"user_id": "u1", "product_id": 5})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 4.0, body["quantity"])

	for i := 0; i < 2; i++ {
		code, _ = h.do(t, http.MethodPost, "/api/cart/update", map[string]any{"user_id": "u1", "product_id": 5, "quantity": 0})
		require.Equal(t, http.StatusOK, code)
	}
	_, body = h.do(t, http.MethodGet, "/api/cart?user_id=u1", nil)
	assert.Empty(t, body["cart"])
}

func TestCartUpdateQuantityDefaults(t *testing.T) {
	h := newHarness(t)

	cartQty := func() []any {
		_, body := h.do(t, http.MethodGet, "/api/cart?user_id=u1", nil)
		return body["cart"].([]any)
	}

	code, body := h.do(t, http.MethodPost, "/api/cart/update", map[string]any{"user_id": "u1", "product_id": 5, "quantity": 2, "phone": "+100"})
	require.Equal(t, http.StatusOK, code, body)

	code, body = h.do(t, http.MethodPost, "/api/cart/update", `{"user_id":"u1","product_id":5}`)
	require.Equal(t, http.StatusOK, code, body)
	cart := cartQty()
	require.Len(t, cart, 1)
	assert.Equal(t, 1.0, cart[0].(map[string]any)["quantity"])

	code, _ = h.do(t, http.MethodPost, "/api/cart/update", map[string]any{"user_id": "u1", "product_id": 5, "quantity": 2})
	require.Equal(t, http.StatusOK, code)

	code, body = h.do(t, http.MethodPost, "/api/cart/update", `{"user_id":"u1","product_id":5,"quantity":null}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid body", body["error"])
	cart = cartQty()
	require.Len(t, cart, 1)
	assert.Equal(t, 2.0, cart[0].(map[string]any)["quantity"])

	code, body = h.do(t, http.MethodPost, "/api/cart/add", `{"user_id":"u1","product_id":5,"quantity":null}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid body", body["error"])
	assert.Equal(t, 2.0, cartQty()[0].(map[string]any)["quantity"])
}

func TestCartErrors(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodPost, "/api/cart/update", map[string]any{"user_id": "u1", "product_id": 99999, "quantity": 1, "phone": "+1"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])

	code, _ = h.do(t, http.MethodPost, "/api/cart/update", map[string]any{"user_id": "guest", "product_id": 5, "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodPost, "/api/cart/update", map[string]any{"user_id": "u1", "product_id": "five", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = h.do(t, http.MethodGet, "/api/cart?user_id=guest", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["cart"])

	code, _ = h.do(t, http.MethodPost, "/api/cart/remove", map[string]any{"user_id": "guest", "product_id": 5})
	assert.Equal(t, http.StatusOK, code)
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodPost, "/api/send-otp", map[string]any{"phone": "+15550001"})
	require.Equal(t, http.StatusOK, code)
	otpCode := body["otp"].(string)
	assert.Len(t, otpCode, 6)

	code, _ = h.do(t, http.MethodPost, "/api/login", map[string]any{"phone": "+15550001", "otp": "12ab56"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = h.do(t, http.MethodPost, "/api/login", map[string]any{"phone": "+15550001", "otp": otpCode})
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]any)
	assert.Equal(t, service.UserIDForPhone("+15550001"), user["user_id"])
	assert.Equal(t, "+15550001", user["phone"])

	userID := user["user_id"].(string)
	_, body = h.do(t, http.MethodGet, "/api/user/status?user_id="+userID, nil)
	assert.Equal(t, true, body["logged_in"])

	code, _ = h.do(t, http.MethodPost, "/api/logout", map[string]any{"user_id": userID})
	require.Equal(t, http.StatusOK, code)
	_, body = h.do(t, http.MethodGet, "/api/user/status?user_id="+userID, nil)
	assert.Equal(t, false, body["logged_in"])

	code, _ = h.do(t, http.MethodPost, "/api/send-otp", map[string]any{"phone": ""})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestOrderFlow(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodPost, "/api/orders", map[string]any{"billing_info": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, msgUserRequired, body["error"])

	code, body = h.do(t, http.MethodPost, "/api/orders", map[string]any{"user_id": "u1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Cart is empty", body["error"])

	code, _ = h.do(t, http.MethodPost, "/api/cart/update", map[string]any{"user_id": "u1", "product_id": 5, "quantity": 2, "phone": "+100"})
	require.Equal(t, http.StatusOK, code)

	code, body = h.do(t, http.MethodPost, "/api/orders", map[string]any{
		"user_id":      "u1",
		"billing_info": map[string]any{"firstName": "Ada", "lastName": "Lovelace", "city": "London", "zipCode": "N1"},
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 900.0, body["total_amount"])
	assert.Equal(t, 1.0, body["user_order_number"])
	orderID := int(body["order_id"].(float64))

	_, body = h.do(t, http.MethodGet, "/api/cart?user_id=u1", nil)
	assert.Empty(t, body["cart"])

	code, body = h.do(t, http.MethodGet, "/api/orders?user_id=u1", nil)
	require.Equal(t, http.StatusOK, code)
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	o := orders[0].(map[string]any)
	assert.Equal(t, "Arduino Uno R3 (x2)", o["items"])
	assert.Equal(t, "Ada Lovelace", o["billing_name"])
	assert.Equal(t, "pending", o["status"])

	target := "/api/orders/" + jsonInt(orderID) + "/complete"
	for i := 0; i < 2; i++ {
		code, _ = h.do(t, http.MethodPost, target, nil)
		require.Equal(t, http.StatusOK, code)
	}
	_, body = h.do(t, http.MethodGet, "/api/orders?user_id=u1", nil)
	assert.Equal(t, "completed", body["orders"].([]any)[0].(map[string]any)["status"])

	code, _ = h.do(t, http.MethodPost, "/api/orders/999999/complete", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = h.do(t, http.MethodPost, "/api/orders/abc/complete", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = h.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, pkgdb.BackendSQLite, body["backend"])

	code, body = h.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])

	require.NoError(t, h.store.Close())
	code, _ = h.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, body = h.do(t, http.MethodGet, "/api/products?category=Sensors", nil)
	assert.Equal(t, http.StatusOK, code, "catalog reads degrade to the embedded catalog")
	assert.Equal(t, 15.0, body["pagination"].(map[string]any)["total"])
}

func TestErrorHandlerEnvelope(t *testing.T) {
	t.Parallel()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(echo.NewHTTPError(http.StatusTeapot, "short and stout"), c)

	var body transport.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, transport.ErrorResponse{Success: false, Error: "short and stout"}, body)
}
