package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (*gin.Engine, *auth.JWTer) {
	gin.SetMode(gin.TestMode)
	jwter := &auth.JWTer{Secret: []byte("test-secret"), TTL: time.Hour}

	router := gin.New()
	h := NewHandler(nil, nil, nil, nil, nil, nil, jwter)
	h.SetupRoutes(router)
	return router, jwter
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter()

	// hit it twice so the first scrape's own request counter is visible
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		if i == 1 {
			assert.Contains(t, w.Body.String(), "http_requests_total")
		}
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter()

	for _, route := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/cart"},
		{http.MethodPost, "/api/order/add"},
		{http.MethodGet, "/api/wishlist"},
		{http.MethodPost, "/api/product/add"},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(route.method, route.path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleEnforcement(t *testing.T) {
	router, jwter := newTestRouter()

	memberToken, err := jwter.Issue(2, "jane@example.com", models.RoleMember)
	require.NoError(t, err)

	// a member may not drive the status chain
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/order/status/1", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// nor create catalog entries
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/product/add", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// fakeCatalogStore serves only the reference listings; everything else
// falls through to the embedded nil interface.
type fakeCatalogStore struct {
	service.CatalogStore
	brands     []models.Brand
	categories []models.Category
}

func (f *fakeCatalogStore) ListBrands(_ context.Context, activeOnly bool) ([]models.Brand, error) {
	var out []models.Brand
	for _, b := range f.brands {
		if !activeOnly || b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) ListCategories(_ context.Context, activeOnly bool) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		if !activeOnly || c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func countListing(t *testing.T, body []byte) int {
	t.Helper()
	var payload map[string][]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &payload))
	for _, items := range payload {
		return len(items)
	}
	return 0
}

func TestReferenceListingsWidenForAdmins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwter := &auth.JWTer{Secret: []byte("test-secret"), TTL: time.Hour}
	fs := &fakeCatalogStore{
		brands: []models.Brand{
			{ID: 1, Name: "Acme", IsActive: true},
			{ID: 2, Name: "Retired", IsActive: false},
		},
		categories: []models.Category{
			{ID: 1, Name: "Audio", IsActive: true},
			{ID: 2, Name: "Legacy", IsActive: false},
		},
	}
	router := gin.New()
	h := NewHandler(nil, service.NewCatalogService(fs, nil), nil, nil, nil, nil, jwter)
	h.SetupRoutes(router)

	adminToken, err := jwter.Issue(1, "admin@example.com", models.RoleAdmin)
	require.NoError(t, err)

	for _, path := range []string{"/api/brand", "/api/category"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, countListing(t, w.Body.Bytes()),
			"anonymous callers see only active entries at %s", path)

		w = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, countListing(t, w.Body.Bytes()),
			"admins see deactivated entries at %s", path)
	}
}

// fakeOrderListStore serves only the order listing.
type fakeOrderListStore struct {
	service.OrderStore
	orders []models.Order
}

func (f *fakeOrderListStore) ListOrders(_ context.Context, fl store.OrderFilter) ([]models.Order, int, error) {
	var out []models.Order
	for _, o := range f.orders {
		if fl.UserID == 0 || o.UserID == fl.UserID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func TestOrderSearchPinsMembersToOwnOrders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwter := &auth.JWTer{Secret: []byte("test-secret"), TTL: time.Hour}
	fs := &fakeOrderListStore{orders: []models.Order{
		{ID: 1, UserID: 2, OrderNumber: "o-2"},
		{ID: 2, UserID: 3, OrderNumber: "o-3"},
	}}
	router := gin.New()
	h := NewHandler(nil, nil, nil, service.NewOrderService(fs, nil), nil, nil, jwter)
	h.SetupRoutes(router)

	search := func(token string) []models.Order {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/order/search?user_id=3", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var listing struct {
			Orders []models.Order `json:"orders"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
		return listing.Orders
	}

	memberToken, err := jwter.Issue(2, "jane@example.com", models.RoleMember)
	require.NoError(t, err)
	orders := search(memberToken)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(2), orders[0].UserID, "member search must stay pinned to the caller")

	adminToken, err := jwter.Issue(1, "admin@example.com", models.RoleAdmin)
	require.NoError(t, err)
	orders = search(adminToken)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(3), orders[0].UserID)
}
