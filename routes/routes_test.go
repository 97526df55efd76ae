package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/controllers"
	"storefront/metrics"
	"storefront/middleware"
	"storefront/models"
	"storefront/services"
	"storefront/store"
	"storefront/store/memstore"
	"storefront/utils"
)

type testServer struct {
	router *mux.Router
	store  *memstore.Store
	jwt    *utils.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := memstore.New()
	jwt := utils.NewJWTManager("routes-test-secret-123", time.Hour)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := services.New(services.Deps{
		Store:      db,
		JWT:        jwt,
		Metrics:    m,
		Background: func(f func()) { f() },
	})
	router := mux.NewRouter()
	RegisterRoutes(router, Controllers{
		Users:    controllers.NewUserController(svc.Accounts, time.Hour, false),
		Products: controllers.NewProductController(svc.Catalog),
		Cart:     controllers.NewCartController(svc.Lines),
		Wishlist: controllers.NewWishlistController(svc.Lines),
		Orders:   controllers.NewOrderController(svc.Orders),
		Reviews:  controllers.NewReviewController(svc.Reviews),
		Admin:    controllers.NewAdminController(svc.Admin),
	}, Options{
		JWT:         jwt,
		Metrics:     m,
		Gatherer:    reg,
		AuthLimiter: middleware.NewRateLimiter(100, 100),
		Users:       db,
	})
	return &testServer{router: router, store: db, jwt: jwt}
}

func (s *testServer) user(t *testing.T, email, role string) (models.User, string) {
	t.Helper()
	u := models.User{
		Name:    "User " + email,
		Email:   email,
		Role:    role,
		Status:  models.UserActive,
		Address: models.Address{Street: "1 Main St", City: "Springfield"},
	}
	require.NoError(t, s.store.InsertUser(context.Background(), &u))
	token, err := s.jwt.GenerateJWT(u.ID.Hex(), role, u.Name)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) product(t *testing.T, name string, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: 25, Category: "bedroom", StockQuantity: stock, CreatedAt: time.Now()}
	require.NoError(t, s.store.InsertProduct(context.Background(), &p))
	return p
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCartScenario(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "cart@example.com", models.RoleUser)
	p := s.product(t, "Quilt", 10)

	rec := s.do(t, http.MethodPost, "/cart", token, map[string]interface{}{"productId": p.ID.Hex(), "quantity": 7})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	line := decode[models.LineItem](t, rec)
	assert.Equal(t, 7, line.Quantity)

	rec = s.do(t, http.MethodPost, "/cart", token, map[string]interface{}{"productId": p.ID.Hex(), "quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	merged := decode[models.LineItem](t, rec)
	assert.Equal(t, 10, merged.Quantity)
	assert.Equal(t, line.ID, merged.ID)

	rec = s.do(t, http.MethodPatch, "/cart/"+line.ID.Hex(), token, map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decode[models.LineItem](t, rec).Quantity)

	rec = s.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[models.CartView](t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Quilt", cart.Items[0].Product.Name)
	assert.Equal(t, 75.0, cart.Subtotal)

	rec = s.do(t, http.MethodDelete, "/cart/"+line.ID.Hex(), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/cart/"+line.ID.Hex(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[utils.ErrorBody](t, rec)
	assert.Equal(t, "NOT_FOUND", body.Error)
}

func TestCartShowsLiveStock(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "stock@example.com", models.RoleUser)
	a := s.product(t, "Dresser", 5)
	b := s.product(t, "Mirror", 3)

	for _, p := range []models.Product{a, b} {
		rec := s.do(t, http.MethodPost, "/cart", token, map[string]interface{}{"productId": p.ID.Hex(), "quantity": 1})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	zero := 0
	_, err := s.store.UpdateProduct(context.Background(), b.ID, store.ProductUpdate{StockQuantity: &zero}, time.Now())
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[models.CartView](t, rec)
	require.Len(t, cart.Items, 2)

	stock := map[string]int{}
	for _, item := range cart.Items {
		stock[item.Product.Name] = item.Product.StockQuantity
	}
	assert.Equal(t, map[string]int{"Dresser": 5, "Mirror": 0}, stock)
}

func TestCartErrors(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "errors@example.com", models.RoleUser)
	p := s.product(t, "Pillow", 4)

	rec := s.do(t, http.MethodPost, "/cart", "", map[string]interface{}{"productId": p.ID.Hex(), "quantity": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart", "not-a-token", map[string]interface{}{"productId": p.ID.Hex(), "quantity": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart", token, map[string]interface{}{"productId": p.ID.Hex(), "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart", token, map[string]interface{}{"productId": "nope", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart", token, map[string]interface{}{"productId": models.Product{}.ID.Hex(), "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, "/cart/"+p.ID.Hex(), token, map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartBearerHeader(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "bearer@example.com", models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartConcurrentAdds(t *testing.T) {
	s := newTestServer(t)
	user, token := s.user(t, "race@example.com", models.RoleUser)
	p := s.product(t, "Blanket", 10)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = s.do(t, http.MethodPost, "/cart", token, map[string]interface{}{"productId": p.ID.Hex(), "quantity": 1}).Code
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusOK}, codes)
	lines, err := s.store.ListLines(context.Background(), models.KindCart, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestWishlistToggle(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "wish@example.com", models.RoleUser)
	p := s.product(t, "Vase", 0)
	path := "/wishlist/products/" + p.ID.Hex()

	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPut, path, token, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, path, token, nil).Code)

	rec := s.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, map[string]bool{"inWishlist": true}, decode[map[string]bool](t, rec))

	rec = s.do(t, http.MethodGet, "/wishlist", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.LineView](t, rec), 1)

	rec = s.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, map[string]bool{"removed": true}, decode[map[string]bool](t, rec))
	rec = s.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"removed": false}, decode[map[string]bool](t, rec))

	rec = s.do(t, http.MethodPost, "/wishlist", token, map[string]string{"productId": p.ID.Hex()})
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[models.LineItem](t, rec)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/wishlist/"+entry.ID.Hex(), token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/wishlist/"+entry.ID.Hex(), token, nil).Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.user(t, "plain@example.com", models.RoleUser)
	_, adminToken := s.user(t, "admin@example.com", models.RoleAdmin)
	body := map[string]interface{}{"name": "Desk", "category": "office", "price": 10, "stockQuantity": 2}

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/products", "", body).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/products", userToken, body).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/admin/stats", userToken, nil).Code)

	rec := s.do(t, http.MethodPost, "/products", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Product](t, rec)

	rec = s.do(t, http.MethodGet, "/products/"+created.ID.Hex(), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[services.Stats](t, rec).Products)
}

func TestSessionsFollowAccountChanges(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	admin, adminToken := s.user(t, "boss@example.com", models.RoleAdmin)
	shopper, shopperToken := s.user(t, "shopper@example.com", models.RoleUser)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/admin/stats", adminToken, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/me", shopperToken, nil).Code)

	role := models.RoleUser
	_, err := s.store.UpdateUser(ctx, admin.ID, store.UserUpdate{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/admin/stats", adminToken, nil).Code,
		"demotion applies to an existing token")

	status := models.UserInactive
	_, err = s.store.UpdateUser(ctx, shopper.ID, store.UserUpdate{Status: &status})
	require.NoError(t, err)
	rec := s.do(t, http.MethodGet, "/cart", shopperToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", decode[utils.ErrorBody](t, rec).Error)
}

func TestLoginSetsCookieAndCheckout(t *testing.T) {
	s := newTestServer(t)
	p := s.product(t, "Lamp", 5)

	rec := s.do(t, http.MethodPost, "/register", "", map[string]string{"name": "Grace", "email": "grace@example.com", "password": "s3cret!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "grace@example.com", "password": "s3cret!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.CookieName {
			token = c.Value
			assert.True(t, c.HttpOnly)
		}
	}
	require.NotEmpty(t, token)

	rec = s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "grace@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/cart", token, map[string]interface{}{"productId": p.ID.Hex(), "quantity": 2}).Code)
	rec = s.do(t, http.MethodPost, "/orders", token, map[string]interface{}{
		"shippingAddress": map[string]string{"street": "5 Oak Ave", "city": "Portland"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.Equal(t, 50.0, order.Total)
	assert.Equal(t, models.StatusPending, order.Status)

	rec = s.do(t, http.MethodGet, "/orders/"+order.ID.Hex(), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.do(t, http.MethodGet, "/products", "", nil)
	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_http_requests_total{method="GET",route="/products",status="200"} 1`)

	rec = s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
