// routes/routes.go
package routes

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/controllers"
	"storefront/metrics"
	"storefront/middleware"
	"storefront/utils"
)

// Controllers groups every HTTP handler set.
type Controllers struct {
	Users    *controllers.UserController
	Products *controllers.ProductController
	Cart     *controllers.CartController
	Wishlist *controllers.WishlistController
	Orders   *controllers.OrderController
	Reviews  *controllers.ReviewController
	Admin    *controllers.AdminController
}

// Options carries the cross-cutting pieces the routes need.
type Options struct {
	JWT         *utils.JWTManager
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	AuthLimiter *middleware.RateLimiter
	// Users re-checks the session account on every authenticated request.
	// Nil trusts the token claims alone.
	Users middleware.UserFinder
	// Health reports dependency health for GET /health. Nil means always healthy.
	Health func(ctx context.Context) error
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, opts Options) {
	authed := middleware.Auth(opts.JWT)
	if opts.Users != nil {
		current := middleware.CurrentUser(opts.Users)
		verify := authed
		authed = func(next http.Handler) http.Handler { return verify(current(next)) }
	}
	user := func(h http.HandlerFunc) http.Handler { return authed(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authed(middleware.AdminMiddleware(h)) }
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		if opts.AuthLimiter == nil {
			return h
		}
		return opts.AuthLimiter.Wrap(h)
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.NewNop()
	}
	router.Use(middleware.Logging(m))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	// Public routes
	router.HandleFunc("/register", limited(c.Users.Register)).Methods(http.MethodPost)
	router.HandleFunc("/login", limited(c.Users.Login)).Methods(http.MethodPost)
	router.HandleFunc("/logout", c.Users.Logout).Methods(http.MethodPost)
	router.HandleFunc("/health", health(opts.Health)).Methods(http.MethodGet)
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// Account routes
	router.Handle("/me", user(c.Users.GetProfile)).Methods(http.MethodGet)
	router.Handle("/me", user(c.Users.UpdateProfile)).Methods(http.MethodPatch)

	// Product routes
	router.HandleFunc("/products", c.Products.GetProducts).Methods(http.MethodGet)
	router.Handle("/products", admin(c.Products.CreateProduct)).Methods(http.MethodPost)
	router.HandleFunc("/products/{id}", c.Products.GetProductByID).Methods(http.MethodGet)
	router.Handle("/products/{id}", admin(c.Products.UpdateProduct)).Methods(http.MethodPatch)
	router.Handle("/products/{id}", admin(c.Products.DeleteProduct)).Methods(http.MethodDelete)
	router.HandleFunc("/products/{id}/reviews", c.Reviews.GetProductReviews).Methods(http.MethodGet)
	router.HandleFunc("/products/{id}/reviews/summary", c.Reviews.GetReviewSummary).Methods(http.MethodGet)

	// Cart routes
	router.Handle("/cart", user(c.Cart.GetCart)).Methods(http.MethodGet)
	router.Handle("/cart", user(c.Cart.AddToCart)).Methods(http.MethodPost)
	router.Handle("/cart/{id}", user(c.Cart.UpdateCartItem)).Methods(http.MethodPatch)
	router.Handle("/cart/{id}", user(c.Cart.RemoveFromCart)).Methods(http.MethodDelete)

	// Wishlist routes
	router.Handle("/wishlist", user(c.Wishlist.GetWishlist)).Methods(http.MethodGet)
	router.Handle("/wishlist", user(c.Wishlist.AddToWishlist)).Methods(http.MethodPost)
	router.Handle("/wishlist/products/{productId}", user(c.Wishlist.GetProduct)).Methods(http.MethodGet)
	router.Handle("/wishlist/products/{productId}", user(c.Wishlist.PutProduct)).Methods(http.MethodPut)
	router.Handle("/wishlist/products/{productId}", user(c.Wishlist.DeleteProduct)).Methods(http.MethodDelete)
	router.Handle("/wishlist/{id}", user(c.Wishlist.RemoveFromWishlist)).Methods(http.MethodDelete)

	// Order routes
	router.Handle("/orders", user(c.Orders.GetOrders)).Methods(http.MethodGet)
	router.Handle("/orders", user(c.Orders.CreateOrder)).Methods(http.MethodPost)
	router.Handle("/orders/{id}", user(c.Orders.GetOrder)).Methods(http.MethodGet)

	// Review routes
	router.HandleFunc("/reviews", c.Reviews.GetReviews).Methods(http.MethodGet)
	router.Handle("/reviews", user(c.Reviews.CreateReview)).Methods(http.MethodPost)

	// Admin routes
	router.Handle("/admin/stats", admin(c.Admin.GetStats)).Methods(http.MethodGet)
	router.Handle("/admin/orders", admin(c.Orders.ListAllOrders)).Methods(http.MethodGet)
	router.Handle("/admin/orders/{id}", admin(c.Orders.UpdateOrderStatus)).Methods(http.MethodPatch)
	router.Handle("/admin/users", admin(c.Users.ListUsers)).Methods(http.MethodGet)
	router.Handle("/admin/users/{id}", admin(c.Users.UpdateUser)).Methods(http.MethodPatch)
	router.Handle("/admin/reviews", admin(c.Reviews.GetReviews)).Methods(http.MethodGet)
	router.Handle("/admin/reviews/{id}", admin(c.Reviews.DeleteReview)).Methods(http.MethodDelete)
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				slog.WarnContext(r.Context(), "health check failed", "error", err)
				utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
