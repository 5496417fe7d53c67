package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freshmart/storefront-backend/api/controllers"
	"github.com/freshmart/storefront-backend/api/middleware"
	"github.com/freshmart/storefront-backend/internal/auth"
	"github.com/freshmart/storefront-backend/internal/cart"
	"github.com/freshmart/storefront-backend/internal/catalog"
	"github.com/freshmart/storefront-backend/internal/checkout"
	"github.com/freshmart/storefront-backend/internal/favorites"
	"github.com/freshmart/storefront-backend/internal/invoices"
	"github.com/freshmart/storefront-backend/internal/media"
	"github.com/freshmart/storefront-backend/internal/paymentmethods"
	"github.com/freshmart/storefront-backend/internal/purchasehistory"
	"github.com/freshmart/storefront-backend/internal/reports"
	"github.com/freshmart/storefront-backend/internal/reviews"
	"github.com/freshmart/storefront-backend/internal/users"
	"github.com/freshmart/storefront-backend/pkg/auth/session"
	"github.com/freshmart/storefront-backend/pkg/config"
	"github.com/freshmart/storefront-backend/pkg/enums"
	"github.com/freshmart/storefront-backend/pkg/logger"
	"github.com/freshmart/storefront-backend/pkg/metrics"
	"github.com/freshmart/storefront-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface is wired to. Gatherer, Metrics
// and the pingers are optional.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Sessions *session.Manager
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Auth            auth.Service
	Users           users.Service
	PaymentMethods  paymentmethods.Service
	Catalog         catalog.Service
	Favorites       favorites.Service
	Reviews         reviews.Service
	Cart            *cart.Manager
	Checkout        *checkout.Engine
	Invoices        invoices.Service
	PurchaseHistory purchasehistory.Service
	Reports         reports.Service
	Media           media.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.Metrics),
		middleware.CORS(cfg.Store.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["db"] = deps.DB
	}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}
	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, readiness))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	if cfg.Upload.Dir != "" && cfg.Upload.PublicURL != "" {
		images := http.StripPrefix(cfg.Upload.PublicURL, http.FileServer(imageFS{root: http.Dir(cfg.Upload.Dir)}))
		r.Handle(cfg.Upload.PublicURL+"/*", images)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(deps.Sessions, logg))

		r.Get("/register", controllers.AuthRegisterPage(logg))
		r.Get("/login", controllers.AuthLoginPage(logg))
		if deps.Redis != nil {
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		} else {
			r.Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
		}
		r.Get("/logout", controllers.AuthLogout(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(deps.Cart, logg))
			r.Post("/add", controllers.CartAdd(deps.Cart, logg))
			r.Post("/update/{productId}", controllers.CartUpdate(deps.Cart, logg))
			r.Post("/remove/{productId}", controllers.CartRemove(deps.Cart, logg))
			r.Post("/clear", controllers.CartClear(deps.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser())

			r.Get("/shopping", controllers.ProductsShopping(deps.Catalog, deps.Favorites, logg))
			r.Get("/product/{id}", controllers.ProductsDetail(deps.Catalog, deps.Reviews, deps.Favorites, logg))
			r.Post("/product/{id}/reviews", controllers.ReviewsCreate(deps.Reviews, logg))
			r.Get("/reviews", controllers.ReviewsMine(deps.Reviews, logg))

			r.Get("/favorites", controllers.FavoritesList(deps.Favorites, logg))
			r.Post("/favorites/{productId}", controllers.FavoritesSet(deps.Favorites, true, logg))
			r.Post("/favorites/{productId}/remove", controllers.FavoritesSet(deps.Favorites, false, logg))

			r.Post("/checkout", controllers.CheckoutRedirect())
			r.Get("/payment", controllers.PaymentPage(deps.Checkout, logg))
			r.Post("/payment", controllers.ProcessPayment(deps.Checkout, logg))

			r.Get("/invoice", controllers.InvoiceLatest(deps.Invoices, logg))
			r.Get("/invoice/{id}", controllers.InvoiceShow(deps.Invoices, logg))
			r.Get("/purchase-history", controllers.PurchaseHistory(deps.PurchaseHistory, logg))

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", controllers.ProfileShow(deps.Users, logg))
				r.Post("/", controllers.ProfileUpdate(deps.Users, logg))
				r.Post("/password", controllers.ProfilePassword(deps.Users, logg))
				r.Post("/payment-method", controllers.ProfileSavePaymentMethod(deps.PaymentMethods, logg))
				r.Post("/payment-method/delete", controllers.ProfileDeletePaymentMethod(deps.PaymentMethods, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", controllers.InventoryList(deps.Catalog, logg))
				r.Post("/add", controllers.InventoryAdd(deps.Catalog, deps.Media, cfg.Upload.MaxBytes, logg))
				r.Post("/edit/{id}", controllers.InventoryEdit(deps.Catalog, deps.Media, cfg.Upload.MaxBytes, logg))
				r.Post("/delete/{id}", controllers.InventoryDelete(deps.Catalog, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/dashboard", controllers.AdminDashboard(deps.Reports, logg))
				r.Get("/users", controllers.AdminUsersList(deps.Users, logg))
				r.Post("/users/{id}/promote", controllers.AdminUsersPromote(deps.Users, logg))
				r.Post("/users/{id}/delete", controllers.AdminUsersDelete(deps.Users, logg))
			})
		})
	})

	return r
}
