package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkimani/campus-delivery-backend/api/controllers"
	"github.com/jkimani/campus-delivery-backend/api/middleware"
	"github.com/jkimani/campus-delivery-backend/internal/agents"
	"github.com/jkimani/campus-delivery-backend/internal/auth"
	"github.com/jkimani/campus-delivery-backend/internal/cart"
	"github.com/jkimani/campus-delivery-backend/internal/catalog"
	"github.com/jkimani/campus-delivery-backend/internal/notifications"
	"github.com/jkimani/campus-delivery-backend/internal/orders"
	"github.com/jkimani/campus-delivery-backend/internal/payments"
	"github.com/jkimani/campus-delivery-backend/internal/reviews"
	"github.com/jkimani/campus-delivery-backend/pkg/config"
	"github.com/jkimani/campus-delivery-backend/pkg/db"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	"github.com/jkimani/campus-delivery-backend/pkg/logger"
	"github.com/jkimani/campus-delivery-backend/pkg/redis"
)

// Dependencies carries everything the router needs to mount handlers.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	Redis  *redis.Client

	Auth          auth.Service
	Agents        agents.Service
	Catalog       catalog.Service
	Cart          cart.Service
	Orders        orders.Service
	Payments      payments.Service
	Reviews       reviews.Service
	Notifications notifications.Service
}

// Router assembles the full HTTP surface.
func Router(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS())

	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, deps.DB, logg))

	authn := middleware.Auth(cfg.JWT, logg)
	customerOnly := middleware.RequireRole(enums.UserRoleCustomer, logg)
	adminOnly := middleware.RequireRole(enums.UserRoleAdmin, logg)
	agentOnly := middleware.RequireRole(enums.UserRoleAgent, logg)

	loginLimit := middleware.AuthRateLimit(
		middleware.NewAuthRateLimitPolicy("login", cfg.AuthRateLimit.LoginWindow, cfg.AuthRateLimit.LoginIPLimit, cfg.AuthRateLimit.LoginEmailLimit),
		deps.Redis, logg)
	registerLimit := middleware.AuthRateLimit(
		middleware.NewAuthRateLimitPolicy("register", cfg.AuthRateLimit.RegisterWindow, cfg.AuthRateLimit.RegisterIPLimit, cfg.AuthRateLimit.RegisterEmailLimit),
		deps.Redis, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(registerLimit).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(loginLimit).Post("/verify-otp", controllers.AuthVerifyOTP(deps.Auth, logg))
			r.With(loginLimit).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		})

		r.With(loginLimit).Post("/admin/login", controllers.AdminLogin(deps.Auth, logg))

		r.Route("/agents", func(r chi.Router) {
			r.With(registerLimit).Post("/register", controllers.AgentRegister(deps.Agents, logg))
			r.With(loginLimit).Post("/login", controllers.AgentLogin(deps.Agents, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn, adminOnly)
				r.Get("/", controllers.AgentList(deps.Agents, logg))
				r.Get("/{agentId}", controllers.AgentGet(deps.Agents, logg))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(deps.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn, adminOnly)
				r.Post("/", controllers.CategoryCreate(deps.Catalog, logg))
				r.Put("/{categoryId}", controllers.CategoryUpdate(deps.Catalog, logg))
				r.Delete("/{categoryId}", controllers.CategoryDelete(deps.Catalog, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Catalog, logg))
			r.Get("/{productId}", controllers.ProductGet(deps.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn, adminOnly)
				r.Post("/", controllers.ProductCreate(deps.Catalog, logg))
				r.Put("/{productId}", controllers.ProductUpdate(deps.Catalog, logg))
				r.Delete("/{productId}", controllers.ProductDelete(deps.Catalog, logg))
			})
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", controllers.ServiceList(deps.Catalog, logg))
			r.Get("/{serviceId}", controllers.ServiceGet(deps.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn, adminOnly)
				r.Post("/", controllers.ServiceCreate(deps.Catalog, logg))
				r.Put("/{serviceId}", controllers.ServiceUpdate(deps.Catalog, logg))
				r.Delete("/{serviceId}", controllers.ServiceDelete(deps.Catalog, logg))
			})
		})

		r.Route("/reviews/{kind}/{itemId}", func(r chi.Router) {
			r.Get("/", controllers.ReviewList(deps.Reviews, logg))
			r.With(authn, customerOnly).Post("/", controllers.ReviewCreate(deps.Reviews, logg))
		})
		r.With(authn).Delete("/reviews/{reviewId}", controllers.ReviewDelete(deps.Reviews, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(authn, customerOnly)
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Post("/items", controllers.CartAdd(deps.Cart, logg))
			r.Put("/items/{lineId}", controllers.CartUpdateQuantity(deps.Cart, logg))
			r.Delete("/items/{lineId}", controllers.CartRemove(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authn)

			r.Group(func(r chi.Router) {
				r.Use(customerOnly)
				r.Post("/", controllers.OrderPlace(deps.Orders, logg))
				r.Get("/", controllers.OrderList(deps.Orders, logg))
				r.Get("/{orderId}/tracking", controllers.OrderTracking(deps.Orders, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, enums.UserRoleCustomer, enums.UserRoleAdmin))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(deps.Orders, logg))
				r.Delete("/{orderId}", controllers.OrderDelete(deps.Orders, logg))
			})

			r.With(middleware.RequireAnyRole(logg, enums.UserRoleAgent, enums.UserRoleAdmin)).
				Put("/{orderId}/tracking", controllers.AgentUpdateDeliveryStatus(deps.Orders, logg))
			r.With(adminOnly).Put("/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))

			r.Get("/{orderId}", controllers.OrderGet(deps.Orders, logg))
		})

		r.Route("/agent/orders", func(r chi.Router) {
			r.Use(authn, agentOnly)
			r.Get("/", controllers.AgentAssignedOrders(deps.Orders, logg))
			r.Put("/{orderId}/delivery-status", controllers.AgentUpdateDeliveryStatus(deps.Orders, logg))
		})

		r.Route("/admin/orders", func(r chi.Router) {
			r.Use(authn, adminOnly)
			r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			// Provider webhook: authenticated by CheckoutRequestID
			// lookup, not by bearer token.
			r.Post("/stk-callback", controllers.PaymentCallback(deps.Payments, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn, customerOnly)
				r.Post("/initiate", controllers.PaymentInitiate(deps.Payments, logg))
				r.Get("/orders/{orderId}", controllers.PaymentStatus(deps.Payments, logg))
			})

			r.With(authn).Get("/status/{paymentId}", controllers.PaymentStatusByID(deps.Payments, logg))

			r.With(authn, adminOnly).Post("/{paymentId}/refund", controllers.PaymentRefund(deps.Payments, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", controllers.NotificationList(deps.Notifications, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(deps.Notifications, logg))
		})
	})

	return r
}
