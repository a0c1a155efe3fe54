package router

import (
	"net/http"
	"strings"

	"agora-express/internal/auth"
	"agora-express/internal/handler"
	"agora-express/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	authHandler *handler.AuthHandler,
	menuHandler *handler.MenuHandler,
	orderHandler *handler.OrderHandler,
	loyaltyHandler *handler.LoyaltyHandler,
	tokens *auth.TokenManager,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.BearerAuth(tokens, logger)
	requireAdmin := func(h http.Handler) http.Handler {
		return requireAuth(middleware.AdminOnly(logger)(h))
	}

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	// Auth routes
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/login", authHandler.Login)

	// Menu routes are public reads; the categories path must be checked
	// before treating the remainder as an item id.
	menuRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/menu" || r.URL.Path == "/api/menu/":
			menuHandler.List(w, r)
		case r.URL.Path == "/api/menu/categories":
			menuHandler.Categories(w, r)
		default:
			menuHandler.GetByID(w, r)
		}
	}
	mux.HandleFunc("/api/menu", menuRouteHandler)
	mux.HandleFunc("/api/menu/", menuRouteHandler)

	// Order routes (authenticated)
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			orderHandler.Create(w, r)
		case http.MethodGet:
			orderHandler.ListMine(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
	mux.Handle("/api/orders", requireAuth(http.HandlerFunc(orderRouteHandler)))
	mux.Handle("/api/orders/", requireAuth(http.HandlerFunc(orderRouteHandler)))

	// Payment routes (authenticated)
	mux.Handle("/api/payments", requireAuth(http.HandlerFunc(orderHandler.ProcessPayment)))

	// Coin ledger routes (authenticated)
	mux.Handle("/api/coins/balance", requireAuth(http.HandlerFunc(loyaltyHandler.Balance)))
	mux.Handle("/api/coins/transactions", requireAuth(http.HandlerFunc(loyaltyHandler.Transactions)))

	// Loyalty routes (authenticated)
	loyaltyRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/loyalty/stamps" || r.URL.Path == "/api/loyalty/stamps/":
			loyaltyHandler.ListCards(w, r)
		case r.URL.Path == "/api/loyalty/stamps/activate":
			loyaltyHandler.ActivateCard(w, r)
		case strings.HasSuffix(r.URL.Path, "/add"):
			loyaltyHandler.AddStamp(w, r)
		case r.URL.Path == "/api/loyalty/gifts" || r.URL.Path == "/api/loyalty/gifts/":
			loyaltyHandler.ListGifts(w, r)
		case r.URL.Path == "/api/loyalty/gifts/redeem":
			loyaltyHandler.RedeemGift(w, r)
		case r.URL.Path == "/api/loyalty/user-gifts":
			loyaltyHandler.ListUserGifts(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
	mux.Handle("/api/loyalty/", requireAuth(http.HandlerFunc(loyaltyRouteHandler)))

	// Admin routes (authenticated + admin role)
	adminOrderHandler := func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/status") {
			orderHandler.UpdateStatus(w, r)
			return
		}
		orderHandler.ListAll(w, r)
	}
	mux.Handle("/api/admin/orders", requireAdmin(http.HandlerFunc(adminOrderHandler)))
	mux.Handle("/api/admin/orders/", requireAdmin(http.HandlerFunc(adminOrderHandler)))

	adminMenuHandler := func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/admin/menu/categories") {
			menuHandler.AdminCategories(w, r)
			return
		}
		menuHandler.AdminItems(w, r)
	}
	mux.Handle("/api/admin/menu", requireAdmin(http.HandlerFunc(adminMenuHandler)))
	mux.Handle("/api/admin/menu/", requireAdmin(http.HandlerFunc(adminMenuHandler)))

	mux.Handle("/api/admin/gifts", requireAdmin(http.HandlerFunc(loyaltyHandler.CreateGift)))

	// Apply middleware in order: Recovery -> Logging -> CORS
	var h http.Handler = mux
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
