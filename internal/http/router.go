package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/internal/store"
	"github.com/goodbridge/givestack/pkg/httpx"
	"github.com/goodbridge/givestack/pkg/jwtx"
	"github.com/goodbridge/givestack/pkg/slogx"

	_ "github.com/goodbridge/givestack/api" // Swagger docs
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store                store.Store
	AuthService          *service.AuthService
	ProfileService       *service.ProfileService
	DonationService      *service.DonationService
	AdminService         *service.AdminService
	PasswordResetService *service.PasswordResetService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	allowedOrigins []string,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		c.Handler,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerDonations()
	r.registerWebhooks()
	r.registerAdmin()
	r.registerPasswordReset()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			GiveStack Donations API
//	@version		0.1.0
//	@description	Donation management service: user accounts, hosted-checkout donations,
//	@description	payment reconciliation via polling and webhooks, and admin aggregates.
//
//	@contact.name				GoodBridge Team
//	@contact.url				https://github.com/goodbridge/givestack
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	registerHandler := &RegisterHandler{AuthService: r.AuthService}
	loginHandler := &LoginHandler{AuthService: r.AuthService}

	// Account creation and login are the brute-force surface, so both get
	// the strict per-IP limit.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &ProfileHandler{ProfileService: r.ProfileService}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	r.Mux.Handle("GET /v1/users/me", secured)
}

func (r *Router) registerDonations() {
	initiateHandler := &DonationInitiateHandler{DonationService: r.DonationService}
	verifyHandler := &DonationVerifyHandler{DonationService: r.DonationService}

	// POST /donations opens a checkout session with the provider, so keep
	// the per-user limit moderate.
	r.Mux.Handle("POST /v1/donations",
		httpx.Chain(initiateHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// The success page polls this, so it needs headroom.
	r.Mux.Handle("GET /v1/donations/verify/{session_id}",
		httpx.Chain(verifyHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerWebhooks() {
	h := &WebhookHandler{DonationService: r.DonationService}

	// Unauthenticated by design: the signature check is the authentication.
	r.Mux.Handle("POST /v1/webhooks/payment",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &DashboardHandler{AdminService: r.AdminService}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireRole("admin"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("GET /v1/admin/dashboard", secured)
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{PasswordResetService: r.PasswordResetService}

	// All three steps are unauthenticated and email-keyed; strict per-IP
	// limits slow down both OTP guessing and reset spam.
	r.Mux.Handle("POST /v1/password-reset/request",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/password-reset/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/password-reset/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
