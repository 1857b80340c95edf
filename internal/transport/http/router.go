package http

import (
	"net/http"

	"github.com/formrelay-api/internal/application/account"
	"github.com/formrelay-api/internal/application/auth"
	"github.com/formrelay-api/internal/application/relay"
	"github.com/formrelay-api/internal/config"
	"github.com/formrelay-api/internal/transport/http/handler"
	appmiddleware "github.com/formrelay-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	sessionMw := appmiddleware.SessionAuth(deps.JWTProvider, deps.AccountRepo)

	// Relay path: fixed-window per-IP counter, rejected before dispatch.
	relayRL := appmiddleware.NewRateLimiter(cfg.RelayRateMax, cfg.RelayRateWindow)
	// Sensitive auth endpoints: 5 requests/second, burst of 10.
	sensitive := appmiddleware.NewThrottle(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		Hasher:      deps.Hasher,
		Signer:      deps.JWTProvider,
		Mailer:      deps.Mailer,
		FrontendURL: cfg.FrontendURL,
	})
	accountSvc := account.NewService(deps.AccountRepo)
	relaySvc := relay.NewService(deps.AccountRepo, deps.Mailer)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, deps.JWTProvider.Expiry(), cfg.IsProduction())
	accountH := handler.NewAccountHandler(accountSvc)
	relayH := handler.NewRelayHandler(relaySvc)

	r.Get("/health", healthH.Ping)

	r.Route("/auth", func(r chi.Router) {
		// ── Public routes (no session) ───────────────────────────────────────
		r.With(sensitive.Limit).Post("/register", authH.Register)
		r.With(sensitive.Limit).Post("/login", authH.Login)
		r.Post("/logout", authH.Logout)
		r.Get("/verify-email/{token}", authH.VerifyEmail)
		r.With(sensitive.Limit).Post("/forgot-password", authH.ForgotPassword)
		r.Post("/reset-password/{token}", authH.ResetPassword)

		// ── Session-authenticated routes ─────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(sessionMw)

			r.Get("/me", accountH.Me)
			r.Delete("/me", accountH.Delete)
			r.Put("/profile", accountH.UpdateProfile)
			r.Post("/profile/target-emails", accountH.AddTargetEmail)
			r.Delete("/profile/target-emails", accountH.RemoveTargetEmail)
			r.Post("/resend-verification", authH.ResendVerification)
			r.Put("/change-password", authH.ChangePassword)
		})
	})

	// Anonymous relay endpoint, keyed by the tenant's public clientId.
	r.With(relayRL.Limit).Post("/{clientId}", relayH.Submit)
	r.Get("/{clientId}", relayH.MethodNotAllowed)

	return r
}
