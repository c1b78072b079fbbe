package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-rental-kyc/internal/application/account"
	"github.com/go-rental-kyc/internal/application/auth"
	"github.com/go-rental-kyc/internal/application/kyc"
	"github.com/go-rental-kyc/internal/application/ledger"
	"github.com/go-rental-kyc/internal/config"
	"github.com/go-rental-kyc/internal/domain"
	"github.com/go-rental-kyc/internal/pkg/ratelimit"
	"github.com/go-rental-kyc/internal/transport/http/handler"
	appmiddleware "github.com/go-rental-kyc/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

const sweepInterval = time.Minute

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, deps.Stop)
	kycWindow := ratelimit.NewFixedWindow(cfg.KYCRate.Window, cfg.KYCRate.MaxRequests)
	otpWindow := ratelimit.NewFixedWindow(cfg.OTPRate.Window, cfg.OTPRate.MaxRequests)
	go kycWindow.RunSweeper(sweepInterval, deps.Stop)
	go otpWindow.RunSweeper(sweepInterval, deps.Stop)

	entries := ledger.New(deps.VerificationRepo)
	emailFlow := kyc.NewEmailFlow(deps.UserRepo, entries, deps.Mailer, cfg.HomeURL)
	phoneFlow := kyc.NewPhoneFlow(deps.UserRepo, entries, deps.SMSSender)
	profileFlow := kyc.NewProfileFlow(deps.UserRepo, deps.Documents)
	authSvc := auth.NewService(deps.UserRepo, deps.JWTProvider)
	accountSvc := account.NewService(account.ServiceDeps{
		UserRepo:  deps.UserRepo,
		Tokens:    deps.JWTProvider,
		EmailFlow: emailFlow,
	})

	healthH := handler.NewHealthHandler()
	accountH := handler.NewAccountHandler(accountSvc)
	sessionH := handler.NewSessionHandler(accountSvc)
	userH := handler.NewUserHandler(accountSvc)
	kycH := handler.NewKYCHandler(emailFlow, phoneFlow, profileFlow)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/roles", handler.ListRoles)
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/accounts/renter", accountH.RegisterRenter)
			r.Post("/accounts/host", accountH.RegisterHost)
			r.Post("/accounts/roles/{role}", accountH.GrantRole)
			r.Post("/sessions/login", sessionH.Login)
		})

		// ── Fully verified users ─────────────────────────────────────────────
		r.With(appmiddleware.RefreshAuth(authSvc)).Post("/sessions/refresh", sessionH.Refresh)
		r.With(appmiddleware.Auth(authSvc, domain.RoleRenter)).Get("/users/me", userH.Me)
		r.With(appmiddleware.Auth(authSvc, domain.RoleHost)).Get("/hosts/me", userH.Me)

		// ── Any signed-in user ───────────────────────────────────────────────
		r.With(appmiddleware.PreVerify(authSvc)).Post("/accounts/password", accountH.ChangePassword)

		// ── KYC pipeline ─────────────────────────────────────────────────────
		r.Route("/kyc", func(r chi.Router) {
			r.Use(appmiddleware.FixedWindow(kycWindow, ""))

			// The link is opened from a mail client, without a bearer token.
			r.Get("/verify-email/{token}/{guid}", kycH.VerifyEmail)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.PreVerify(authSvc))
				r.Post("/email/resend", kycH.ResendEmail)
				r.Post("/pre-signup/phone", kycH.SendPhoneOTP)
				r.With(appmiddleware.FixedWindow(otpWindow, "")).Post("/verify-otp", kycH.VerifyOTP)
				r.Post("/selfie", kycH.UploadSelfie)
				r.Get("/selfie", kycH.SelfieURL)
				r.Post("/user-details", kycH.SaveDetails)
				r.Post("/billing-info", kycH.SaveBillingInfo)
			})
		})

		// ── Admin-only routes ────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(authSvc, domain.RoleAdmin))
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin))
			r.Delete("/users/{id}/roles/{role}", userH.RevokeRole)
		})
	})

	return r
}
