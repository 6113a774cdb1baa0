package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/worklane/timeledger-backend-go/internal/config"
	"github.com/worklane/timeledger-backend-go/internal/handler/http/middleware"
	"github.com/worklane/timeledger-backend-go/internal/pkg/jwt"
)

func NewRouter(
	cfg *config.Config,
	jwtService jwt.Service,
	authHandler AuthHandler,
	timesheetHandler TimesheetHandler,
	leaveHandler LeaveHandler,
	summaryHandler SummaryHandler,
) *chi.Mux {
	r := chi.NewRouter()

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timeledger"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/timesheets", func(r chi.Router) {
				r.Post("/", timesheetHandler.Create)
				r.Get("/", timesheetHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", timesheetHandler.Get)
					r.Put("/", timesheetHandler.Update)
					r.Delete("/", timesheetHandler.Delete)
					r.Post("/submit", timesheetHandler.Submit)
					r.Post("/reopen", timesheetHandler.Reopen)

					// Admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.AdminOnly)
						r.Post("/approve", timesheetHandler.Approve)
						r.Post("/reject", timesheetHandler.Reject)
						r.Post("/overtime/approve", timesheetHandler.ApproveOvertime)
						r.Post("/overtime/reject", timesheetHandler.RejectOvertime)
					})
				})
			})

			r.Route("/leave", func(r chi.Router) {
				r.Get("/types", leaveHandler.ListTypes)
				r.Get("/balances", leaveHandler.GetBalances)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/balances", leaveHandler.AllocateBalance)
					r.Post("/balances/allocate-year", leaveHandler.AllocateYearly)
				})

				r.Route("/requests", func(r chi.Router) {
					r.Post("/", leaveHandler.CreateRequest)
					r.Get("/", leaveHandler.ListRequests)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", leaveHandler.GetRequest)
						r.Post("/cancel", leaveHandler.CancelRequest)

						// Admin only
						r.Group(func(r chi.Router) {
							r.Use(middleware.AdminOnly)
							r.Post("/approve", leaveHandler.ApproveRequest)
							r.Post("/reject", leaveHandler.RejectRequest)
						})
					})
				})
			})

			r.Route("/summaries", func(r chi.Router) {
				r.Get("/", summaryHandler.List)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/", summaryHandler.Generate)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", summaryHandler.Get)
					r.Post("/sign", summaryHandler.SignByStaff)
					r.Get("/pdf", summaryHandler.ExportPDF)

					// Admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.AdminOnly)
						r.Post("/regenerate", summaryHandler.Regenerate)
						r.Post("/approve", summaryHandler.Approve)
						r.Post("/reject", summaryHandler.Reject)
						r.Put("/financials", summaryHandler.SetFinancials)
					})
				})
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return r
}
