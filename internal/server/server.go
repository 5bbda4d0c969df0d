package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/auth"
	"github.com/hongminglow/jiahe-fees/internal/billing"
	"github.com/hongminglow/jiahe-fees/internal/config"
	"github.com/hongminglow/jiahe-fees/internal/feeconfig"
	"github.com/hongminglow/jiahe-fees/internal/http/handlers"
	"github.com/hongminglow/jiahe-fees/internal/ledger"
	"github.com/hongminglow/jiahe-fees/internal/middleware"
	"github.com/hongminglow/jiahe-fees/internal/registration"
	"github.com/hongminglow/jiahe-fees/internal/residents"
	"github.com/hongminglow/jiahe-fees/internal/users"
)

// Services are the domain components the routes are served from.
type Services struct {
	Residents     *residents.Directory
	Ledger        *ledger.Ledger
	FeeConfig     *feeconfig.Store
	Users         *users.Directory
	Registrations *registration.Workflow
	Sessions      *auth.Manager
	Desk          *billing.Desk
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, svc Services, logger *zap.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, svc, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// Handler builds the routed handler without binding a listener.
func Handler(cfg config.Config, svc Services, logger *zap.Logger) http.Handler {
	router := mux.NewRouter()

	// Public routes
	handlers.NewHealthHandler(time.Now()).Register(router)

	// Everything else needs a bearer token
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.Authenticate(svc.Sessions))

	handlers.NewAuthHandler(svc.Sessions, logger).Register(router, secured)
	handlers.NewResidentHandler(svc.Residents, svc.Desk, logger).Register(secured)
	handlers.NewPaymentHandler(svc.Desk, svc.Ledger, svc.Residents, logger).Register(secured)
	handlers.NewFeeConfigHandler(svc.FeeConfig, logger).Register(secured)
	handlers.NewUserHandler(svc.Users, logger).Register(secured)
	handlers.NewRegistrationHandler(svc.Registrations, logger).Register(secured)
	handlers.NewReportHandler(svc.Residents, svc.Ledger, logger).Register(secured)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger)(router))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
