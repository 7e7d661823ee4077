// Package httpapi serves the /api surface consumed by the userdesk client:
// login plus CRUD over users, behind bearer-token authentication.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/userdesk/internal/common"
	"github.com/dmitrijs2005/userdesk/internal/logging"
	"github.com/dmitrijs2005/userdesk/internal/server/models"
	"github.com/dmitrijs2005/userdesk/internal/server/ratelimit"
	"github.com/dmitrijs2005/userdesk/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// UserService is the business logic the handlers drive.
type UserService interface {
	Create(ctx context.Context, in services.CreateInput) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, in services.UpdateInput) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Authenticate(ctx context.Context, email, password string) (string, error)
}

// Limiter throttles login attempts per client address.
type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Result, error)
}

type Handler struct {
	users   UserService
	limiter Limiter
	secret  []byte
	logger  logging.Logger
}

// NewHandler wires the API. limiter may be nil to disable rate limiting.
func NewHandler(users UserService, limiter Limiter, secretKey string, l logging.Logger) *Handler {
	return &Handler{
		users:   users,
		limiter: limiter,
		secret:  []byte(secretKey),
		logger:  l.With("module", "http_api"),
	}
}

// Routes returns the full router, middleware included.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(Recoverer(h.logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route(common.APIBasePath, func(r chi.Router) {
		r.With(RateLimit(h.limiter, h.logger)).Post("/login", h.login)
		r.Post("/users", h.createUser)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(h.secret, h.logger))
			r.Get("/users", h.listUsers)
			r.Get("/users/{id}", h.getUser)
			r.Put("/users/{id}", h.updateUser)
			r.Delete("/users/{id}", h.deleteUser)
		})
	})

	return r
}
