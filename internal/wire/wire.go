package wire

import (
	"net/http"

	"atlas-booking/internal/adaptor"
	"atlas-booking/internal/data/repository"
	"atlas-booking/internal/usecase"
	"atlas-booking/pkg/middleware"
	"atlas-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type App struct {
	Router *chi.Mux
}

// guards are the route-level middlewares shared by the feature wires.
type guards struct {
	auth     func(http.Handler) http.Handler
	optional func(http.Handler) http.Handler
	admin    func(http.Handler) http.Handler
	limit    func(http.Handler) http.Handler
}

// Wiring builds the HTTP router over an already assembled service layer.
func Wiring(repo *repository.Repository, service *usecase.Service, config *utils.Config, logger *zap.Logger) *App {
	handler := adaptor.NewHandler(service, logger)

	sessions := middleware.NewSessions(repo.Session, repo.User, logger)
	g := guards{
		auth:     sessions.Required,
		optional: sessions.Optional,
		admin:    middleware.Admin(logger),
		limit:    middleware.NewRateLimiter(config.Wizard.RateLimitPerMinute, logger).Handler,
	}

	return &App{
		Router: setupRouter(handler, g, config, logger),
	}
}

func setupRouter(handler *adaptor.Handler, g guards, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.App.CORSOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	wireAuth(r, handler.Auth, g)
	wireExperience(r, handler.Experience, g)
	wireWizard(r, handler.Wizard, g)
	wireBooking(r, handler.Booking, g)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", map[string]string{"app": config.App.Name})
	})

	return r
}
