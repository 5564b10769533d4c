package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arjnair/dineflow-backend/api/controllers"
	"github.com/arjnair/dineflow-backend/api/middleware"
	"github.com/arjnair/dineflow-backend/pkg/config"
	"github.com/arjnair/dineflow-backend/pkg/db"
	"github.com/arjnair/dineflow-backend/pkg/logger"
	"github.com/arjnair/dineflow-backend/pkg/pubsub"
	"github.com/arjnair/dineflow-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pubsubClient *pubsub.Client,
	settlementsService controllers.SettlementsService,
	restaurantsService controllers.RestaurantsService,
	transactionsService controllers.TransactionsService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, pubsubClient))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/settlements", func(r chi.Router) {
			r.Get("/", controllers.SettlementList(settlementsService, logg))
			r.Get("/totals", controllers.SettlementTotals(settlementsService, logg))
			r.Route("/{restaurantId}", func(r chi.Router) {
				r.Get("/", controllers.SettlementDetail(settlementsService, logg))
				r.Put("/default-amount", controllers.SettlementSetDefaultAmount(settlementsService, logg))
				r.Post("/payments", controllers.SettlementAddPayment(settlementsService, logg))
				r.Get("/periods/{periodKey}", controllers.SettlementPeriodDetail(settlementsService, logg))
			})
		})

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", controllers.RestaurantList(restaurantsService, logg))
			r.Post("/", controllers.RestaurantRegister(restaurantsService, logg))
			r.Get("/{restaurantId}", controllers.RestaurantDetail(restaurantsService, logg))
			r.Put("/{restaurantId}/status", controllers.RestaurantSetStatus(restaurantsService, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", controllers.TransactionIngest(transactionsService, logg))
			r.Get("/report", controllers.TransactionFeeReport(transactionsService, logg))
			r.Get("/{restaurantId}", controllers.TransactionList(transactionsService, logg))
		})
	})

	return r
}
