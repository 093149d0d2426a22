package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/FACorreiaa/go-trip-budget/internal/api/export"
	"github.com/FACorreiaa/go-trip-budget/internal/api/geocoding"
	"github.com/FACorreiaa/go-trip-budget/internal/api/trip"
)

// Config contains dependencies needed for the router setup
type Config struct {
	TripHandler            trip.Handler
	GeocodingHandler       geocoding.Handler
	ExportHandler          export.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	AllowedOrigins         []string
}

// SetupRouter builds the API router. Server-wide middleware (request id,
// logging, recoverer) is applied by the caller before mounting it.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Route("/trips", func(r chi.Router) {
				TripRoutes(r, cfg.TripHandler, cfg.ExportHandler)
			})
			r.Route("/geocode", func(r chi.Router) {
				r.Get("/", cfg.GeocodingHandler.GeocodeHandler)
				r.Get("/reverse", cfg.GeocodingHandler.ReverseGeocodeHandler)
				r.Post("/batch", cfg.GeocodingHandler.BatchGeocodeHandler)
			})
		})
	})

	return r
}

// TripRoutes mounts the trip, editing session and export endpoints on r.
func TripRoutes(r chi.Router, h trip.Handler, e export.Handler) {
	r.Post("/", h.CreateTripHandler)
	r.Get("/", h.ListTripsHandler)

	r.Route("/{tripID}", func(r chi.Router) {
		r.Get("/", h.GetTripHandler)
		r.Patch("/", h.UpdateTripHandler)
		r.Delete("/", h.DeleteTripHandler)

		r.Post("/session", h.OpenSessionHandler)
		r.Get("/session", h.GetSessionHandler)
		r.Delete("/session", h.DiscardSessionHandler)
		r.Post("/save", h.SaveSessionHandler)

		r.Get("/costs", h.CostsHandler)
		r.Get("/distances", h.DistancesHandler)

		r.Post("/days", h.AddDayHandler)
		r.Route("/days/{day}", func(r chi.Router) {
			r.Patch("/", h.UpdateDayHandler)
			r.Delete("/", h.RemoveDayHandler)
			r.Post("/duplicate", h.DuplicateDayHandler)

			r.Get("/items", h.ListItemsHandler)
			r.Post("/items", h.AddItemHandler)
			r.Patch("/items/{itemID}", h.UpdateItemHandler)
			r.Delete("/items/{itemID}", h.DeleteItemHandler)
		})

		r.Post("/drag/start", h.DragStartHandler)
		r.Post("/drag/over", h.DragOverHandler)
		r.Post("/drag/end", h.DragEndHandler)
		r.Put("/view", h.SetViewHandler)

		r.Post("/locations", h.AddLocationHandler)
		r.Route("/locations/{locID}", func(r chi.Router) {
			r.Patch("/", h.UpdateLocationHandler)
			r.Delete("/", h.DeleteLocationHandler)
			r.Post("/primary", h.PromoteLocationHandler)
			r.Delete("/primary", h.DemoteLocationHandler)
		})
		r.Post("/confirmations/{token}", h.ResolveConfirmationHandler)

		r.Get("/export.pdf", e.PDFHandler)
		r.Get("/export.ics", e.ICSHandler)
	})
}
