package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/fantasy-marathon/handlers"
	"github.com/Dosada05/fantasy-marathon/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Standings *handlers.StandingsHandler
	Results   *handlers.ResultHandler
	Records   *handlers.RecordHandler
	Games     *handlers.GameHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, jwtSecret []byte, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Cache-Control", "X-Cache"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/doc.json", handlers.ServeOpenAPI)
	router.Get("/swagger/*", handlers.SwaggerUI())

	// Лента не проходит через таймаут: соединение живёт долго.
	router.Get("/ws/games/{gameID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(15 * time.Second))

		r.Get("/games/{gameID}/standings", h.Standings.GetStandings)
		r.Get("/games/{gameID}/athletes/{athleteID}/score", h.Standings.GetAthleteScore)
		r.Get("/races/{raceID}/records", h.Records.ListByRace)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(middleware.RoleCommissioner))

			r.Post("/games", h.Games.CreateGame)
			r.Put("/games/{gameID}/rosters/{playerCode}", h.Games.SetRoster)
			r.Put("/games/{gameID}/results/{athleteID}", h.Results.PutResult)
			r.Post("/games/{gameID}/finalize", h.Standings.FinalizeGame)
			r.Post("/records/{recordID}/confirm", h.Records.Confirm)
			r.Post("/records/{recordID}/reject", h.Records.Reject)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
