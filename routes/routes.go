package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tonnahe171051/poolmate-sub000/handlers"
	"github.com/tonnahe171051/poolmate-sub000/middleware"
	"github.com/tonnahe171051/poolmate-sub000/models"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Bracket    *handlers.BracketHandler
	Match      *handlers.MatchHandler
	Table      *handlers.TableHandler
	WebSocket  *handlers.WebSocketHandler
}

func New(h Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticated := middleware.Authenticator(jwtSecret)
	organizerOnly := middleware.RequireRole(models.RoleOrganizer)

	r.Post("/auth/register", h.Auth.Register)
	r.Post("/auth/login", h.Auth.Login)

	// Public read surface: spectators and venue displays.
	r.Get("/tournaments", h.Tournament.List)
	r.Get("/tournaments/{tournamentID}", h.Tournament.Get)
	r.Get("/tournaments/{tournamentID}/bracket", h.Bracket.Get)
	r.Get("/tournaments/{tournamentID}/standings", h.Bracket.Standings)
	r.Get("/matches/{matchID}", h.Match.Get)
	r.Get("/tables", h.Table.List)
	r.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	// Scoring surface: any authenticated operator.
	r.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Post("/matches/{matchID}/lock", h.Match.AcquireLock)
		r.Delete("/matches/{matchID}/lock", h.Match.ReleaseLock)
		r.Put("/matches/{matchID}/score", h.Match.UpdateLiveScore)
		r.Post("/matches/{matchID}/complete", h.Match.Complete)
		r.Post("/matches/{matchID}/correct", h.Match.Correct)
		r.Post("/matches/{matchID}/table", h.Match.AssignTable)
		r.Delete("/matches/{matchID}/table", h.Match.ReleaseTable)
	})

	// Management surface: organizers only.
	r.Group(func(r chi.Router) {
		r.Use(authenticated, organizerOnly)

		r.Post("/tournaments", h.Tournament.Create)
		r.Delete("/tournaments/{tournamentID}", h.Tournament.Delete)
		r.Post("/tournaments/{tournamentID}/participants", h.Tournament.AddParticipant)
		r.Delete("/tournaments/{tournamentID}/participants/{participantID}", h.Tournament.RemoveParticipant)

		r.Post("/tournaments/{tournamentID}/bracket/preview", h.Bracket.Preview)
		r.Post("/tournaments/{tournamentID}/bracket", h.Bracket.Create)
		r.Delete("/tournaments/{tournamentID}/bracket", h.Bracket.Reset)
		r.Post("/stages/{stageID}/complete", h.Bracket.CompleteStage)

		r.Post("/tables", h.Table.Create)
		r.Put("/tables/{tableID}/status", h.Table.SetStatus)
	})

	return r
}
