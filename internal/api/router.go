package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nmarks/cardrank/internal/storage"
)

// Server holds the HTTP server dependencies
type Server struct {
	store  *storage.Store
	router chi.Router
}

// New creates a new API server
func New(store *storage.Store) *Server {
	s := &Server{
		store:  store,
		router: chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying chi router so callers can mount extra
// handlers, e.g. static file serving.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*.cardrank.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Cards
		r.Get("/cards", s.handleGetCards)
		r.Post("/cards", s.handleCreateCard)
		r.Get("/cards/best", s.handleGetBestCards)
		r.Get("/cards/{id}", s.handleGetCard)
		r.Put("/cards/{id}", s.handleUpdateCard)
		r.Delete("/cards/{id}", s.handleDeleteCard)

		// Categories
		r.Get("/categories", s.handleGetCategories)
		r.Post("/categories", s.handleCreateCategory)
		r.Get("/categories/{id}", s.handleGetCategory)
		r.Put("/categories/{id}", s.handleUpdateCategory)
		r.Delete("/categories/{id}", s.handleDeleteCategory)

		// Rankings
		r.Get("/rankings", s.handleGetRankings)
		r.Post("/rankings", s.handleCreateRanking)
		r.Get("/rankings/{id}", s.handleGetRanking)
		r.Patch("/rankings/{id}", s.handleUpdateRanking)
		r.Delete("/rankings/{id}", s.handleDeleteRanking)
		r.Put("/rankings/{id}/items", s.handleReplaceItems)
		r.Get("/rankings/{id}/pool", s.handleGetPool)

		// Board mutations (one engine operation per request)
		r.Post("/rankings/{id}/board/move", s.handleBoardMove)
		r.Post("/rankings/{id}/board/unplace", s.handleBoardUnplace)
		r.Post("/rankings/{id}/board/tiers", s.handleBoardAddTier)
		r.Delete("/rankings/{id}/board/tiers/{index}", s.handleBoardDeleteTier)
		r.Post("/rankings/{id}/board/tiers/{index}/rename", s.handleBoardRenameTier)
		r.Post("/rankings/{id}/board/tiers/{index}/move", s.handleBoardMoveTier)
	})

	// Share links
	s.router.Get("/s/{code}", s.handleGetRankingByCode)

	// Health check
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func urlID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}
