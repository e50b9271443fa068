// Package server wires the HTTP API: auth, state sync, reviews and the
// realtime channel upgrade.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/cors"

	"github.com/mcdev12/timeshop/internal/models"
)

// AuthApp is what the server needs from the auth layer.
type AuthApp interface {
	Signup(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
}

// ReconcilerApp applies state sync snapshots.
type ReconcilerApp interface {
	Sync(ctx context.Context, username, password string, state models.State) (int, error)
}

// ReviewsApp handles card reviews.
type ReviewsApp interface {
	Submit(ctx context.Context, username, password, cardLevel, text string) error
	ByLevel(ctx context.Context, rawLevel string) (models.CardLevel, []models.Review, error)
}

// RealtimeHandler registers the realtime channel routes.
type RealtimeHandler interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Server is the Time Shop HTTP surface.
type Server struct {
	auth       AuthApp
	reconciler ReconcilerApp
	reviews    ReviewsApp
	realtime   RealtimeHandler
}

// New creates the server.
func New(auth AuthApp, reconciler ReconcilerApp, reviews ReviewsApp, realtime RealtimeHandler) *Server {
	return &Server{auth: auth, reconciler: reconciler, reviews: reviews, realtime: realtime}
}

// Routes builds the full handler: mux + CORS.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/state", s.handleState)
	mux.HandleFunc("POST /api/reviews", s.handleSubmitReview)
	mux.HandleFunc("GET /api/reviews/{level}", s.handleListReviews)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.realtime != nil {
		s.realtime.RegisterRoutes(mux)
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

// HTTPServer builds an http.Server listening on port.
func (s *Server) HTTPServer(port int) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Routes(),
	}
}
