package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/ogpblog/internal/common"
	"github.com/dmitrijs2005/ogpblog/internal/logging"
)

// NewRouter wires every route. allowedOrigins feeds the CORS policy for /api.
func NewRouter(h *Handler, l logging.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(l.With("module", "http")))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", common.RequestIDHeaderName},
			ExposedHeaders:   []string{common.RequestIDHeaderName},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		r.Use(noCache)

		r.Get("/home", h.Home)
		r.Get("/hello", h.Hello)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.ListPosts)
			r.Post("/", h.CreatePost)
			r.Get("/ogp/{id}", h.GetOgp)
			r.Get("/{id}", h.GetPost)
		})
	})

	r.Get("/", h.IndexPage)
	r.Get("/posts/create", h.CreatePage)
	r.Post("/posts/create", h.SubmitCreatePage)
	r.Get("/posts/{id}", h.PostPage)
	r.NotFound(h.NotFoundPage)

	return r
}
