package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/ogpblog/internal/logging"
	"github.com/dmitrijs2005/ogpblog/internal/server/models"
	"github.com/dmitrijs2005/ogpblog/internal/server/services"
)

const maxBodyBytes = 64 << 10

// PostService is the part of services.PostService the handlers use.
type PostService interface {
	List(ctx context.Context) ([]*models.Post, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, in services.CreatePostInput) (*models.Post, error)
	Ogp(ctx context.Context, id int64) (*services.OGP, error)
	URL(p *models.Post) string
}

type Handler struct {
	posts  PostService
	logger logging.Logger
	pages  *pages
}

func NewHandler(ps PostService, l logging.Logger) *Handler {
	return &Handler{
		posts:  ps,
		logger: l.With("module", "http_handler"),
		pages:  mustParsePages(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Hello from the ogpblog API!")
}

func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Hello from ogpblog!"})
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	list, err := h.posts.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch posts", false)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := services.ParsePostID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch post", false)
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch post", false)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

func (h *Handler) GetOgp(w http.ResponseWriter, r *http.Request) {
	id, err := services.ParsePostID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to generate OGP", false)
		return
	}

	meta, err := h.posts.Ogp(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to generate OGP", false)
		return
	}
	respondJSON(w, http.StatusOK, meta)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in services.CreatePostInput

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.posts.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create post", true)
		return
	}

	h.logger.Info(r.Context(), "Post created", "id", post.ID, "request_id", RequestIDFrom(r.Context()))
	respondJSON(w, http.StatusCreated, post)
}
