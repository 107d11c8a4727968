package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/ogpblog/internal/common"
	"github.com/dmitrijs2005/ogpblog/internal/ogp"
	"github.com/dmitrijs2005/ogpblog/internal/server/models"
	"github.com/dmitrijs2005/ogpblog/internal/server/services"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	index    *template.Template
	post     *template.Template
	create   *template.Template
	notFound *template.Template
}

func mustParsePages() *pages {
	parse := func(name string) *template.Template {
		return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return &pages{
		index:    parse("index.html"),
		post:     parse("post.html"),
		create:   parse("create.html"),
		notFound: parse("notfound.html"),
	}
}

type indexView struct {
	Posts []*models.Post
	Error string
}

type postView struct {
	Post        *models.Post
	Description string
	OgpURL      string
	ImageWidth  int
	ImageHeight int
	Created     string
}

type createView struct {
	Title       string
	Description string
	Error       string
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, t *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error(r.Context(), "template render failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) IndexPage(w http.ResponseWriter, r *http.Request) {
	list, err := h.posts.List(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "Failed to fetch posts", "error", err)
		h.render(w, r, h.pages.index, http.StatusInternalServerError, indexView{Error: "Failed to load posts."})
		return
	}
	h.render(w, r, h.pages.index, http.StatusOK, indexView{Posts: list})
}

func (h *Handler) PostPage(w http.ResponseWriter, r *http.Request) {
	id, err := services.ParsePostID(chi.URLParam(r, "id"))
	if err != nil {
		h.NotFoundPage(w, r)
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if common.KindOf(err) == common.KindNotFound {
			h.NotFoundPage(w, r)
			return
		}
		h.logger.Error(r.Context(), "Failed to fetch post", "error", err)
		http.Error(w, "Failed to fetch post", http.StatusInternalServerError)
		return
	}

	h.render(w, r, h.pages.post, http.StatusOK, postView{
		Post:        post,
		Description: post.DescriptionOr(services.NoDescription),
		OgpURL:      h.posts.URL(post),
		ImageWidth:  ogp.Width,
		ImageHeight: ogp.Height,
		Created:     post.CreatedAt.UTC().Format("2006-01-02"),
	})
}

func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.pages.create, http.StatusOK, createView{})
}

// SubmitCreatePage handles the HTML form. On success it redirects to the
// list; on failure it re-renders the form with the submitted values.
func (h *Handler) SubmitCreatePage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.render(w, r, h.pages.create, http.StatusBadRequest, createView{Error: "Invalid form submission."})
		return
	}

	title := r.PostForm.Get("title")
	description := r.PostForm.Get("description")

	_, err := h.posts.Create(r.Context(), services.CreatePostInput{Title: title, Description: &description})
	if err != nil {
		status := statusFor(common.KindOf(err), true)
		msg := common.MessageOf(err)
		switch status {
		case http.StatusServiceUnavailable:
			msg = unavailableMessage
		case http.StatusInternalServerError:
			h.logger.Error(r.Context(), "Failed to create post", "error", err)
			msg = "Failed to create post"
		}
		h.render(w, r, h.pages.create, status, createView{Title: title, Description: description, Error: msg})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.pages.notFound, http.StatusNotFound, nil)
}
