package handlers

import (
	"net/http"
	"strconv"

	"github.com/agentstation/comicmap/internal/server/response"
	"github.com/agentstation/comicmap/pkg/comics"
	"github.com/agentstation/comicmap/pkg/errors"
)

// ComicList is the body of GET /comics.
type ComicList struct {
	Comics comics.Collection `json:"comics"`
	Count  int               `json:"count"`
}

// HandleListComics handles GET /api/v1/comics.
// Query parameters: sort (title, chapters, updated), genre, limit.
func (h *Handlers) HandleListComics(w http.ResponseWriter, r *http.Request) {
	key := "comics?" + r.URL.RawQuery
	if cached, ok := h.cache.Get(key); ok {
		response.OK(w, cached)
		return
	}

	params := r.URL.Query()
	q := comics.Query{Sort: params.Get("sort"), Genre: params.Get("genre")}
	if s := params.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			response.BadRequest(w, "limit must be an integer", s)
			return
		}
		q.Limit = n
	}

	c, err := h.client.Collection(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	c, err = c.Query(q)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if c == nil {
		c = comics.Collection{}
	}

	body := ComicList{Comics: c, Count: len(c)}
	h.cache.Set(key, body)
	response.OK(w, body)
}

// HandleGetComic handles GET /api/v1/comics/lookup?source=<url>. Sources are
// URLs, so they travel as a query parameter rather than a path segment.
func (h *Handlers) HandleGetComic(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		response.BadRequest(w, "source query parameter is required", "")
		return
	}

	c, err := h.client.Collection(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	rec, ok := c.Find(source)
	if !ok {
		response.ErrorFromType(w, &errors.NotFoundError{Resource: "comic", ID: source})
		return
	}
	response.OK(w, rec)
}
