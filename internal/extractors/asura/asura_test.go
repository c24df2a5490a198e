package asura

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const seriesPage = `<!DOCTYPE html>
<html><body>
  <div class="grid">
    <img alt="poster" loading="lazy" src="https://gg.asuracomic.net/storage/media/1/cover.webp">
    <span class="text-xl font-bold">  Solo Leveling  </span>
    <h3 class="text-sm">Genres</h3>
    <div class="flex flex-row flex-wrap gap-3">
      <button class="text-white">Action</button>
      <button class="text-white"> Fantasy </button>
    </div>
    <div class="other"><button>Bookmark</button></div>
  </div>
  <div class="chapters">
    <span class="pl-[1px]">1</span>
    <span class="text-sm pl-[1px]">2</span>
    <span class="pl-[1px]">120</span>
  </div>
</body></html>`

func parse(t *testing.T, page string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestCanHandle(t *testing.T) {
	e := New()
	assert.True(t, e.CanHandle("https://asuracomic.net/series/solo-leveling-1a2b"))
	assert.False(t, e.CanHandle("https://asuracomic.net/"))
	assert.False(t, e.CanHandle("https://mangadex.org/title/abc"))
}

func TestParse(t *testing.T) {
	ex := Parse(parse(t, seriesPage), "https://asuracomic.net/series/solo")

	assert.Equal(t, "Solo Leveling", ex.Title)
	assert.Equal(t, 120, ex.ChapterCount)
	assert.Equal(t, []string{"Action", "Fantasy"}, ex.Genres)
	require.NotNil(t, ex.ThumbnailURL)
	assert.Equal(t, "https://gg.asuracomic.net/storage/media/1/cover.webp", *ex.ThumbnailURL)
	assert.Equal(t, "https://asuracomic.net/series/solo", ex.Source)
}

func TestParseDefaults(t *testing.T) {
	page := `<html><body>
		<span class="pl-[1px]">Chapter twelve</span>
		<img alt="poster" loading="eager" src="/x.webp">
	</body></html>`
	ex := Parse(parse(t, page), "https://asuracomic.net/series/x")

	assert.Equal(t, UnknownTitle, ex.Title)
	assert.Zero(t, ex.ChapterCount)
	assert.Empty(t, ex.Genres)
	assert.Nil(t, ex.ThumbnailURL)
}

func TestParseRelativePoster(t *testing.T) {
	page := `<img alt="poster" loading="lazy" src="/media/cover.webp">`
	ex := Parse(parse(t, page), "https://asuracomic.net/series/x")
	require.NotNil(t, ex.ThumbnailURL)
	assert.Equal(t, "https://asuracomic.net/media/cover.webp", *ex.ThumbnailURL)
}

func TestExtractOverHTTP(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(seriesPage))
	}))
	defer srv.Close()

	e := New()
	ex, err := e.Extract(context.Background(), srv.URL+"/series/solo")
	require.NoError(t, err)
	assert.Equal(t, "Solo Leveling", ex.Title)
	assert.Equal(t, "Mozilla/5.0", ua)

	_, err = e.Extract(context.Background(), srv.URL+"/gone")
	assert.True(t, errors.IsNotFound(err))
}
