// Package asura extracts series metadata from Asura Comic series pages.
package asura

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/comicmap/internal/transport"
	"github.com/agentstation/comicmap/pkg/comics"
	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/extractors"
)

// Name is the extractor identifier.
const Name = "asura"

// urlFragment marks series pages this extractor understands.
const urlFragment = "asuracomic.net/series"

// UnknownTitle is reported when the page has no title element.
const UnknownTitle = "Unknown"

var (
	titleSel     = cascadia.MustCompile("span.text-xl.font-bold")
	chapterSel   = cascadia.MustCompile(`span[class~="pl-[1px]"]`)
	genreHeadSel = cascadia.MustCompile("h3")
	buttonSel    = cascadia.MustCompile("button")
	posterSel    = cascadia.MustCompile(`img[alt="poster"][loading="lazy"]`)
)

var _ extractors.Extractor = (*Extractor)(nil)

// Extractor scrapes series pages over HTTP.
type Extractor struct {
	client *transport.Client
}

// New returns an Asura extractor. Options are passed to the underlying transport.
func New(opts ...transport.Option) *Extractor {
	base := []transport.Option{
		transport.WithTimeout(constants.ExtractTimeout),
		transport.WithUserAgent(constants.DefaultUserAgent),
	}
	return &Extractor{client: transport.New(append(base, opts...)...)}
}

// Name implements extractors.Extractor.
func (e *Extractor) Name() string { return Name }

// CanHandle implements extractors.Extractor.
func (e *Extractor) CanHandle(u string) bool {
	return strings.Contains(u, urlFragment)
}

// Extract implements extractors.Extractor.
func (e *Extractor) Extract(ctx context.Context, u string) (*comics.Extraction, error) {
	body, err := e.client.GetBytes(ctx, u, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.WrapParse("html", u, err)
	}
	return Parse(doc, u), nil
}

// Parse reads series metadata from a parsed page. Missing elements fall back
// to defaults rather than failing: an unknown title, zero chapters, no genres
// and no thumbnail.
func Parse(doc *html.Node, pageURL string) *comics.Extraction {
	ex := &comics.Extraction{
		Title:  UnknownTitle,
		Genres: []string{},
		Source: pageURL,
	}

	if n := titleSel.MatchFirst(doc); n != nil {
		if title := text(n); title != "" {
			ex.Title = title
		}
	}

	if spans := chapterSel.MatchAll(doc); len(spans) > 0 {
		if n, err := strconv.Atoi(text(spans[len(spans)-1])); err == nil && n >= 0 {
			ex.ChapterCount = n
		}
	}

	for _, h3 := range genreHeadSel.MatchAll(doc) {
		if !strings.Contains(text(h3), "Genres") {
			continue
		}
		if container := nextElement(h3, atom.Div); container != nil {
			for _, btn := range buttonSel.MatchAll(container) {
				ex.Genres = append(ex.Genres, text(btn))
			}
		}
		break
	}

	if img := posterSel.MatchFirst(doc); img != nil {
		if src := attr(img, "src"); src != "" {
			ex.ThumbnailURL = comics.String(resolve(pageURL, src))
		}
	}

	return ex
}

// text concatenates the trimmed text nodes under n.
func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return norm.NFC.String(b.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// nextElement returns the first element of kind a that follows start in
// document order, descendants of start included.
func nextElement(start *html.Node, a atom.Atom) *html.Node {
	for n := following(start, true); n != nil; n = following(n, true) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			return n
		}
	}
	return nil
}

func following(n *html.Node, descend bool) *html.Node {
	if descend && n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
