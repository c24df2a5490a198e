// Package mangadex extracts series metadata from the public MangaDex API.
package mangadex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/comicmap/internal/transport"
	"github.com/agentstation/comicmap/pkg/comics"
	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/extractors"
)

// Name is the extractor identifier.
const Name = "mangadex"

const urlFragment = "mangadex.org/title"

var _ extractors.Extractor = (*Extractor)(nil)

// Extractor reads title metadata and the chapter aggregate for a MangaDex title.
type Extractor struct {
	apiURL   string
	coverURL string
	lang     string
	client   *transport.Client
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithAPIURL overrides the API endpoint.
func WithAPIURL(u string) Option {
	return func(e *Extractor) {
		if u != "" {
			e.apiURL = strings.TrimRight(u, "/")
		}
	}
}

// WithCoverURL overrides the cover image host.
func WithCoverURL(u string) Option {
	return func(e *Extractor) {
		if u != "" {
			e.coverURL = strings.TrimRight(u, "/")
		}
	}
}

// WithLanguage sets the preferred title language and the chapter translation
// language counted. Defaults to "en".
func WithLanguage(lang string) Option {
	return func(e *Extractor) {
		if lang != "" {
			e.lang = lang
		}
	}
}

// WithTransport passes options to the underlying HTTP client.
func WithTransport(opts ...transport.Option) Option {
	return func(e *Extractor) {
		base := []transport.Option{transport.WithTimeout(constants.ExtractTimeout), transport.WithUserAgent("comicmap")}
		e.client = transport.New(append(base, opts...)...)
	}
}

// New returns a MangaDex extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		apiURL:   constants.DefaultMangaDexAPIURL,
		coverURL: constants.DefaultMangaDexCoverURL,
		lang:     constants.DefaultMangaDexLanguage,
	}
	WithTransport()(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements extractors.Extractor.
func (e *Extractor) Name() string { return Name }

// CanHandle implements extractors.Extractor.
func (e *Extractor) CanHandle(u string) bool {
	return strings.Contains(u, urlFragment)
}

type localized map[string]string

type tag struct {
	Attributes struct {
		Name  localized `json:"name"`
		Group string    `json:"group"`
	} `json:"attributes"`
}

type mangaResponse struct {
	Result string `json:"result"`
	Data   struct {
		ID         string `json:"id"`
		Attributes struct {
			Title       localized   `json:"title"`
			AltTitles   []localized `json:"altTitles"`
			LastChapter string      `json:"lastChapter"`
			Tags        []tag       `json:"tags"`
		} `json:"attributes"`
		Relationships []struct {
			Type       string `json:"type"`
			Attributes struct {
				FileName string `json:"fileName"`
			} `json:"attributes"`
		} `json:"relationships"`
	} `json:"data"`
}

// aggregateResponse maps are sent as [] when empty, hence the raw messages.
type aggregateResponse struct {
	Result  string          `json:"result"`
	Volumes json.RawMessage `json:"volumes"`
}

type aggregateVolume struct {
	Chapters json.RawMessage `json:"chapters"`
}

type aggregateChapter struct {
	Chapter string `json:"chapter"`
}

// Extract implements extractors.Extractor.
func (e *Extractor) Extract(ctx context.Context, u string) (*comics.Extraction, error) {
	id, err := TitleID(u)
	if err != nil {
		return nil, err
	}

	var manga mangaResponse
	q := url.Values{}
	q.Add("includes[]", "cover_art")
	if err := e.client.GetJSON(ctx, fmt.Sprintf("%s/manga/%s?%s", e.apiURL, id, q.Encode()), &manga); err != nil {
		return nil, err
	}
	if manga.Result != "" && manga.Result != "ok" {
		return nil, errors.NewExtractionError(Name, u, "api result "+manga.Result, nil)
	}

	attrs := manga.Data.Attributes
	ex := &comics.Extraction{
		Title:  e.pickTitle(attrs.Title, attrs.AltTitles),
		Genres: []string{},
		Source: u,
	}
	if ex.Title == "" {
		return nil, &errors.ExtractionError{Extractor: Name, URL: u, Field: "title", Message: "missing"}
	}

	// only genre tags count when the API reports groups
	grouped := slices.ContainsFunc(attrs.Tags, func(t tag) bool { return t.Attributes.Group != "" })
	for _, t := range attrs.Tags {
		if grouped && t.Attributes.Group != "genre" {
			continue
		}
		if name := pick(t.Attributes.Name, e.lang); name != "" {
			ex.Genres = append(ex.Genres, name)
		}
	}

	for _, rel := range manga.Data.Relationships {
		if rel.Type == "cover_art" && rel.Attributes.FileName != "" {
			ex.ThumbnailURL = comics.String(fmt.Sprintf("%s/%s/%s", e.coverURL, id, rel.Attributes.FileName))
			break
		}
	}

	count, err := e.chapterCount(ctx, id)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		count = chapterNumber(attrs.LastChapter)
	}
	ex.ChapterCount = count
	return ex, nil
}

// chapterCount returns the highest whole chapter number translated into the
// configured language.
func (e *Extractor) chapterCount(ctx context.Context, id string) (int, error) {
	q := url.Values{}
	q.Add("translatedLanguage[]", e.lang)
	var agg aggregateResponse
	if err := e.client.GetJSON(ctx, fmt.Sprintf("%s/manga/%s/aggregate?%s", e.apiURL, id, q.Encode()), &agg); err != nil {
		return 0, err
	}

	volumes := map[string]aggregateVolume{}
	if err := decodeMap(agg.Volumes, &volumes); err != nil {
		return 0, errors.WrapParse("json", "aggregate", err)
	}
	highest := 0
	for _, vol := range volumes {
		chapters := map[string]aggregateChapter{}
		if err := decodeMap(vol.Chapters, &chapters); err != nil {
			return 0, errors.WrapParse("json", "aggregate", err)
		}
		for key, ch := range chapters {
			num := ch.Chapter
			if num == "" {
				num = key
			}
			highest = max(highest, chapterNumber(num))
		}
	}
	return highest, nil
}

func decodeMap(raw json.RawMessage, target any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	return json.Unmarshal(raw, target)
}

func chapterNumber(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func (e *Extractor) pickTitle(title localized, alts []localized) string {
	if t := strings.TrimSpace(title[e.lang]); t != "" {
		return t
	}
	for _, alt := range alts {
		if t := strings.TrimSpace(alt[e.lang]); t != "" {
			return t
		}
	}
	return firstValue(title)
}

// pick returns the value for lang, falling back to any value.
func pick(m localized, lang string) string {
	if v := strings.TrimSpace(m[lang]); v != "" {
		return v
	}
	return firstValue(m)
}

// firstValue returns the value of the alphabetically first key so results are stable.
func firstValue(m localized) string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	slices.Sort(keys)
	return strings.TrimSpace(m[keys[0]])
}

// TitleID extracts the title UUID from a mangadex.org/title/{id}/{slug} URL.
func TitleID(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", errors.WrapParse("url", u, err)
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "title" && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", &errors.ExtractionError{Extractor: Name, URL: u, Field: "id", Message: "no title id in url"}
}
