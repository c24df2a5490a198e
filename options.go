package comicmap

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/comicmap/internal/store/github"
	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/extractors"
	"github.com/agentstation/comicmap/pkg/store"
)

// Option is a function that configures a Client.
type Option func(*options) error

type options struct {
	dataDir string

	// request list source
	requestsKey   string
	requestsStore store.Reader

	// collection remote
	remote        store.Store
	remoteKey     string
	github        *github.Config
	overwritePush bool

	// background loops
	autoUpdates     bool
	ingestInterval  time.Duration
	refreshInterval time.Duration

	// extraction
	extractors        []extractors.Extractor
	builtinExtractors bool
	userAgent         string
	mangadexAPIURL    string
	mangadexLanguage  string

	clock func() utc.Time
}

func defaults() *options {
	return &options{
		dataDir:           constants.DefaultDataDir,
		remoteKey:         constants.DefaultCollectionKey,
		ingestInterval:    constants.DefaultIngestInterval,
		refreshInterval:   constants.DefaultRefreshInterval,
		builtinExtractors: true,
		userAgent:         constants.DefaultUserAgent,
		clock:             utc.Now,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithDataDir sets the directory holding the local mirrors.
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return &errors.ValidationError{Field: "data_dir", Message: "cannot be empty"}
		}
		o.dataDir = dir
		return nil
	}
}

// WithRequestsURL fetches the request list from an HTTPS URL.
func WithRequestsURL(url string) Option {
	return func(o *options) error {
		o.requestsKey = url
		return nil
	}
}

// WithRequestsStore reads the request list from key in s instead of over HTTPS.
func WithRequestsStore(s store.Reader, key string) Option {
	return func(o *options) error {
		if s == nil {
			return &errors.ValidationError{Field: "requests_store", Message: "cannot be nil"}
		}
		o.requestsStore = s
		o.requestsKey = key
		return nil
	}
}

// WithGitHub publishes the collection through the GitHub contents API.
// cfg.Repo must be "owner/name".
func WithGitHub(cfg github.Config) Option {
	return func(o *options) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.github = &cfg
		return nil
	}
}

// WithRemote publishes the collection to key in s. It takes precedence over WithGitHub.
func WithRemote(s store.Store, key string) Option {
	return func(o *options) error {
		if s == nil {
			return &errors.ValidationError{Field: "remote", Message: "cannot be nil"}
		}
		o.remote = s
		return WithRemoteKey(key)(o)
	}
}

// WithRemoteKey sets the remote path of the collection (default output/comics.json).
func WithRemoteKey(key string) Option {
	return func(o *options) error {
		if key == "" {
			return &errors.ValidationError{Field: "github_path", Message: "cannot be empty"}
		}
		o.remoteKey = key
		return nil
	}
}

// WithOverwritePush re-reads the remote version right before every push.
func WithOverwritePush(enabled bool) Option {
	return func(o *options) error {
		o.overwritePush = enabled
		return nil
	}
}

// WithAutoUpdates configures whether the background loops start with the client.
func WithAutoUpdates(enabled bool) Option {
	return func(o *options) error {
		o.autoUpdates = enabled
		return nil
	}
}

// WithIngestInterval sets the pause between ingest cycles.
func WithIngestInterval(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "ingest_interval", Value: d, Message: "must be positive"}
		}
		o.ingestInterval = d
		return nil
	}
}

// WithRefreshInterval sets the pause between refresh cycles.
func WithRefreshInterval(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "refresh_interval", Value: d, Message: "must be positive"}
		}
		o.refreshInterval = d
		return nil
	}
}

// WithExtractors registers extractors ahead of the built-in ones.
func WithExtractors(exs ...extractors.Extractor) Option {
	return func(o *options) error {
		o.extractors = append(o.extractors, exs...)
		return nil
	}
}

// WithoutBuiltinExtractors leaves only extractors passed to WithExtractors.
func WithoutBuiltinExtractors() Option {
	return func(o *options) error {
		o.builtinExtractors = false
		return nil
	}
}

// WithUserAgent sets the User-Agent sent to source sites and the request list host.
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		if ua != "" {
			o.userAgent = ua
		}
		return nil
	}
}

// WithMangaDexAPIURL points the MangaDex extractor at another API host.
func WithMangaDexAPIURL(url string) Option {
	return func(o *options) error {
		o.mangadexAPIURL = url
		return nil
	}
}

// WithMangaDexLanguage sets the language MangaDex titles are read in and whose
// translated chapters are counted. Empty keeps the extractor default.
func WithMangaDexLanguage(lang string) Option {
	return func(o *options) error {
		o.mangadexLanguage = lang
		return nil
	}
}

// WithClock sets the timestamp source for new and updated records.
func WithClock(now func() utc.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.clock = now
		return nil
	}
}
