// Package comicmap tracks webcomic series metadata. It keeps a collection of
// series records in step with a remote list of requested source URLs, re-checks
// every tracked series for new chapters, and publishes the collection to a
// remote store.
//
// A Client wires the pieces together:
// - an ordered extractor registry (Asura-style series pages, MangaDex titles)
// - a request list synchronizer fed from a read-only HTTPS document
// - a reconciler owning every write to the local mirror and the remote blob
// - two background loops (ingest and refresh) with change hooks
//
// Example usage:
//
//	cm, err := comicmap.New(
//	    comicmap.WithDataDir("./output"),
//	    comicmap.WithRequestsURL("https://raw.githubusercontent.com/acme/list/main/requests.json"),
//	    comicmap.WithGitHub(github.Config{Repo: "acme/comics", Token: os.Getenv("GITHUB_TOKEN")}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cm.OnComicUpdated(func(old, new comics.Record) {
//	    log.Printf("%s: %d -> %d", new.Title, old.ChapterCount, new.ChapterCount)
//	})
//
//	if err := cm.AutoUpdatesOn(); err != nil {
//	    log.Fatal(err)
//	}
//	defer cm.AutoUpdatesOff()
package comicmap

import (
	"context"

	"github.com/agentstation/comicmap/internal/extractors/asura"
	"github.com/agentstation/comicmap/internal/extractors/mangadex"
	"github.com/agentstation/comicmap/internal/mirror"
	"github.com/agentstation/comicmap/internal/store/github"
	"github.com/agentstation/comicmap/internal/store/raw"
	"github.com/agentstation/comicmap/internal/transport"
	"github.com/agentstation/comicmap/pkg/comics"
	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/extractors"
	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/comicmap/pkg/reconciler"
	"github.com/agentstation/comicmap/pkg/requests"
	"github.com/agentstation/comicmap/pkg/store"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client tracks a collection with background cycles and event hooks.
type Client interface {
	// Collection provides read access to the local collection
	Collection

	// Cycles runs single ingest or refresh passes
	Cycles

	// AutoUpdater starts and stops the background loops
	AutoUpdater

	// Hooks provides access to event callback registration
	Hooks

	// Extractors lists registered extractor names in priority order
	Extractors() []string
}

// Collection provides read access to the tracked records.
type Collection interface {
	Collection(ctx context.Context) (comics.Collection, error)
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	registry   *extractors.Registry
	requests   *requests.Synchronizer
	reconciler *reconciler.Reconciler
	local      *mirror.File

	loops *loops
	hooks *hooks
}

// New creates a Client. The data directory and local mirrors are prepared
// before New returns; background loops start only if WithAutoUpdates(true) is set.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		options:  o,
		registry: newRegistry(o),
		local:    mirror.New(o.dataDir, constants.CollectionFile),
		loops:    newLoops(),
		hooks:    newHooks(),
	}

	requestsFile := mirror.New(o.dataDir, constants.RequestsFile)
	c.requests = requests.NewSynchronizer(requestsReader(o), o.requestsKey, requestsFile)

	remote, err := collectionStore(o)
	if err != nil {
		return nil, err
	}
	recOpts := []reconciler.Option{
		reconciler.WithClock(o.clock),
		reconciler.WithOverwritePush(o.overwritePush),
	}
	if remote != nil {
		recOpts = append(recOpts, reconciler.WithRemote(remote, o.remoteKey))
	}
	if c.reconciler, err = reconciler.New(c.registry, c.local, recOpts...); err != nil {
		return nil, errors.WrapResource("create", "reconciler", "", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.CycleTimeout)
	defer cancel()
	if err := c.bootstrap(ctx, requestsFile); err != nil {
		return nil, err
	}

	if o.autoUpdates {
		if err := c.AutoUpdatesOn(); err != nil {
			return nil, errors.WrapResource("start", "auto-updates", "", err)
		}
	}
	return c, nil
}

// bootstrap seeds missing local mirrors.
func (c *client) bootstrap(ctx context.Context, requestsFile *mirror.File) error {
	log := logging.FromContext(ctx)
	created, err := requestsFile.WriteIfMissing(ctx, []byte("[]\n"))
	if err != nil {
		return err
	}
	if created {
		log.Debug().Str("path", requestsFile.Path()).Msg("Created empty request list")
	}
	return c.reconciler.Bootstrap(ctx)
}

// Collection returns the records in the local mirror.
func (c *client) Collection(ctx context.Context) (comics.Collection, error) {
	return c.reconciler.Collection(ctx)
}

// Extractors lists registered extractor names in priority order.
func (c *client) Extractors() []string {
	return c.registry.Names()
}

// newRegistry orders caller-supplied extractors ahead of the built-in ones.
func newRegistry(o *options) *extractors.Registry {
	reg := extractors.NewRegistry(o.extractors...)
	if !o.builtinExtractors {
		return reg
	}
	ua := transport.WithUserAgent(o.userAgent)
	reg.Register(asura.New(ua))

	mdOpts := []mangadex.Option{mangadex.WithTransport(ua), mangadex.WithLanguage(o.mangadexLanguage)}
	if o.mangadexAPIURL != "" {
		mdOpts = append(mdOpts, mangadex.WithAPIURL(o.mangadexAPIURL))
	}
	reg.Register(mangadex.New(mdOpts...))
	return reg
}

func requestsReader(o *options) store.Reader {
	if o.requestsStore != nil {
		return o.requestsStore
	}
	if o.requestsKey == "" {
		return nil
	}
	return raw.New("", transport.WithUserAgent(o.userAgent))
}

func collectionStore(o *options) (store.Store, error) {
	if o.remote != nil {
		return o.remote, nil
	}
	if o.github == nil {
		return nil, nil
	}
	s, err := github.New(*o.github)
	if err != nil {
		return nil, errors.NewConfigError("github", "invalid repository settings", err)
	}
	return s, nil
}
