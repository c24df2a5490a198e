// Package constants provides shared constants used throughout the comicmap codebase.
// This includes polling intervals, network timeouts, file permissions and the
// names of the documents kept in the data directory.
package constants

import "time"

// Interval constants define how often the background cycles run
const (
	// DefaultIngestInterval is the pause between request list syncs and ingest passes
	DefaultIngestInterval = 30 * time.Second

	// DefaultRefreshInterval is the pause between refresh passes over the collection
	DefaultRefreshInterval = 60 * time.Second
)

// Timeout constants bound every network call and cycle iteration
const (
	// ExtractTimeout bounds a single extractor fetch
	ExtractTimeout = 15 * time.Second

	// RequestListTimeout bounds the request list download
	RequestListTimeout = 15 * time.Second

	// PushTimeout bounds a remote collection read or write
	PushTimeout = 20 * time.Second

	// CycleTimeout caps one full ingest or refresh iteration
	CycleTimeout = 30 * time.Minute

	// LockTimeout is how long a writer waits for the mirror file lock
	LockTimeout = 10 * time.Second

	// LockRetryDelay is the poll interval while waiting for the mirror file lock
	LockRetryDelay = 50 * time.Millisecond
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Data directory layout
const (
	// DefaultDataDir holds the local mirrors
	DefaultDataDir = "output"

	// RequestsFile is the local mirror of the tracked source list
	RequestsFile = "requests.json"

	// CollectionFile is the local mirror of the comic collection
	CollectionFile = "comics.json"

	// DefaultCollectionKey is the remote path of the collection blob
	DefaultCollectionKey = "output/comics.json"

	// CommitMessage is attached to every remote collection write
	CommitMessage = "Auto update comics.json"
)

// Remote defaults
const (
	// DefaultGitHubAPIURL is the GitHub REST endpoint used by the contents store
	DefaultGitHubAPIURL = "https://api.github.com"

	// DefaultMangaDexAPIURL is the MangaDex REST endpoint
	DefaultMangaDexAPIURL = "https://api.mangadex.org"

	// DefaultMangaDexCoverURL serves MangaDex cover images
	DefaultMangaDexCoverURL = "https://uploads.mangadex.org/covers"

	// DefaultMangaDexLanguage picks titles and the chapter translation counted
	DefaultMangaDexLanguage = "en"

	// DefaultUserAgent is sent to sites that reject blank user agents
	DefaultUserAgent = "Mozilla/5.0"
)

// JSONIndent is the indentation used for every document written by comicmap
const JSONIndent = "    "
