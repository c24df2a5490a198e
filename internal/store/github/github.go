// Package github implements store.Store on top of the GitHub repository
// contents API. Blob keys are file paths inside the repository and versions
// are the git blob SHAs GitHub reports.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentstation/comicmap/internal/transport"
	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/comicmap/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Config identifies the repository and credentials.
type Config struct {
	// Repo is "owner/name".
	Repo string
	// Branch is optional; the repository default branch is used when empty.
	Branch string
	// Token is a personal access token with contents write access.
	Token string
	// APIURL defaults to https://api.github.com.
	APIURL string
	// Message is the commit message attached to writes.
	Message string
}

// Validate checks the repository reference.
func (c Config) Validate() error {
	owner, name, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return errors.NewValidationError("github_repo", c.Repo, "must be owner/name")
	}
	return nil
}

// Store reads and writes files through the contents API.
type Store struct {
	cfg    Config
	client *transport.Client
}

// New returns a contents-API store. Requests are bounded by constants.PushTimeout.
func New(cfg Config, opts ...transport.Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.APIURL == "" {
		cfg.APIURL = constants.DefaultGitHubAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.Message == "" {
		cfg.Message = constants.CommitMessage
	}

	base := []transport.Option{
		transport.WithTimeout(constants.PushTimeout),
		transport.WithAuth(&transport.TokenAuth{}, cfg.Token),
		transport.WithHeader("X-GitHub-Api-Version", "2022-11-28"),
		transport.WithUserAgent("comicmap"),
	}
	return &Store{
		cfg:    cfg,
		client: transport.New(append(base, opts...)...),
	}, nil
}

type contentResponse struct {
	Type        string `json:"type"`
	Encoding    string `json:"encoding"`
	Content     string `json:"content"`
	SHA         string `json:"sha"`
	Size        int    `json:"size"`
	DownloadURL string `json:"download_url"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

func (s *Store) contentsURL(key string) string {
	u := fmt.Sprintf("%s/repos/%s/contents/%s", s.cfg.APIURL, s.cfg.Repo, escapePath(key))
	if s.cfg.Branch != "" {
		u += "?ref=" + url.QueryEscape(s.cfg.Branch)
	}
	return u
}

// Get implements store.Reader.
func (s *Store) Get(ctx context.Context, key string) (*store.Blob, error) {
	var resp contentResponse
	if err := s.client.GetJSON(ctx, s.contentsURL(key), &resp); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("blob", key)
		}
		return nil, errors.WrapResource("get", "blob", key, err)
	}
	if resp.Type != "" && resp.Type != "file" {
		return nil, errors.NewValidationError("type", resp.Type, key+" is not a file")
	}

	data, err := s.decodeContent(ctx, key, &resp)
	if err != nil {
		return nil, err
	}
	return &store.Blob{Key: key, Data: data, Version: resp.SHA}, nil
}

// decodeContent returns the file bytes. Files above the API inline limit come
// back without content and are fetched from download_url instead.
func (s *Store) decodeContent(ctx context.Context, key string, resp *contentResponse) ([]byte, error) {
	if resp.Encoding == "base64" && (resp.Content != "" || resp.Size == 0) {
		clean := strings.NewReplacer("\n", "", "\r", "").Replace(resp.Content)
		data, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return nil, errors.WrapParse("base64", key, err)
		}
		return data, nil
	}
	if resp.DownloadURL == "" {
		return nil, errors.NewParseError(resp.Encoding, key, "content not inlined and no download url", nil)
	}
	logging.FromContext(ctx).Debug().Str("key", key).Int("size", resp.Size).Msg("Fetching large blob via download url")
	data, err := s.client.GetBytes(ctx, resp.DownloadURL, "application/octet-stream")
	if err != nil {
		return nil, errors.WrapResource("get", "blob", key, err)
	}
	return data, nil
}

// Put implements store.Writer. 409 and 422 responses mean the supplied SHA
// no longer matches the file, or a create raced an existing file.
func (s *Store) Put(ctx context.Context, key string, data []byte, version string) (string, error) {
	body := putRequest{
		Message: s.cfg.Message,
		Content: base64.StdEncoding.EncodeToString(data),
		SHA:     version,
		Branch:  s.cfg.Branch,
	}
	u := fmt.Sprintf("%s/repos/%s/contents/%s", s.cfg.APIURL, s.cfg.Repo, escapePath(key))

	resp, err := s.client.SendJSON(ctx, http.MethodPut, u, body)
	if err != nil {
		return "", errors.WrapResource("put", "blob", key, err)
	}
	if resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity {
		_, cause := transport.ReadBody(resp)
		return "", errors.NewConflictError(key, version, cause)
	}

	var out putResponse
	if err := transport.DecodeResponse(resp, &out); err != nil {
		return "", errors.WrapResource("put", "blob", key, err)
	}
	return out.Content.SHA, nil
}

func escapePath(key string) string {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
