// Package release resolves the newest installable release of a GitHub
// repository through the releases API.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"zsmart-installer/internal/logger"
	"zsmart-installer/internal/version"
)

// maxResponseBytes bounds how much of the releases listing is decoded.
const maxResponseBytes = 10 << 20

var (
	// ErrNetwork covers unreachable endpoints, unexpected HTTP statuses and timeouts.
	ErrNetwork = errors.New("network error")
	// ErrNotFound is returned when the repository has no usable release.
	ErrNotFound = errors.New("no release found")
	// ErrMalformedResponse is returned when the listing cannot be decoded or lacks a tag.
	ErrMalformedResponse = errors.New("malformed release response")
)

// TimeoutError is a NetworkError caused by a request exceeding its deadline.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNetwork) hold for timeouts.
func (e *TimeoutError) Is(target error) bool { return target == ErrNetwork }

// Info is the result of one query against the release index.
// An empty AssetURL means the release has nothing the installer can use.
type Info struct {
	Tag      string
	AssetURL string
}

// Version returns the tag in manifest form, without a leading "v".
func (i Info) Version() string {
	return version.Normalize(i.Tag)
}

// githubRelease is the subset of the GitHub release JSON the resolver reads.
// Pointer fields distinguish an absent key from an empty value.
type githubRelease struct {
	TagName    *string       `json:"tag_name"`
	Draft      bool          `json:"draft"`
	Prerelease bool          `json:"prerelease"`
	Assets     []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Resolver queries the GitHub releases API.
type Resolver struct {
	httpClient *http.Client
	baseURL    string
	archiveExt string
	token      string
	userAgent  string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the client used for API requests.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.httpClient = c }
}

// WithBaseURL overrides https://api.github.com, mostly for tests.
func WithBaseURL(base string) Option {
	return func(r *Resolver) { r.baseURL = strings.TrimRight(base, "/") }
}

// WithArchiveExt sets the asset suffix to select, ".zip" by default.
func WithArchiveExt(ext string) Option {
	return func(r *Resolver) { r.archiveExt = strings.ToLower(ext) }
}

// WithToken authenticates requests, raising the API rate limit.
func WithToken(token string) Option {
	return func(r *Resolver) { r.token = token }
}

// NewResolver builds a Resolver with a 60 second request timeout.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    "https://api.github.com",
		archiveExt: ".zip",
		userAgent:  "zsmart-installer",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveLatest returns the tag of the newest published release of repo
// (owner/name) and the URL of its first asset ending in the archive extension.
// Drafts and prereleases are skipped.
func (r *Resolver) ResolveLatest(ctx context.Context, repo string) (Info, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/releases", r.baseURL, repo)
	logger.Debug("[DEBUG] Fetching release index from %s\n", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return Info{}, fmt.Errorf("building release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", r.userAgent)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("fetching releases for %s: %w", repo, ClassifyNetworkError(err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Info{}, fmt.Errorf("%w: repository %s", ErrNotFound, repo)
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return Info{}, fmt.Errorf("%w: GitHub API rate limit exceeded, set GITHUB_TOKEN", ErrNetwork)
	case resp.StatusCode != http.StatusOK:
		return Info{}, fmt.Errorf("%w: release index returned HTTP %d", ErrNetwork, resp.StatusCode)
	}

	var releases []githubRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&releases); err != nil {
		if isTimeout(err) {
			return Info{}, fmt.Errorf("reading releases for %s: %w", repo, ClassifyNetworkError(err))
		}
		return Info{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	logger.Debug("[DEBUG] Release index for %s lists %d releases\n", repo, len(releases))

	return r.pickLatest(repo, releases)
}

// pickLatest chooses the first stable release in API order (newest first).
func (r *Resolver) pickLatest(repo string, releases []githubRelease) (Info, error) {
	for _, rel := range releases {
		if rel.Draft {
			continue
		}
		if rel.TagName == nil || strings.TrimSpace(*rel.TagName) == "" {
			return Info{}, fmt.Errorf("%w: release without tag_name", ErrMalformedResponse)
		}
		tag := strings.TrimSpace(*rel.TagName)
		if rel.Prerelease || version.IsPrerelease(tag) {
			logger.Debug("[DEBUG] Skipping prerelease %s\n", tag)
			continue
		}

		info := Info{Tag: tag, AssetURL: r.selectAsset(rel.Assets)}
		if info.AssetURL == "" {
			logger.Warn("[WARN] Release %s has no %s asset\n", tag, r.archiveExt)
		} else {
			logger.Debug("[DEBUG] Selected asset %s for %s\n", info.AssetURL, tag)
		}
		return info, nil
	}
	return Info{}, fmt.Errorf("%w: repository %s has no published releases", ErrNotFound, repo)
}

// selectAsset returns the download URL of the first asset whose name (or,
// when unnamed, whose URL path) ends in the archive extension.
func (r *Resolver) selectAsset(assets []githubAsset) string {
	for _, a := range assets {
		if a.BrowserDownloadURL == "" {
			continue
		}
		name := a.Name
		if name == "" {
			if u, err := url.Parse(a.BrowserDownloadURL); err == nil {
				name = path.Base(u.Path)
			}
		}
		if strings.HasSuffix(strings.ToLower(name), r.archiveExt) {
			return a.BrowserDownloadURL
		}
	}
	return ""
}

// ClassifyNetworkError wraps a transport error so that it matches ErrNetwork,
// using *TimeoutError when a deadline was hit.
func ClassifyNetworkError(err error) error {
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return &TimeoutError{Err: err}
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
