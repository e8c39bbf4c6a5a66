package release

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveIndex starts a server answering /repos/acme/app/releases with body.
func serveIndex(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/app/releases" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveLatest_PrefersArchiveExtension(t *testing.T) {
	body := `[
	  {
	    "assets": [
	      {"name": "z-smart-server.tar", "browser_download_url": "https://dl.example/v2.1.0/z-smart-server.tar"},
	      {"name": "z-smart-server.zip", "browser_download_url": "https://dl.example/v2.1.0/z-smart-server.zip"},
	      {"name": "other.zip", "browser_download_url": "https://dl.example/v2.1.0/other.zip"}
	    ],
	    "unrelated": {"nested": true},
	    "tag_name":   "v2.1.0"
	  }
	]`
	srv := serveIndex(t, http.StatusOK, body)

	info, err := NewResolver(WithBaseURL(srv.URL)).ResolveLatest(context.Background(), "acme/app")
	require.NoError(t, err)
	assert.Equal(t, "v2.1.0", info.Tag)
	assert.Equal(t, "https://dl.example/v2.1.0/z-smart-server.zip", info.AssetURL)
	assert.Equal(t, "2.1.0", info.Version())
}

func TestResolveLatest_SkipsDraftsAndPrereleases(t *testing.T) {
	body := `[
	  {"tag_name": "v3.0.0", "draft": true, "assets": [{"name": "a.zip", "browser_download_url": "https://dl/draft.zip"}]},
	  {"tag_name": "v2.2.0-beta.1", "assets": [{"name": "a.zip", "browser_download_url": "https://dl/beta.zip"}]},
	  {"tag_name": "v2.2.0-rc.1", "prerelease": true, "assets": [{"name": "a.zip", "browser_download_url": "https://dl/rc.zip"}]},
	  {"tag_name": "v2.1.0", "assets": [{"name": "a.zip", "browser_download_url": "https://dl/stable.zip"}]}
	]`
	srv := serveIndex(t, http.StatusOK, body)

	info, err := NewResolver(WithBaseURL(srv.URL)).ResolveLatest(context.Background(), "acme/app")
	require.NoError(t, err)
	assert.Equal(t, Info{Tag: "v2.1.0", AssetURL: "https://dl/stable.zip"}, info)
}

func TestResolveLatest_NoMatchingAsset(t *testing.T) {
	srv := serveIndex(t, http.StatusOK, `[{"tag_name": "v1.0.0", "assets": [{"name": "src.tar", "browser_download_url": "https://dl/src.tar"}]}]`)

	info, err := NewResolver(WithBaseURL(srv.URL)).ResolveLatest(context.Background(), "acme/app")
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", info.Tag)
	assert.Empty(t, info.AssetURL)
}

func TestResolveLatest_UnnamedAssetFallsBackToURL(t *testing.T) {
	srv := serveIndex(t, http.StatusOK, `[{"tag_name": "v1.0.0", "assets": [{"browser_download_url": "https://dl/pkg.ZIP"}]}]`)

	info, err := NewResolver(WithBaseURL(srv.URL)).ResolveLatest(context.Background(), "acme/app")
	require.NoError(t, err)
	assert.Equal(t, "https://dl/pkg.ZIP", info.AssetURL)
}

func TestResolveLatest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "empty listing", status: http.StatusOK, body: `[]`, want: ErrNotFound},
		{name: "only drafts", status: http.StatusOK, body: `[{"tag_name": "v1", "draft": true}]`, want: ErrNotFound},
		{name: "missing tag", status: http.StatusOK, body: `[{"assets": []}]`, want: ErrMalformedResponse},
		{name: "not json", status: http.StatusOK, body: `<html>`, want: ErrMalformedResponse},
		{name: "object instead of list", status: http.StatusOK, body: `{"message": "x"}`, want: ErrMalformedResponse},
		{name: "repo missing", status: http.StatusNotFound, body: `{}`, want: ErrNotFound},
		{name: "server error", status: http.StatusBadGateway, body: ``, want: ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveIndex(t, tt.status, tt.body)
			_, err := NewResolver(WithBaseURL(srv.URL)).ResolveLatest(context.Background(), "acme/app")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolveLatest_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewResolver(WithBaseURL(base)).ResolveLatest(context.Background(), "acme/app")
	require.ErrorIs(t, err, ErrNetwork)
}

func TestResolveLatest_Timeout(t *testing.T) {
	unblock := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-unblock
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(unblock) })

	client := &http.Client{Timeout: 50 * time.Millisecond}
	_, err := NewResolver(WithBaseURL(srv.URL), WithHTTPClient(client)).ResolveLatest(context.Background(), "acme/app")

	var timeout *TimeoutError
	require.True(t, errors.As(err, &timeout), "got %v", err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestResolveLatest_SendsToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[{"tag_name": "v1.0.0", "assets": []}]`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewResolver(WithBaseURL(srv.URL), WithToken("secret")).ResolveLatest(context.Background(), "acme/app")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
}
