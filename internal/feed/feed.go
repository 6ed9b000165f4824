// Package feed reads the upstream release descriptor that announces the
// latest desktop build.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tsukumogami/cursor-bucket/internal/httputil"
	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// maxPayload caps the descriptor size; the real one is a few hundred bytes.
const maxPayload = 1 << 20

var buildPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// FormatError reports a descriptor that lacks a usable version or build
// identifier.
type FormatError struct {
	URL    string
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("release feed %s: %s: %s", e.URL, e.Field, e.Reason)
}

// Release is the latest upstream release as announced by the feed.
type Release struct {
	Version string
	Build   string

	// DownloadURL is the installer URL the feed advertised, if any.
	DownloadURL string
}

// Client fetches the release descriptor.
type Client struct {
	url         string
	buildMarker string
	http        *http.Client
	logger      log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithBuildMarker sets the path segment that precedes the build identifier
// in download URLs.
func WithBuildMarker(marker string) Option {
	return func(cl *Client) {
		cl.buildMarker = marker
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a client for the descriptor at feedURL.
func NewClient(feedURL string, opts ...Option) *Client {
	c := &Client{
		url:         feedURL,
		buildMarker: "production",
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httputil.NewClient(httputil.DefaultOptions())
	}
	return c
}

// Latest fetches and validates the current release descriptor.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	resp, err := httputil.Get(ctx, c.http, c.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		return nil, httputil.Wrap(c.url, err)
	}
	c.logger.Debug("release feed payload", "url", c.url, "bytes", len(body))

	return Parse(c.url, body, c.buildMarker)
}

// Parse extracts a Release from a descriptor payload. The build identifier
// comes from a commitSha field when present, otherwise from the download
// URL segment after marker.
func Parse(source string, payload []byte, marker string) (*Release, error) {
	if !gjson.ValidBytes(payload) {
		return nil, &FormatError{URL: source, Field: "body", Reason: "not valid JSON"}
	}
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return nil, &FormatError{URL: source, Field: "body", Reason: "not a JSON object"}
	}

	v := strings.TrimSpace(doc.Get("version").String())
	if v == "" {
		return nil, &FormatError{URL: source, Field: "version", Reason: "missing"}
	}
	if _, err := version.Parse(v); err != nil {
		return nil, &FormatError{URL: source, Field: "version", Reason: err.Error()}
	}

	rel := &Release{Version: v}
	for _, field := range []string{"downloadUrl", "url"} {
		if u := doc.Get(field).String(); u != "" {
			rel.DownloadURL = u
			break
		}
	}

	if sha := strings.ToLower(doc.Get("commitSha").String()); sha != "" {
		if !buildPattern.MatchString(sha) {
			return nil, &FormatError{URL: source, Field: "commitSha", Reason: fmt.Sprintf("%q is not a 40 character hex id", sha)}
		}
		rel.Build = sha
		return rel, nil
	}

	if rel.DownloadURL == "" {
		return nil, &FormatError{URL: source, Field: "commitSha", Reason: "missing, and no download URL to derive it from"}
	}
	build, err := ExtractBuild(rel.DownloadURL, marker)
	if err != nil {
		return nil, &FormatError{URL: source, Field: "downloadUrl", Reason: err.Error()}
	}
	rel.Build = build
	return rel, nil
}

// ExtractBuild returns the 40 character hex identifier that follows the
// marker segment in rawURL's path.
func ExtractBuild(rawURL, marker string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg != marker {
			continue
		}
		if i+1 >= len(segments) {
			break
		}
		if id := strings.ToLower(segments[i+1]); buildPattern.MatchString(id) {
			return id, nil
		}
		return "", fmt.Errorf("segment after %q is %q, not a build id", marker, segments[i+1])
	}
	return "", fmt.Errorf("no build id after %q in %s", marker, rawURL)
}
