// Package download streams installers from the network and computes their
// content digests without keeping them on disk.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"net/http"
	"path"

	"github.com/dustin/go-humanize"

	"github.com/tsukumogami/cursor-bucket/internal/httputil"
	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/progress"
)

// TransportError is returned for any failed download.
type TransportError = httputil.TransportError

// Hasher downloads a URL and returns the hex sha256 of its body.
type Hasher struct {
	http     *http.Client
	logger   log.Logger
	progress io.Writer
	newHash  func() hash.Hash
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Hasher) {
		h.http = c
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(h *Hasher) {
		h.logger = l
	}
}

// WithProgress draws a progress line on w during each download.
func WithProgress(w io.Writer) Option {
	return func(h *Hasher) {
		h.progress = w
	}
}

// NewHasher creates a Hasher. Without WithHTTPClient it uses a client with
// no overall timeout, since installers are large.
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{
		logger:  log.Default(),
		newHash: sha256.New,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.http == nil {
		h.http = httputil.NewClient(httputil.Options{})
	}
	return h
}

// Hash downloads rawURL and returns the lowercase hex sha256 of the full
// body. Failures are *TransportError.
func (h *Hasher) Hash(ctx context.Context, rawURL string) (string, error) {
	resp, err := httputil.Get(ctx, h.http, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	digest := h.newHash()
	var sink io.Writer = digest
	if h.progress != nil {
		pw := progress.NewWriter(h.progress, path.Base(resp.Request.URL.Path), resp.ContentLength)
		defer pw.Finish()
		sink = io.MultiWriter(digest, pw)
	}

	n, err := io.Copy(sink, resp.Body)
	if err != nil {
		return "", httputil.Wrap(rawURL, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return "", httputil.Wrap(rawURL, io.ErrUnexpectedEOF)
	}

	sum := hex.EncodeToString(digest.Sum(nil))
	h.logger.Debug("hashed download", "url", rawURL, "size", humanize.Bytes(uint64(n)), "sha256", sum)
	return sum, nil
}
