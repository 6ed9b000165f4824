// Package httputil builds the HTTP client shared by the release feed and
// the installer downloader, and classifies the failures they report.
package httputil

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// Options configures the client.
type Options struct {
	// Timeout bounds a whole request including the body. Zero means no
	// overall limit, which installer downloads rely on.
	Timeout time.Duration

	// DialTimeout is the TCP dial timeout. Default: 30s.
	DialTimeout time.Duration

	// ResponseHeaderTimeout is the time to wait for response headers. Default: 30s.
	ResponseHeaderTimeout time.Duration

	// MaxRedirects is the maximum redirect depth. Default: 10.
	MaxRedirects int

	// EnableCompression sends Accept-Encoding. Off by default so hashes are
	// always computed over the bytes the server stores.
	EnableCompression bool

	// UserAgent is sent with every request when set.
	UserAgent string

	// Proxy selects a proxy per request. Nil reads HTTPS_PROXY, HTTP_PROXY
	// and NO_PROXY once at construction.
	Proxy func(*http.Request) (*url.URL, error)
}

// DefaultOptions returns options suited to small API requests.
func DefaultOptions() Options {
	return Options{
		Timeout:               30 * time.Second,
		DialTimeout:           30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		MaxRedirects:          10,
	}
}

// NewClient creates an HTTP client. Redirects must stay on https and may
// not resolve to private, loopback or link-local addresses.
func NewClient(opts Options) *http.Client {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 30 * time.Second
	}
	if opts.ResponseHeaderTimeout == 0 {
		opts.ResponseHeaderTimeout = 30 * time.Second
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = 10
	}
	if opts.Proxy == nil {
		proxyFunc := httpproxy.FromEnvironment().ProxyFunc()
		opts.Proxy = func(req *http.Request) (*url.URL, error) {
			return proxyFunc(req.URL)
		}
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:              opts.Proxy,
		DisableCompression: !opts.EnableCompression,
		DialContext: (&net.Dialer{
			Timeout:   opts.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	if opts.UserAgent != "" {
		transport = &userAgentTransport{next: transport, userAgent: opts.UserAgent}
	}

	return &http.Client{
		Timeout:       opts.Timeout,
		Transport:     transport,
		CheckRedirect: redirectPolicy(opts.MaxRedirects),
	}
}

// userAgentTransport stamps the User-Agent header on outgoing requests.
type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.next.RoundTrip(req)
}

// redirectPolicy rejects downgrades, long chains and internal targets.
func redirectPolicy(maxRedirects int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if req.URL.Scheme != "https" {
			return fmt.Errorf("redirect to non-HTTPS URL is not allowed: %s", req.URL)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}

		host := req.URL.Hostname()
		if ip := net.ParseIP(host); ip != nil {
			return ValidateIP(ip, host)
		}

		// Check every address so a rebinding DNS answer cannot slip through.
		ips, err := net.LookupIP(host)
		if err != nil {
			return fmt.Errorf("failed to resolve redirect host %s: %w", host, err)
		}
		for _, ip := range ips {
			if err := ValidateIP(ip, host); err != nil {
				return err
			}
		}
		return nil
	}
}
