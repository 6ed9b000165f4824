package httputil

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrorType classifies transport failures.
type ErrorType int

const (
	// ErrTypeNetwork is the fallback when nothing more specific applies.
	ErrTypeNetwork ErrorType = iota
	// ErrTypeNotFound is an HTTP 404 or 410.
	ErrTypeNotFound
	// ErrTypeHTTPStatus is any other non-200 response.
	ErrTypeHTTPStatus
	// ErrTypeRateLimit is an HTTP 429.
	ErrTypeRateLimit
	// ErrTypeTimeout is a request or dial timeout.
	ErrTypeTimeout
	// ErrTypeDNS is a name resolution failure.
	ErrTypeDNS
	// ErrTypeConnection is a refused or reset connection.
	ErrTypeConnection
	// ErrTypeTLS is a certificate or handshake failure.
	ErrTypeTLS
	// ErrTypeCanceled means the caller gave up.
	ErrTypeCanceled
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotFound:
		return "not found"
	case ErrTypeHTTPStatus:
		return "http status"
	case ErrTypeRateLimit:
		return "rate limit"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeDNS:
		return "dns"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTLS:
		return "tls"
	case ErrTypeCanceled:
		return "canceled"
	default:
		return "network"
	}
}

// TransportError is a failed feed request or installer download.
type TransportError struct {
	Type       ErrorType
	URL        string
	StatusCode int // zero unless the server answered
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Suggestion returns an actionable hint for the error type, or "".
func (e *TransportError) Suggestion() string {
	switch e.Type {
	case ErrTypeNotFound:
		return "The release may have been pulled or the URL template is outdated; check download_url_template"
	case ErrTypeRateLimit:
		return "Wait a few minutes before running again"
	case ErrTypeTimeout:
		return "Check your connection or raise CURSOR_BUCKET_API_TIMEOUT"
	case ErrTypeDNS:
		return "Check your DNS settings and internet connection"
	case ErrTypeConnection:
		return "The server may be down or blocked; check HTTPS_PROXY if you are behind a proxy"
	case ErrTypeTLS:
		return "There may be a certificate issue. Check that your system time is correct"
	case ErrTypeHTTPStatus, ErrTypeNetwork:
		return "Check your internet connection and try again"
	default:
		return ""
	}
}

// Wrap classifies err and attaches the request URL.
func Wrap(rawURL string, err error) *TransportError {
	return &TransportError{Type: ClassifyError(err), URL: rawURL, Err: err}
}

// StatusError builds the error for an unexpected HTTP status.
func StatusError(rawURL string, code int) *TransportError {
	t := ErrTypeHTTPStatus
	switch code {
	case 404, 410:
		t = ErrTypeNotFound
	case 429:
		t = ErrTypeRateLimit
	}
	return &TransportError{
		Type:       t,
		URL:        rawURL,
		StatusCode: code,
		Err:        fmt.Errorf("unexpected status %d", code),
	}
}

// ClassifyError returns the most specific ErrorType for err.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrTypeNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrTypeCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ErrTypeTimeout
		}
		return ErrTypeDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ErrTypeTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return ErrTypeTimeout
		}
		return ErrTypeConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ErrTypeTimeout
		}
		msg := urlErr.Err.Error()
		if strings.Contains(msg, "certificate") || strings.Contains(msg, "tls") || strings.Contains(msg, "x509") {
			return ErrTypeTLS
		}
		return ClassifyError(urlErr.Err)
	}

	return ErrTypeNetwork
}
