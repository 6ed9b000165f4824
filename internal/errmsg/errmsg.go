// Package errmsg provides enhanced error message formatting with actionable suggestions.
package errmsg

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tsukumogami/cursor-bucket/internal/feed"
	"github.com/tsukumogami/cursor-bucket/internal/fsutil"
	"github.com/tsukumogami/cursor-bucket/internal/httputil"
	"github.com/tsukumogami/cursor-bucket/internal/manifest"
	"github.com/tsukumogami/cursor-bucket/internal/store"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	Family string // minor family being operated on, e.g. "0.45"
}

// Format returns a formatted error message with possible causes and suggestions.
// The context parameter is optional - pass nil for generic formatting.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	var formatErr *feed.FormatError
	if errors.As(err, &formatErr) {
		return formatFeedError(err)
	}

	var transportErr *httputil.TransportError
	if errors.As(err, &transportErr) {
		return formatTransportError(err, transportErr)
	}

	var persistErr *fsutil.PersistenceError
	if errors.As(err, &persistErr) {
		return formatPersistenceError(err, persistErr)
	}

	switch {
	case errors.Is(err, version.ErrMalformedVersion):
		return formatMalformedVersion(err)
	case errors.Is(err, manifest.ErrTemplateUnavailable):
		return formatTemplateUnavailable(err)
	case errors.Is(err, store.ErrNoHistory):
		return formatNoHistory(err, ctx)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(netErr)
	}

	if isPermissionError(err.Error()) {
		return formatPermissionError(err.Error())
	}

	return err.Error()
}

func write(sb *strings.Builder, heading string, lines ...string) {
	if len(lines) == 0 {
		return
	}
	sb.WriteString("\n" + heading + ":\n")
	for _, l := range lines {
		sb.WriteString("  - " + l + "\n")
	}
}

func formatFeedError(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	write(&sb, "Possible causes",
		"The release feed changed its response format",
		"A proxy or captive portal answered instead of the feed",
	)
	write(&sb, "Suggestions",
		"Check feed_url in the configuration",
		"Fetch the feed URL manually and inspect the response",
	)
	return sb.String()
}

func formatTransportError(err error, te *httputil.TransportError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	switch te.Type {
	case httputil.ErrTypeNotFound:
		write(&sb, "Possible causes",
			"The installer for this build has not been published yet",
			"The download URL template no longer matches the host layout",
		)
	case httputil.ErrTypeRateLimit:
		write(&sb, "Possible causes", "Too many requests to the download host")
	case httputil.ErrTypeTimeout:
		write(&sb, "Possible causes",
			"Request timed out",
			"Slow or unstable network connection",
		)
	case httputil.ErrTypeCanceled:
		return sb.String()
	default:
		write(&sb, "Possible causes",
			"Network connectivity issue",
			"Firewall or proxy blocking the connection",
		)
	}

	if s := te.Suggestion(); s != "" {
		write(&sb, "Suggestions", s)
	}
	return sb.String()
}

func formatPersistenceError(err error, pe *fsutil.PersistenceError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	if isPermissionError(pe.Err.Error()) {
		write(&sb, "Possible causes", "Insufficient permissions on the data or output directory")
		write(&sb, "Suggestions", fmt.Sprintf("Check who owns %s", pe.Path))
		return sb.String()
	}
	write(&sb, "Possible causes",
		"The disk is full or read-only",
		"A directory exists where a file is expected",
	)
	write(&sb, "Suggestions",
		fmt.Sprintf("Check free space and the state of %s", pe.Path),
		"The previous file content is unchanged; rerun once the problem is fixed",
	)
	return sb.String()
}

func formatMalformedVersion(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	write(&sb, "Possible causes",
		"A history file contains a hand-edited or truncated version key",
		"The version was typed with a prefix or suffix",
	)
	write(&sb, "Suggestions", "Versions are dot-separated numbers such as 0.45.15")
	return sb.String()
}

func formatTemplateUnavailable(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	write(&sb, "Possible causes",
		"The template file is missing or is not a JSON object",
		"The template lacks an architecture block the release needs",
	)
	write(&sb, "Suggestions",
		"Check current_template and legacy_template with 'cursor-bucket config'",
	)
	return sb.String()
}

func formatNoHistory(err error, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	write(&sb, "Possible causes",
		"No release of this minor family has been recorded",
		"The data directory points somewhere else",
	)
	suggestions := []string{"Run 'cursor-bucket list' to see recorded versions"}
	if ctx != nil && ctx.Family != "" {
		suggestions = append(suggestions, fmt.Sprintf("Minor families look like %q, without a patch number", ctx.Family))
	}
	write(&sb, "Suggestions", suggestions...)
	return sb.String()
}

func formatNetworkError(err net.Error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	if err.Timeout() {
		write(&sb, "Possible causes", "Request timed out", "Slow or unstable network connection")
	} else {
		write(&sb, "Possible causes", "Network connectivity issue", "DNS resolution failure")
	}
	write(&sb, "Suggestions", "Check your internet connection", "Try again in a few minutes")
	return sb.String()
}

func formatPermissionError(errMsg string) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	write(&sb, "Possible causes", "File or directory owned by a different user")
	write(&sb, "Suggestions", "Check permissions on the bucket root (--root or CURSOR_BUCKET_ROOT)")
	return sb.String()
}

// isPermissionError checks if the error message indicates a permission issue
func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted")
}
