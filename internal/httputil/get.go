package httputil

import (
	"context"
	"io"
	"net/http"
)

// Get issues a GET request and returns the response when the server
// answers 200. Any other outcome is a *TransportError and the body, if
// any, is already closed.
func Get(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, Wrap(rawURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, Wrap(rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		resp.Body.Close()
		return nil, StatusError(rawURL, resp.StatusCode)
	}
	return resp, nil
}
