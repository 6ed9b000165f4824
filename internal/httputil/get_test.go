package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("payload"))
		case "/missing":
			http.NotFound(w, r)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewClient(Options{})

	t.Run("ok", func(t *testing.T) {
		resp, err := Get(context.Background(), client, server.URL+"/ok")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "payload" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := Get(context.Background(), client, server.URL+"/missing")
		var te *TransportError
		if !errors.As(err, &te) || te.Type != ErrTypeNotFound || te.StatusCode != 404 {
			t.Fatalf("Get() error = %#v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		_, err := Get(context.Background(), client, server.URL+"/boom")
		var te *TransportError
		if !errors.As(err, &te) || te.Type != ErrTypeHTTPStatus {
			t.Fatalf("Get() error = %#v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := Get(ctx, client, server.URL+"/slow")
		var te *TransportError
		if !errors.As(err, &te) || te.Type != ErrTypeTimeout {
			t.Fatalf("Get() error = %#v", err)
		}
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := Get(context.Background(), client, "://nope")
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("Get() error = %#v", err)
		}
	})
}
