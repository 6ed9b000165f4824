package functional

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/tsukumogami/cursor-bucket/internal/testutil"
)

const feedBuild = "1649e229afdef8fd1d18ea173f063563f1e722ef"

func writeRootFile(state *testState, rel, content string) error {
	path := filepath.Join(state.rootDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// anEmptyBucket lays out both templates and nothing else.
func anEmptyBucket(ctx context.Context) (context.Context, error) {
	state := getState(ctx)
	if err := writeRootFile(state, "bucket/template/cursor.template", testutil.CurrentTemplate); err != nil {
		return ctx, err
	}
	return ctx, writeRootFile(state, "bucket/template/cursor.template.bak", testutil.LegacyTemplate)
}

func theHistoryFileContains(ctx context.Context, name string, body *godog.DocString) (context.Context, error) {
	return ctx, writeRootFile(getState(ctx), filepath.Join("data", name), body.Content)
}

// aReleaseFeedAnnouncing serves a feed descriptor and installer bodies, and
// points the bucket configuration at them.
func aReleaseFeedAnnouncing(ctx context.Context, version string) (context.Context, error) {
	state := getState(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/download", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"version":%q,"commitSha":%q}`, version, feedBuild)
	})
	mux.HandleFunc("/production/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("installer " + r.URL.Path))
	})
	state.feed = httptest.NewServer(mux)

	cfg := fmt.Sprintf("feed_url = %q\ndownload_url_template = %q\n",
		state.feed.URL+"/api/download",
		state.feed.URL+"/production/{build}/win32/{arch}/user-setup/CursorUserSetup-{arch}-{version}.exe")
	return ctx, writeRootFile(state, "cursor-bucket.toml", cfg)
}

// iRun executes a command string, replacing "cursor-bucket" with the test binary path.
func iRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "cursor-bucket" {
		args[0] = state.binPath
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = state.rootDir
	cmd.Env = append(os.Environ(),
		"CURSOR_BUCKET_ROOT="+state.rootDir,
		"CURSOR_BUCKET_CONFIG=",
	)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			state.exitCode = exitErr.ExitCode()
		} else {
			return ctx, fmt.Errorf("command execution failed: %w", err)
		}
	} else {
		state.exitCode = 0
	}

	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theExitCodeIsNot(ctx context.Context, notExpected int) error {
	state := getState(ctx)
	if state.exitCode == notExpected {
		return fmt.Errorf("expected exit code to not be %d\nstdout: %s\nstderr: %s",
			notExpected, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout not to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

func theFileExists(ctx context.Context, path string) error {
	fullPath := filepath.Join(getState(ctx).rootDir, path)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("expected file %q to exist", fullPath)
	}
	return nil
}

func theFileDoesNotExist(ctx context.Context, path string) error {
	fullPath := filepath.Join(getState(ctx).rootDir, path)
	if _, err := os.Stat(fullPath); err == nil {
		return fmt.Errorf("expected file %q not to exist", fullPath)
	}
	return nil
}

func theFileContainsText(ctx context.Context, path, text string) error {
	fullPath := filepath.Join(getState(ctx).rootDir, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("expected %s to contain %q, got:\n%s", fullPath, text, data)
	}
	return nil
}

func theFileDoesNotContainText(ctx context.Context, path, text string) error {
	fullPath := filepath.Join(getState(ctx).rootDir, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return err
	}
	if strings.Contains(string(data), text) {
		return fmt.Errorf("expected %s not to contain %q, got:\n%s", fullPath, text, data)
	}
	return nil
}
