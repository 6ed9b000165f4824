package functional

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"
)

type stateKeyType struct{}

var stateKey = stateKeyType{}

type testState struct {
	rootDir  string
	binPath  string
	stdout   string
	stderr   string
	exitCode int
	feed     *httptest.Server
}

func getState(ctx context.Context) *testState {
	if s, ok := ctx.Value(stateKey).(*testState); ok {
		return s
	}
	return nil
}

func setState(ctx context.Context, s *testState) context.Context {
	return context.WithValue(ctx, stateKey, s)
}

func TestFeatures(t *testing.T) {
	binPath := os.Getenv("CURSOR_BUCKET_TEST_BINARY")
	if binPath == "" {
		t.Skip("CURSOR_BUCKET_TEST_BINARY not set; build cmd/cursor-bucket and point it at the binary")
	}

	// Resolve to absolute path since go test changes the working directory
	absBin, err := filepath.Abs(binPath)
	if err != nil {
		t.Fatalf("resolving binary path: %v", err)
	}
	binPath = absBin

	opts := &godog.Options{
		Format:   "pretty",
		Paths:    []string{"features"},
		TestingT: t,
	}
	if tags := os.Getenv("CURSOR_BUCKET_TEST_TAGS"); tags != "" {
		opts.Tags = tags
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			initializeScenario(ctx, binPath)
		},
		Options: opts,
	}
	if suite.Run() != 0 {
		t.Fatal("functional tests failed")
	}
}

func initializeScenario(ctx *godog.ScenarioContext, binPath string) {
	// Every scenario gets its own bucket root.
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		root, err := os.MkdirTemp("", "cursor-bucket-functional-")
		if err != nil {
			return ctx, err
		}
		return setState(ctx, &testState{rootDir: root, binPath: binPath}), nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if state := getState(ctx); state != nil {
			if state.feed != nil {
				state.feed.Close()
			}
			os.RemoveAll(state.rootDir)
		}
		return ctx, nil
	})

	// Environment steps
	ctx.Step(`^an empty bucket$`, anEmptyBucket)
	ctx.Step(`^the history file "([^"]*)" contains:$`, theHistoryFileContains)
	ctx.Step(`^a release feed announcing "([^"]*)"$`, aReleaseFeedAnnouncing)

	// Command steps
	ctx.Step(`^I run "([^"]*)"$`, iRun)

	// Assertion steps
	ctx.Step(`^the exit code is (\d+)$`, theExitCodeIs)
	ctx.Step(`^the exit code is not (\d+)$`, theExitCodeIsNot)
	ctx.Step(`^the output contains "([^"]*)"$`, theOutputContains)
	ctx.Step(`^the output does not contain "([^"]*)"$`, theOutputDoesNotContain)
	ctx.Step(`^the error output contains "([^"]*)"$`, theErrorOutputContains)
	ctx.Step(`^the file "([^"]*)" exists$`, theFileExists)
	ctx.Step(`^the file "([^"]*)" does not exist$`, theFileDoesNotExist)
	ctx.Step(`^the file "([^"]*)" contains "([^"]*)"$`, theFileContainsText)
	ctx.Step(`^the file "([^"]*)" does not contain "([^"]*)"$`, theFileDoesNotContainText)
}
