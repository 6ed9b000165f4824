package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tsukumogami/cursor-bucket/internal/config"
)

// CurrentTemplate is a manifest template for the current schema.
const CurrentTemplate = `{
    "version": "0.0.0",
    "description": "The AI code editor",
    "homepage": "https://www.cursor.com",
    "license": "Proprietary",
    "architecture": {
        "64bit": {
            "url": "",
            "hash": "",
            "installer": {
                "args": ["/VERYSILENT", "/MERGETASKS=!runcode"]
            }
        },
        "arm64": {
            "url": "",
            "hash": ""
        }
    },
    "bin": [
        ["Cursor.exe", "cursor_{version}"]
    ],
    "shortcuts": [
        ["Cursor.exe", "Cursor {version}"]
    ]
}
`

// LegacyTemplate is a manifest template shared by both legacy schemas.
const LegacyTemplate = `{
    "version": "0.0.0",
    "description": "The AI code editor",
    "homepage": "https://www.cursor.com",
    "license": "Proprietary",
    "architecture": {
        "32bit": {
            "url": "",
            "hash": "",
            "extract_dir": "$PLUGINSDIR\\app-32"
        },
        "64bit": {
            "url": "",
            "hash": "",
            "extract_dir": "$PLUGINSDIR\\app-64"
        },
        "arm64": {
            "url": "",
            "hash": "",
            "extract_dir": "$PLUGINSDIR\\app-arm64"
        }
    },
    "bin": [
        ["Cursor.exe", "cursor_{version}"],
        "resources\\app\\bin\\cursor.cmd"
    ],
    "shortcuts": [
        ["Cursor.exe", "Cursor {version} ({version})"]
    ]
}
`

// NewTestConfig creates a config rooted in a temporary directory, with both
// templates written and the data and output directories created.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig(root)
	for _, dir := range []string{cfg.DataDir, cfg.OutputDir, filepath.Dir(cfg.CurrentTemplate)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	WriteFile(t, cfg.CurrentTemplate, CurrentTemplate)
	WriteFile(t, cfg.LegacyTemplate, LegacyTemplate)
	return cfg
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ReadFile returns the content of path or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AssertFileExists checks if a file exists at the given path
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if !FileExists(path) {
		t.Errorf("file does not exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does NOT exist at the given path
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if FileExists(path) {
		t.Errorf("file should not exist: %s", path)
	}
}
