package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// EnvRoot is the environment variable to override the repository root
	EnvRoot = "CURSOR_BUCKET_ROOT"

	// EnvConfig is the environment variable pointing at a config file
	EnvConfig = "CURSOR_BUCKET_CONFIG"

	// EnvAPITimeout is the environment variable to configure HTTP request timeout
	EnvAPITimeout = "CURSOR_BUCKET_API_TIMEOUT"

	// DefaultAPITimeout is the default timeout for HTTP requests (30 seconds)
	DefaultAPITimeout = 30 * time.Second

	// DefaultConfigName is looked up in the root directory when no config
	// file is given explicitly.
	DefaultConfigName = "cursor-bucket.toml"

	// DefaultFeedURL is the upstream endpoint describing the latest release.
	DefaultFeedURL = "https://www.cursor.com/api/download?platform=win32-x64-user&releaseTrack=latest"

	// DefaultDownloadURLTemplate builds installer URLs. {build}, {arch} and
	// {version} are substituted.
	DefaultDownloadURLTemplate = "https://downloads.cursor.com/production/{build}/win32/{arch}/user-setup/CursorUserSetup-{arch}-{version}.exe"

	// DefaultBuildMarker is the URL path segment preceding the build identifier.
	DefaultBuildMarker = "production"
)

// GetAPITimeout returns the configured API timeout from CURSOR_BUCKET_API_TIMEOUT.
// If not set or invalid, returns DefaultAPITimeout (30 seconds).
// Accepts duration strings like "30s", "1m", "2m30s".
func GetAPITimeout() time.Duration {
	envValue := os.Getenv(EnvAPITimeout)
	if envValue == "" {
		return DefaultAPITimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		// Invalid duration format, use default
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvAPITimeout, envValue, DefaultAPITimeout)
		return DefaultAPITimeout
	}

	// Validate reasonable range (1 second to 10 minutes)
	if duration < 1*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n",
			EnvAPITimeout, duration)
		return 1 * time.Second
	}
	if duration > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n",
			EnvAPITimeout, duration)
		return 10 * time.Minute
	}

	return duration
}

// Config holds the locations and upstream endpoints used by every command.
// Relative paths are resolved against Root.
type Config struct {
	Root string `toml:"-"`

	// DataDir holds one history file per minor version plus the pointer file.
	DataDir string `toml:"data_dir"`

	// OutputDir receives the generated {prefix}-{version}.json manifests.
	OutputDir string `toml:"output_dir"`

	LegacyTemplate  string `toml:"legacy_template"`
	CurrentTemplate string `toml:"current_template"`

	// PointerFile is the file name, inside DataDir, of the latest-version pointer.
	PointerFile string `toml:"pointer_file"`

	// LatestManifest is the unversioned manifest refreshed on each sync.
	// Empty disables it.
	LatestManifest string `toml:"latest_manifest"`

	ManifestPrefix      string   `toml:"manifest_prefix"`
	FeedURL             string   `toml:"feed_url"`
	DownloadURLTemplate string   `toml:"download_url_template"`
	BuildMarker         string   `toml:"build_marker"`
	Architectures       []string `toml:"architectures"`

	// ExcludePointerFromScan keeps the pointer file out of batch regeneration.
	ExcludePointerFromScan bool `toml:"exclude_pointer_from_scan"`
}

// defaults returns the unresolved default configuration.
func defaults() *Config {
	return &Config{
		DataDir:                "data",
		OutputDir:              "bucket",
		LegacyTemplate:         filepath.Join("bucket", "template", "cursor.template.bak"),
		CurrentTemplate:        filepath.Join("bucket", "template", "cursor.template"),
		PointerFile:            "latest.json",
		LatestManifest:         filepath.Join("bucket", "cursor.json"),
		ManifestPrefix:         "cursor",
		FeedURL:                DefaultFeedURL,
		DownloadURLTemplate:    DefaultDownloadURLTemplate,
		BuildMarker:            DefaultBuildMarker,
		Architectures:          []string{"x64", "arm64"},
		ExcludePointerFromScan: true,
	}
}

// DefaultConfig returns the default configuration rooted at root.
func DefaultConfig(root string) *Config {
	cfg := defaults()
	cfg.resolve(root)
	return cfg
}

// ResolveRoot picks the repository root: the flag value if set, then
// CURSOR_BUCKET_ROOT, then the working directory.
func ResolveRoot(flagValue string) (string, error) {
	root := flagValue
	if root == "" {
		root = os.Getenv(EnvRoot)
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	return filepath.Abs(root)
}

// Load builds the configuration for root. The config file is path if set,
// then CURSOR_BUCKET_CONFIG, then cursor-bucket.toml in root. An explicitly
// named file must exist; the implicit one is optional.
func Load(root, path string) (*Config, error) {
	cfg := defaults()

	explicit := true
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = filepath.Join(root, DefaultConfigName)
		explicit = false
	}

	if err := cfg.decodeFile(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg.resolve(root)
			return cfg, cfg.Validate()
		}
		return nil, err
	}

	cfg.resolve(root)
	return cfg, cfg.Validate()
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	md, err := toml.Decode(string(data), c)
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config key(s) in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// resolve anchors relative paths at root.
func (c *Config) resolve(root string) {
	c.Root = root
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	c.DataDir = abs(c.DataDir)
	c.OutputDir = abs(c.OutputDir)
	c.LegacyTemplate = abs(c.LegacyTemplate)
	c.CurrentTemplate = abs(c.CurrentTemplate)
	c.LatestManifest = abs(c.LatestManifest)
}

// Validate checks settings that would otherwise fail late in a run.
func (c *Config) Validate() error {
	if c.PointerFile == "" || filepath.Base(c.PointerFile) != c.PointerFile {
		return fmt.Errorf("pointer_file must be a plain file name, got %q", c.PointerFile)
	}
	if !strings.HasSuffix(c.PointerFile, ".json") {
		return fmt.Errorf("pointer_file must end in .json, got %q", c.PointerFile)
	}
	if c.ManifestPrefix == "" {
		return fmt.Errorf("manifest_prefix must not be empty")
	}
	if len(c.Architectures) == 0 {
		return fmt.Errorf("architectures must list at least one architecture")
	}
	if !strings.Contains(c.DownloadURLTemplate, "{arch}") {
		return fmt.Errorf("download_url_template must contain {arch}")
	}
	return nil
}

// PointerPath returns the absolute path of the pointer file.
func (c *Config) PointerPath() string {
	return filepath.Join(c.DataDir, c.PointerFile)
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
