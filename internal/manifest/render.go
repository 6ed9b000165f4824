package manifest

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/tsukumogami/cursor-bucket/internal/log"
	"github.com/tsukumogami/cursor-bucket/internal/release"
	"github.com/tsukumogami/cursor-bucket/internal/version"
)

// VersionPlaceholder is replaced with the literal version string in
// executable and shortcut entries.
const VersionPlaceholder = "{version}"

// placeholderSections lists the template arrays whose entries carry an
// executable alias or shortcut label at index 1.
var placeholderSections = []string{"bin", "shortcuts"}

// prettyOptions formats manifests with four-space indentation and one array
// element per line, keeping the template's key order.
var prettyOptions = &pretty.Options{Indent: "    ", Width: 0, SortKeys: false}

// Manifest is one rendered manifest document.
type Manifest struct {
	Version string
	Era     version.Era

	// Template is the path of the template the manifest was rendered from.
	Template string

	// Architectures lists the manifest architecture keys that were populated.
	Architectures []string

	data []byte
}

// Bytes returns the formatted JSON document.
func (m *Manifest) Bytes() []byte {
	return m.data
}

// Get looks up a gjson path in the rendered document.
func (m *Manifest) Get(path string) gjson.Result {
	return gjson.GetBytes(m.data, path)
}

// Renderer assembles manifests from templates.
type Renderer struct {
	templates *TemplateStore
	logger    log.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used by the renderer.
func WithLogger(l log.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// NewRenderer creates a renderer backed by the given template store.
func NewRenderer(templates *TemplateStore, opts ...Option) *Renderer {
	r := &Renderer{templates: templates, logger: log.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render builds the manifest for one version. Architectures the era
// supports but releases does not contain are omitted. The renderer has no
// side effects; persisting the result is up to the caller.
func (r *Renderer) Render(v string, releases release.Releases) (*Manifest, error) {
	key, err := version.Parse(v)
	if err != nil {
		return nil, err
	}
	era := version.Classify(key)

	tpl, err := r.templates.Load(era)
	if err != nil {
		return nil, err
	}

	doc := tpl.Clone()
	if doc, err = sjson.SetBytes(doc, "version", v); err != nil {
		return nil, fmt.Errorf("set version: %w", err)
	}
	if doc, err = sjson.SetRawBytes(doc, "architecture", []byte("{}")); err != nil {
		return nil, fmt.Errorf("reset architecture: %w", err)
	}

	var populated []string
	for _, arch := range era.Architectures() {
		desc, ok := releases[arch]
		if !ok {
			continue
		}
		target := release.TargetName(arch)
		block, err := architectureBlock(tpl, target, Project(desc, era))
		if err != nil {
			return nil, err
		}
		if doc, err = sjson.SetRawBytes(doc, "architecture."+target, block); err != nil {
			return nil, fmt.Errorf("set architecture %s: %w", target, err)
		}
		populated = append(populated, target)
	}

	if doc, err = substitutePlaceholders(doc, v); err != nil {
		return nil, err
	}

	r.logger.Debug("rendered manifest", "version", v, "era", era.String(), "architectures", populated)

	return &Manifest{
		Version:       v,
		Era:           era,
		Template:      tpl.Path(),
		Architectures: populated,
		data:          pretty.PrettyOptions(doc, prettyOptions),
	}, nil
}

// architectureBlock copies the template's placeholder block for target and
// overwrites its url and hash. Other keys in the block are preserved.
func architectureBlock(tpl *Template, target string, p ArchitectureBlock) ([]byte, error) {
	placeholder := tpl.Get("architecture." + target)
	if !placeholder.IsObject() {
		return nil, fmt.Errorf("%w: %s has no architecture.%s block", ErrTemplateUnavailable, tpl.Path(), target)
	}

	block := []byte(placeholder.Raw)
	var err error
	if block, err = sjson.SetBytes(block, "url", p.URL); err != nil {
		return nil, fmt.Errorf("set %s url: %w", target, err)
	}
	if block, err = sjson.SetBytes(block, "hash", p.Hash); err != nil {
		return nil, fmt.Errorf("set %s hash: %w", target, err)
	}
	return block, nil
}

// substitutePlaceholders replaces every VersionPlaceholder in the alias or
// label slot of bin and shortcut entries. Plain string entries are
// substituted as a whole.
func substitutePlaceholders(doc []byte, v string) ([]byte, error) {
	for _, section := range placeholderSections {
		entries := gjson.GetBytes(doc, section)
		if !entries.IsArray() {
			continue
		}

		for i, entry := range entries.Array() {
			path := fmt.Sprintf("%s.%d", section, i)
			var current gjson.Result
			switch {
			case entry.IsArray():
				items := entry.Array()
				if len(items) < 2 {
					continue
				}
				current = items[1]
				path += ".1"
			case entry.Type == gjson.String:
				current = entry
			default:
				continue
			}

			if current.Type != gjson.String || !strings.Contains(current.Str, VersionPlaceholder) {
				continue
			}
			var err error
			doc, err = sjson.SetBytes(doc, path, strings.ReplaceAll(current.Str, VersionPlaceholder, v))
			if err != nil {
				return nil, fmt.Errorf("substitute %s: %w", path, err)
			}
		}
	}
	return doc, nil
}
