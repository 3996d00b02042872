// Package config loads the asset manifest that drives the assetcache CLI.
//
// A manifest is YAML (assets.yaml) or JSON with comments (assets.jsonc). It
// carries engine settings and the list of targets to build:
//
//	hashed: true
//	wrap: false
//	fetchTimeout: 5s
//	targets:
//	  - source: css/site.css
//	  - output: js/all.min.js
//	    directory: js
//	    priority: [vendor.js]
//	    exclude: [debug.js]
//	    version: "12"
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gophersatwork/assetcache"
	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the manifest looked up when none is given.
const DefaultFile = "assets.yaml"

// ErrInvalidManifest is wrapped by every validation failure.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest represents the structure of an asset manifest.
type Manifest struct {
	Hashed           bool     `yaml:"hashed" json:"hashed"`
	StripComments    *bool    `yaml:"stripComments" json:"stripComments"`
	Wrap             bool     `yaml:"wrap" json:"wrap"`
	MaxAge           string   `yaml:"maxAge" json:"maxAge"`
	FetchTimeout     string   `yaml:"fetchTimeout" json:"fetchTimeout"`
	FetchConcurrency int      `yaml:"fetchConcurrency" json:"fetchConcurrency"`
	SidecarDir       string   `yaml:"sidecarDir" json:"sidecarDir"`
	Targets          []Target `yaml:"targets" json:"targets"`

	maxAge       time.Duration
	fetchTimeout time.Duration
}

// Target is one artifact to build. A target with a Source is minified on its
// own; any other target is a merge.
type Target struct {
	Output    string   `yaml:"output" json:"output"`
	Source    string   `yaml:"source" json:"source"`
	Directory string   `yaml:"directory" json:"directory"`
	Kind      string   `yaml:"kind" json:"kind"`
	Files     []string `yaml:"files" json:"files"`
	Exclude   []string `yaml:"exclude" json:"exclude"`
	Priority  []string `yaml:"priority" json:"priority"`
	Version   string   `yaml:"version" json:"version"`
	CacheBust string   `yaml:"cacheBust" json:"cacheBust"`
	Force     bool     `yaml:"force" json:"force"`
}

// Load reads and validates the manifest at path. Relative target paths are
// resolved against the manifest's directory.
func Load(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	m.resolvePaths(filepath.Dir(path))
	return m, nil
}

// Parse decodes and validates manifest data. ext selects the format: .json
// and .jsonc are JSON with comments, anything else is YAML.
func Parse(data []byte, ext string) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	var errs []error

	var err error
	if m.maxAge, err = parseDuration("maxAge", m.MaxAge); err != nil {
		errs = append(errs, err)
	}
	if m.fetchTimeout, err = parseDuration("fetchTimeout", m.FetchTimeout); err != nil {
		errs = append(errs, err)
	}
	if m.FetchConcurrency < 0 {
		errs = append(errs, fmt.Errorf("%w: fetchConcurrency must not be negative", ErrInvalidManifest))
	}

	for i, t := range m.Targets {
		if err := t.validate(); err != nil {
			errs = append(errs, fmt.Errorf("target %d: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s %q is not a valid duration", ErrInvalidManifest, field, value)
	}
	return d, nil
}

func (t Target) validate() error {
	switch {
	case t.Source == "" && t.Output == "":
		return fmt.Errorf("%w: either source or output is required", ErrInvalidManifest)
	case t.Source != "" && (t.Directory != "" || len(t.Files) > 0 || len(t.Priority) > 0 || len(t.Exclude) > 0):
		return fmt.Errorf("%w: source targets take no merge settings", ErrInvalidManifest)
	}

	if t.Kind != "" {
		if _, err := assetcache.ParseKind(t.Kind); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
		}
	}
	if _, err := parseCacheBust(t.CacheBust); err != nil {
		return err
	}
	return nil
}

func parseCacheBust(s string) (assetcache.CacheBust, error) {
	switch strings.ToLower(s) {
	case "", "version":
		return assetcache.CacheBustVersion, nil
	case "content":
		return assetcache.CacheBustContent, nil
	}
	return 0, fmt.Errorf("%w: unknown cacheBust %q", ErrInvalidManifest, s)
}

func (m *Manifest) resolvePaths(base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "//") || strings.Contains(p, "://") {
			return p
		}
		return filepath.Join(base, p)
	}
	for i := range m.Targets {
		t := &m.Targets[i]
		t.Output = resolve(t.Output)
		t.Source = resolve(t.Source)
		t.Directory = resolve(t.Directory)
	}
}

// Options returns the engine options described by the manifest.
func (m *Manifest) Options() []assetcache.Option {
	opts := []assetcache.Option{
		assetcache.WithHashedNames(m.Hashed),
		assetcache.WithWrapper(assetcache.Wrapper{Enabled: m.Wrap, MaxAge: m.maxAge}),
	}
	if m.StripComments != nil {
		opts = append(opts, assetcache.WithStripComments(*m.StripComments))
	}
	if m.fetchTimeout > 0 {
		opts = append(opts, assetcache.WithFetchTimeout(m.fetchTimeout))
	}
	if m.FetchConcurrency > 0 {
		opts = append(opts, assetcache.WithFetchConcurrency(m.FetchConcurrency))
	}
	if m.SidecarDir != "" {
		opts = append(opts, assetcache.WithSidecarDir(m.SidecarDir))
	}
	return opts
}

// IsMerge reports whether the target combines several sources.
func (t Target) IsMerge() bool {
	return t.Source == ""
}

// Name identifies the target in reports.
func (t Target) Name() string {
	if t.Output != "" {
		return t.Output
	}
	return t.Source
}

// MinifyRequest converts a single-source target into an engine request.
func (t Target) MinifyRequest() assetcache.MinifyRequest {
	bust, _ := parseCacheBust(t.CacheBust)
	return assetcache.MinifyRequest{
		Source:    t.Source,
		Output:    t.Output,
		Version:   t.Version,
		CacheBust: bust,
		Force:     t.Force,
	}
}

// MergeRequest converts a merge target into an engine request.
func (t Target) MergeRequest() assetcache.MergeRequest {
	bust, _ := parseCacheBust(t.CacheBust)
	return assetcache.MergeRequest{
		Output:    t.Output,
		Directory: t.Directory,
		Kind:      assetcache.Kind(strings.TrimPrefix(strings.ToLower(t.Kind), ".")),
		Files:     t.Files,
		Exclude:   t.Exclude,
		Priority:  t.Priority,
		Version:   t.Version,
		CacheBust: bust,
		Force:     t.Force,
	}
}
