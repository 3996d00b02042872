package assetcache

import (
	"log/slog"
	"sync"
)

// Result describes the artifact backing a logical target after a request.
// Users should not construct this directly - it's returned by Minify and Merge.
type Result struct {
	target      string
	path        string
	url         string
	regenerated bool
	record      Record
	members     []SourceRef
	diagnostics []Diagnostic
}

// Target returns the logical target path.
func (r *Result) Target() string {
	return r.target
}

// Path returns the physical artifact path.
func (r *Result) Path() string {
	return r.path
}

// URL returns the artifact reference to hand to clients: the physical path,
// suffixed with a cache-busting query token when one was requested.
func (r *Result) URL() string {
	return r.url
}

// Regenerated reports whether this request rebuilt the artifact.
func (r *Result) Regenerated() bool {
	return r.regenerated
}

// Record returns a copy of the record describing the artifact.
func (r *Result) Record() Record {
	return r.record.clone()
}

// Generated returns when the artifact was last built.
func (r *Result) Generated() Epoch {
	return r.record.Generated
}

// Members returns the resolved membership of the target.
func (r *Result) Members() []SourceRef {
	return append([]SourceRef(nil), r.members...)
}

// Diagnostics returns the recoverable problems met while serving the request.
func (r *Result) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), r.diagnostics...)
}

// diagnostics collects per-member problems for one request and logs them.
// It is safe for concurrent use.
type diagnostics struct {
	logger *slog.Logger
	mu     sync.Mutex
	items  []Diagnostic
}

func (c *Cache) newDiagnostics() *diagnostics {
	return &diagnostics{logger: c.logger}
}

// warn records a recoverable problem with source.
func (d *diagnostics) warn(source string, err error) {
	d.logger.Warn("asset degraded", "source", source, "error", err)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, Diagnostic{Source: source, Err: err})
}

// list returns the recorded diagnostics.
func (d *diagnostics) list() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Diagnostic(nil), d.items...)
}
