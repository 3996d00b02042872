package assetcache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// CacheBust selects how the returned URL is made unique per artifact version.
type CacheBust int

const (
	// CacheBustVersion appends ?v=<Version> when a version is given.
	CacheBustVersion CacheBust = iota
	// CacheBustContent appends ?v=<digest of the artifact bytes>.
	CacheBustContent
)

// Length in bytes of the content digest used for CacheBustContent.
const contentTokenSize = 8

// MinifyRequest asks for a single source to be optimized.
type MinifyRequest struct {
	Source    string    // Local path or URL of the source
	Output    string    // Logical target; defaults to <dir>/<name>.min.<ext>
	Version   string    // Cache-busting token for CacheBustVersion
	CacheBust CacheBust // How to build the returned URL
	Force     bool      // Rebuild even when the artifact is current
}

// MergeRequest asks for several sources to be combined into one artifact.
type MergeRequest struct {
	Output    string   // Logical target
	Directory string   // Scanned for members; defaults to the output's directory
	Kind      Kind     // Defaults to the output's extension
	Files     []string // Selective mode: complete ordered membership, no scanning
	Exclude   []string
	Priority  []string

	Version   string
	CacheBust CacheBust
	Force     bool
}

// Minify returns the artifact for a single source, rebuilding it when stale.
func (c *Cache) Minify(ctx context.Context, req MinifyRequest) (*Result, error) {
	var errs []error
	if req.Source == "" {
		errs = append(errs, errors.New("source is required"))
	}
	kind, ok := KindOf(req.Source)
	if req.Source != "" && !ok {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownKind, req.Source))
	}

	output := req.Output
	if output == "" && req.Source != "" {
		if isRemote(req.Source) {
			errs = append(errs, fmt.Errorf("output is required for remote source %s", req.Source))
		} else {
			output = defaultMinifiedName(req.Source)
		}
	}
	if output != "" && !isRemote(req.Source) && filepath.Clean(output) == filepath.Clean(req.Source) {
		errs = append(errs, fmt.Errorf("output %s would overwrite its source", output))
	}
	if output != "" && ok {
		if outKind, known := KindOf(output); known && outKind != kind {
			errs = append(errs, fmt.Errorf("%w: %s is %s, target %s is %s", ErrMixedKinds, req.Source, kind, output, outKind))
		}
	}
	if err := c.validated(errs); err != nil {
		return nil, err
	}

	resolve := func(*diagnostics) ([]SourceRef, error) {
		return []SourceRef{c.sourceRef("", req.Source, kind)}, nil
	}
	return c.build(ctx, buildPlan{
		target:    filepath.Clean(output),
		kind:      kind,
		resolve:   resolve,
		force:     req.Force,
		version:   req.Version,
		cacheBust: req.CacheBust,
	})
}

// Merge returns the artifact combining the sources described by req,
// rebuilding it when stale.
func (c *Cache) Merge(ctx context.Context, req MergeRequest) (*Result, error) {
	var errs []error
	if req.Output == "" {
		errs = append(errs, errors.New("output is required"))
	}

	kind := req.Kind
	if kind == "" && req.Output != "" {
		k, ok := KindOf(req.Output)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: cannot infer kind of %s", ErrUnknownKind, req.Output))
		}
		kind = k
	} else if kind != "" {
		if _, err := ParseKind(string(kind)); err != nil {
			errs = append(errs, err)
		} else if outKind, known := KindOf(req.Output); known && outKind != kind {
			errs = append(errs, fmt.Errorf("%w: target %s is %s, requested %s", ErrMixedKinds, req.Output, outKind, kind))
		}
	}
	if err := c.validated(errs); err != nil {
		return nil, err
	}

	dir := req.Directory
	if dir == "" {
		dir = filepath.Dir(req.Output)
	}
	spec := MergeSpec{
		Output:    filepath.Clean(req.Output),
		Directory: filepath.Clean(dir),
		Kind:      kind,
		Files:     req.Files,
		Exclude:   req.Exclude,
		Priority:  req.Priority,
	}

	return c.build(ctx, buildPlan{
		target:    spec.Output,
		kind:      kind,
		merged:    true,
		resolve:   func(diag *diagnostics) ([]SourceRef, error) { return c.resolve(spec, diag) },
		force:     req.Force,
		version:   req.Version,
		cacheBust: req.CacheBust,
	})
}

// buildPlan is the mode-independent description of one request.
type buildPlan struct {
	target    string
	kind      Kind
	merged    bool
	resolve   func(*diagnostics) ([]SourceRef, error)
	force     bool
	version   string
	cacheBust CacheBust
}

// build runs resolve, evaluate and write for one target. Requests for the same
// target are serialized: a caller waiting behind a rebuild re-evaluates its own
// request against the fresh record and reuses the artifact when it is current.
func (c *Cache) build(ctx context.Context, plan buildPlan) (*Result, error) {
	unlock := c.lockTarget(canonical(plan.target))
	defer unlock()
	return c.buildLocked(ctx, plan)
}

func (c *Cache) buildLocked(ctx context.Context, plan buildPlan) (*Result, error) {
	diag := c.newDiagnostics()

	members, err := plan.resolve(diag)
	if err != nil {
		return nil, err
	}

	rec := c.loadRecord(plan.target, members, diag)

	reason := c.staleness(rec, members)
	if plan.force {
		reason = "forced"
	}
	if reason == "" {
		c.logger.Debug("artifact current", "target", plan.target, "path", rec.References)
		return c.result(plan, rec, members, false, diag)
	}
	c.logger.Info("rebuilding artifact", "target", plan.target, "reason", reason)

	remote := c.fetchRemote(ctx, members, diag)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, persist := c.newRecord(plan.target, members, plan.force, diag)
	err = c.writeArtifact(artifact{
		target:    plan.target,
		physical:  rec.References,
		kind:      plan.kind,
		members:   members,
		merged:    plan.merged,
		generated: rec.Generated,
		remote:    remote,
	}, diag)
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", plan.target, err)
	}

	if persist {
		if err := c.persistRecord(rec); err != nil {
			diag.warn(c.sidecarPath(plan.target), err)
		}
	}

	return c.result(plan, rec, members, true, diag)
}

// result assembles the Result for rec, computing the cache-busting token.
func (c *Cache) result(plan buildPlan, rec Record, members []SourceRef, regenerated bool, diag *diagnostics) (*Result, error) {
	url := rec.References
	switch plan.cacheBust {
	case CacheBustContent:
		token, err := c.contentToken(rec.References)
		if err != nil {
			diag.warn(rec.References, fmt.Errorf("failed to fingerprint artifact: %w", err))
		} else {
			url += "?v=" + token
		}
	default:
		if plan.version != "" {
			url += "?v=" + plan.version
		}
	}

	return &Result{
		target:      plan.target,
		path:        rec.References,
		url:         url,
		regenerated: regenerated,
		record:      rec.clone(),
		members:     members,
		diagnostics: diag.list(),
	}, nil
}

// contentToken returns a short digest of the artifact at path.
func (c *Cache) contentToken(path string) (string, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if err := copyBuffered(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)[:contentTokenSize]), nil
}

// validated applies the fail-fast policy to request validation errors.
func (c *Cache) validated(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if !c.accumulateErrors {
		errs = errs[:1]
	}
	return newValidationError(errs)
}

// defaultMinifiedName returns <dir>/<name>.min.<ext> for a source path.
func defaultMinifiedName(source string) string {
	ext := filepath.Ext(source)
	stem := strings.TrimSuffix(filepath.Base(source), ext)
	return filepath.Join(filepath.Dir(source), stem+".min"+ext)
}
