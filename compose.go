package assetcache

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// MergeSpec describes how the membership of a merge target is composed.
// It is resolved once per request and never stored.
type MergeSpec struct {
	Output    string   // Logical target path
	Directory string   // Directory scanned for members (non-recursive)
	Kind      Kind     // Kind of the target and of scanned files
	Files     []string // Selective mode: the complete, ordered membership
	Exclude   []string // Paths or base names never scanned in
	Priority  []string // Members placed first, in order
}

// Selective reports whether the membership is given explicitly, bypassing directory scanning.
func (s MergeSpec) Selective() bool {
	return len(s.Files) > 0
}

// pathSet matches local paths either by cleaned path or by base name.
type pathSet map[string]struct{}

func newPathSet(entries ...string) pathSet {
	set := make(pathSet, len(entries))
	for _, e := range entries {
		if e == "" {
			continue
		}
		set[filepath.Clean(e)] = struct{}{}
	}
	return set
}

func (s pathSet) has(p string) bool {
	if _, ok := s[filepath.Clean(p)]; ok {
		return true
	}
	_, ok := s[filepath.Base(p)]
	return ok
}

// Resolve returns the ordered, deduplicated membership described by spec.
// A directory that cannot be scanned is recorded in the returned diagnostics;
// validation problems are returned as a ValidationError.
func (c *Cache) Resolve(spec MergeSpec) ([]SourceRef, []Diagnostic, error) {
	diag := c.newDiagnostics()
	refs, err := c.resolve(spec, diag)
	return refs, diag.list(), err
}

func (c *Cache) resolve(spec MergeSpec, diag *diagnostics) ([]SourceRef, error) {
	var errs []error
	addErr := func(err error) bool {
		errs = append(errs, err)
		return !c.accumulateErrors
	}

	var members []SourceRef
	seen := make(map[string]struct{})
	add := func(entry string, dedupe bool) bool {
		ref := c.sourceRef(spec.Directory, entry, spec.Kind)
		if ref.Kind != spec.Kind {
			return addErr(fmt.Errorf("%w: %s is %s, target %s is %s", ErrMixedKinds, entry, ref.Kind, spec.Output, spec.Kind))
		}
		if _, dup := seen[ref.Path]; dup && dedupe {
			return false
		}
		seen[ref.Path] = struct{}{}
		members = append(members, ref)
		return false
	}

	// Selective membership is taken verbatim, duplicates included.
	if spec.Selective() {
		for _, f := range spec.Files {
			if add(f, false) {
				break
			}
		}
		if len(errs) > 0 {
			return nil, newValidationError(errs)
		}
		return members, nil
	}

	for _, p := range spec.Priority {
		if add(p, true) {
			return nil, newValidationError(errs)
		}
	}
	if len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	// Scanned files named like a priority entry are already covered by it.
	prioritized := make(map[string]struct{}, len(members))
	for _, m := range members {
		prioritized[m.Name()] = struct{}{}
	}

	exclude := newPathSet(spec.Exclude...)
	for _, name := range c.scan(spec, diag) {
		p := filepath.Join(spec.Directory, name)
		if exclude.has(p) {
			continue
		}
		if _, dup := prioritized[name]; dup {
			continue
		}
		add(p, true)
	}

	return members, nil
}

// scan lists the base names of files in the merge directory that match its
// kind, in name order, leaving out the target and its generated artifacts.
func (c *Cache) scan(spec MergeSpec, diag *diagnostics) []string {
	infos, err := afero.ReadDir(c.fs, spec.Directory)
	if err != nil {
		diag.warn(spec.Directory, fmt.Errorf("failed to scan directory: %w", err))
		return nil
	}

	output := filepath.Clean(spec.Output)
	var names []string
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := info.Name()
		if !strings.EqualFold(filepath.Ext(name), spec.Kind.Ext()) {
			continue
		}
		if filepath.Clean(filepath.Join(spec.Directory, name)) == output {
			continue
		}
		if filepath.Dir(output) == filepath.Clean(spec.Directory) && c.isHashedArtifactOf(output, name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// sourceRef builds a reference for a local path or remote URL. Relative local
// entries are looked up under dir first and taken as given otherwise.
// A local file that cannot be stat'ed keeps a zero timestamp; the writer
// reports it when the content cannot be read.
func (c *Cache) sourceRef(dir, entry string, fallback Kind) SourceRef {
	if isRemote(entry) {
		u := normalizeRemote(entry)
		kind, ok := KindOf(u)
		if !ok {
			kind = fallback
		}
		return SourceRef{Path: u, Kind: kind, Remote: true}
	}

	p := filepath.Clean(entry)
	if dir != "" && !filepath.IsAbs(p) {
		if _, err := c.fs.Stat(filepath.Join(dir, p)); err == nil {
			p = filepath.Join(dir, p)
		}
	}

	kind, ok := KindOf(p)
	if !ok {
		kind = fallback
	}

	ref := SourceRef{Path: p, Kind: kind}
	if info, err := c.fs.Stat(p); err == nil {
		ref.Modified = Normalize(info.ModTime())
	}
	return ref
}
