package assetcache

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Kind is the asset kind of a source or target.
type Kind string

const (
	KindCSS Kind = "css"
	KindJS  Kind = "js"
)

// defaultRemoteScheme is given to protocol-relative references ("//host/x.js").
const defaultRemoteScheme = "http"

// ParseKind parses a kind name such as "css", ".js" or "JS".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "css":
		return KindCSS, nil
	case "js":
		return KindJS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// KindOf infers the kind from the extension of a path or URL.
// It returns false when the extension is not a known asset kind.
func KindOf(ref string) (Kind, bool) {
	p := ref
	if isRemote(ref) {
		u, err := url.Parse(normalizeRemote(ref))
		if err != nil {
			return "", false
		}
		p = path.Clean(u.Path)
	}
	k, err := ParseKind(filepath.Ext(p))
	if err != nil {
		return "", false
	}
	return k, true
}

// Ext returns the file extension for the kind, with the leading dot.
func (k Kind) Ext() string {
	return "." + string(k)
}

// ContentType returns the media type used when serving artifacts of this kind.
func (k Kind) ContentType() string {
	switch k {
	case KindCSS:
		return "text/css; charset=utf-8"
	case KindJS:
		return "application/javascript; charset=utf-8"
	}
	return "application/octet-stream"
}

// SourceRef identifies one input of an artifact.
type SourceRef struct {
	Path     string // Cleaned local path, or absolute URL for remote refs
	Kind     Kind
	Remote   bool
	Modified Epoch // Zero for remote refs
}

// Name returns the base name used in artifact framing.
func (s SourceRef) Name() string {
	if s.Remote {
		if u, err := url.Parse(s.Path); err == nil && u.Path != "" {
			return path.Base(u.Path)
		}
		return s.Path
	}
	return filepath.Base(s.Path)
}

// String returns a description of the reference.
func (s SourceRef) String() string {
	if s.Remote {
		return fmt.Sprintf("remote:%s", s.Path)
	}
	return fmt.Sprintf("file:%s", s.Path)
}

// isRemote reports whether ref carries a URI scheme or is protocol-relative.
func isRemote(ref string) bool {
	if strings.HasPrefix(ref, "//") {
		return true
	}
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// normalizeRemote gives protocol-relative references the default scheme.
func normalizeRemote(ref string) string {
	if strings.HasPrefix(ref, "//") {
		return defaultRemoteScheme + ":" + ref
	}
	return ref
}

// refPaths returns the identities of refs in order.
func refPaths(refs []SourceRef) []string {
	paths := make([]string, len(refs))
	for i, r := range refs {
		paths[i] = r.Path
	}
	return paths
}
