package assetcache

import (
	"fmt"

	"github.com/spf13/afero"
)

// staleness returns a non-empty reason when the artifact described by rec no
// longer reflects members and must be rebuilt. Remote members take part in the
// membership checks but never in the timestamp comparison.
func (c *Cache) staleness(rec Record, members []SourceRef) string {
	exists, err := afero.Exists(c.fs, rec.References)
	if err != nil || !exists {
		return fmt.Sprintf("artifact %s missing", rec.References)
	}

	if len(members) != len(rec.Files) {
		return fmt.Sprintf("membership changed from %d to %d files", len(rec.Files), len(members))
	}

	recorded := make(map[string]struct{}, len(rec.Files))
	for _, f := range rec.Files {
		recorded[f] = struct{}{}
	}

	for _, m := range members {
		if _, ok := recorded[m.Path]; !ok {
			return fmt.Sprintf("%s is new", m.Path)
		}
		if !m.Remote && m.Modified > rec.Generated {
			return fmt.Sprintf("%s modified at %s after generation at %s", m.Path, m.Modified, rec.Generated)
		}
	}

	return ""
}

// IsStale reports whether rec must be regenerated for the given members.
func (c *Cache) IsStale(rec Record, members []SourceRef) bool {
	return c.staleness(rec, members) != ""
}
