package assetcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Record is the persisted state of one logical target.
// It maps the target to the physical artifact currently considered valid and
// remembers the membership that artifact was built from.
type Record struct {
	Target      string   `json:"target"`                // Logical target path
	Files       []string `json:"files"`                 // Member identities at last generation
	References  string   `json:"references"`            // Physical artifact path
	FileMtime   Epoch    `json:"filemtime"`             // Modification time forced onto the artifact
	Generated   Epoch    `json:"generated"`             // When the artifact was (re)built
	Regenerated Epoch    `json:"regenerated,omitempty"` // Set only by forced rebuilds
}

// clone returns a deep copy of the record.
func (r Record) clone() Record {
	r.Files = append([]string(nil), r.Files...)
	return r
}

// physicalName returns the on-disk name for an artifact at p, accounting for
// the transport wrapper's extra extension segment.
func (c *Cache) physicalName(p string) string {
	if c.wrapper.Enabled {
		return p + WrapperExt
	}
	return p
}

// loadRecord returns the current record for target. Without a usable sidecar it
// synthesizes one that treats members as the recorded membership and the
// artifact's modification time (or now) as the generation time.
func (c *Cache) loadRecord(target string, members []SourceRef, diag *diagnostics) Record {
	if c.hashedNames {
		rec, err := c.readSidecar(target)
		switch {
		case err == nil:
			return rec
		case errors.Is(err, os.ErrNotExist):
			// First request for this target.
		default:
			diag.warn(c.sidecarPath(target), err)
		}
	}

	physical := c.physicalName(target)
	generated := c.nowEpoch()
	if info, err := c.fs.Stat(physical); err == nil {
		generated = Normalize(info.ModTime())
	}

	return Record{
		Target:      target,
		Files:       refPaths(members),
		References:  physical,
		FileMtime:   generated,
		Generated:   generated,
		Regenerated: generated,
	}
}

// newRecord creates the record for a rebuild happening now. The returned bool
// reports whether the record should be persisted to a sidecar; it is false when
// hashed names are disabled or the sidecar directory is unavailable, in which
// case the artifact is written to the logical target path.
func (c *Cache) newRecord(target string, members []SourceRef, force bool, diag *diagnostics) (Record, bool) {
	generated := c.nowEpoch()
	rec := Record{
		Target:     target,
		Files:      refPaths(members),
		References: c.physicalName(target),
		FileMtime:  generated,
		Generated:  generated,
	}
	if force {
		rec.Regenerated = generated
	}

	if !c.hashedNames {
		return rec, false
	}

	// Leave a missing destination for the writer to report.
	if ok, _ := afero.DirExists(c.fs, filepath.Dir(target)); !ok {
		return rec, false
	}

	if err := c.fs.MkdirAll(c.sidecarDirFor(target), 0o755); err != nil {
		diag.warn(c.sidecarDirFor(target), fmt.Errorf("sidecar directory unavailable, using unhashed name: %w", err))
		return rec, false
	}

	rec.References = c.physicalName(c.hashedArtifactPath(target, generated))
	return rec, true
}

// persistRecord writes rec to the target's sidecar, replacing any previous record.
func (c *Cache) persistRecord(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := c.writeAtomic(c.sidecarPath(rec.Target), data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// readSidecar reads and decodes the sidecar record for target.
func (c *Cache) readSidecar(target string) (Record, error) {
	return c.readRecordFile(c.sidecarPath(target))
}

// readRecordFile decodes the record stored at path.
func (c *Cache) readRecordFile(path string) (Record, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal record %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}
