package assetcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Records returns the sidecar records stored for targets in dir.
// Corrupted records are skipped.
func (c *Cache) Records(dir string) ([]Record, error) {
	sidecars := c.sidecarDirIn(dir)

	exists, err := afero.DirExists(c.fs, sidecars)
	if err != nil {
		return nil, fmt.Errorf("failed to check sidecar directory: %w", err)
	}
	if !exists {
		return nil, nil
	}

	var records []Record
	err = afero.Walk(c.fs, sidecars, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if info.IsDir() {
			if path != sidecars {
				return filepath.SkipDir
			}
			return nil
		}

		// Only process .json files
		if !strings.HasSuffix(path, ".json") {
			return nil
		}

		rec, err := c.readRecordFile(path)
		if err != nil {
			c.logger.Warn("skipping unreadable record", "path", path, "error", err)
			return nil
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Sweep removes physical artifacts of target left behind by earlier hashed
// regenerations. The artifact referenced by the current record is kept.
// Returns the number of files removed. Sweeping is never done implicitly.
func (c *Cache) Sweep(target string) (int, error) {
	target = filepath.Clean(target)
	unlock := c.lockTarget(canonical(target))
	defer unlock()

	rec, err := c.readSidecar(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load record for %s: %w", target, err)
	}

	dir := filepath.Dir(target)
	infos, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	count := 0
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := strings.TrimSuffix(info.Name(), WrapperExt)
		if !c.isHashedArtifactOf(target, name) {
			continue
		}
		path := filepath.Join(dir, info.Name())
		if path == filepath.Clean(rec.References) {
			continue
		}
		if err := c.fs.Remove(path); err != nil {
			return count, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		c.logger.Debug("removed orphaned artifact", "target", target, "path", path)
		count++
	}

	return count, nil
}
