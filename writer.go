package assetcache

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// artifact describes one artifact to be written.
type artifact struct {
	target    string            // Logical target, used in framing
	physical  string            // Path written on disk
	kind      Kind              // Kind of the target
	members   []SourceRef       // Resolved members in order
	merged    bool              // Merges get a table of contents, single files a header
	generated Epoch             // Forced onto the file's modification time
	remote    map[string][]byte // Prefetched remote content by URL
}

// writeArtifact renders a and atomically replaces its physical file.
// Per-member failures are recorded in diag and never abort the write; a missing
// or unwritable destination does, and leaves no partial file behind.
func (c *Cache) writeArtifact(a artifact, diag *diagnostics) error {
	dir := filepath.Dir(a.physical)
	exists, err := afero.DirExists(c.fs, dir)
	if err != nil || !exists {
		return fmt.Errorf("%w: directory %s does not exist", ErrDestinationUnwritable, dir)
	}

	var buf bytes.Buffer
	if c.wrapper.Enabled {
		buf.Write(c.wrapper.prologue(a.kind, a.generated))
	}
	if a.merged {
		writeContents(&buf, a)
	} else {
		fmt.Fprintf(&buf, "/* %s generated %s */\n", filepath.Base(a.target), a.generated.Time().Format("2006-01-02T15:04:05Z"))
	}

	for i, m := range a.members {
		content, ok := c.memberContent(a, m, diag)
		if !ok {
			continue
		}
		if a.merged {
			if i > 0 {
				buf.WriteString("\n")
			}
			fmt.Fprintf(&buf, "/* Source file: %s */\n", m.Name())
		}
		buf.WriteString(content)
		if a.merged && !strings.HasSuffix(content, "\n") {
			buf.WriteString("\n")
		}
	}

	if err := c.writeAtomic(a.physical, buf.Bytes()); err != nil {
		return err
	}

	t := a.generated.Time()
	if err := c.fs.Chtimes(a.physical, t, t); err != nil {
		return fmt.Errorf("failed to set modification time on %s: %w", a.physical, err)
	}
	return nil
}

// writeContents writes the table of contents block for a merged artifact.
func writeContents(buf *bytes.Buffer, a artifact) {
	fmt.Fprintf(buf, "/*\n * %s generated %s\n *\n * Contents:\n", filepath.Base(a.target), a.generated.Time().Format("2006-01-02T15:04:05Z"))
	for i, m := range a.members {
		fmt.Fprintf(buf, " *  %d. %s\n", i+1, m.Name())
	}
	buf.WriteString(" */\n")
}

// memberContent returns the transformed content of m. It reports false when
// the member contributes nothing because its remote fetch failed.
func (c *Cache) memberContent(a artifact, m SourceRef, diag *diagnostics) (string, bool) {
	var raw string
	if m.Remote {
		data, ok := a.remote[m.Path]
		if !ok {
			return "", false
		}
		raw = string(data)
	} else {
		data, err := afero.ReadFile(c.fs, m.Path)
		if err != nil {
			diag.warn(m.Path, fmt.Errorf("%w: %v", ErrSourceUnreadable, err))
			return "", true
		}
		raw = string(data)
	}

	opts := TransformOptions{
		Minify:        !m.Remote,
		StripComments: c.stripComments && !m.Remote,
	}
	out, err := c.transformer.Transform(raw, m.Kind, opts)
	if err != nil {
		diag.warn(m.Path, fmt.Errorf("%w: %v", ErrTransformFailed, err))
		return raw, true
	}
	return out, true
}

// writeAtomic writes data to a temporary file next to path and renames it into
// place. The temporary file is removed on every failure path.
func (c *Cache) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(c.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDestinationUnwritable, err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = c.fs.Remove(tmpName)
		}
	}()

	if err := copyBuffered(tmp, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrDestinationUnwritable, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrDestinationUnwritable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrDestinationUnwritable, err)
	}
	if err := c.fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", ErrDestinationUnwritable, err)
	}
	committed = true
	return nil
}
