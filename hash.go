package assetcache

import (
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// Default size for the buffer used when hashing and copying content
const defaultBufferSize = 32 * 1024 // 32KB

// bufferPool is a pool of byte slices used for file I/O
var bufferPool = sync.Pool{
	New: func() interface{} {
		buffer := make([]byte, defaultBufferSize)
		return &buffer
	},
}

// copyBuffered copies src to dst using a pooled buffer.
func copyBuffered(dst io.Writer, src io.Reader) error {
	bufPtr := bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer bufferPool.Put(bufPtr)

	if _, err := io.CopyBuffer(dst, src, buffer); err != nil {
		return fmt.Errorf("failed to copy content: %w", err)
	}
	return nil
}

// hashString hashes the given parts with the cache hash function and returns
// the hex digest.
func (c *Cache) hashString(parts ...string) string {
	h := c.newHash()
	for _, p := range parts {
		_, _ = io.WriteString(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// sidecarName returns the record file name for a logical target. It depends
// only on the target path, so it stays stable across regenerations.
func (c *Cache) sidecarName(target string) string {
	return c.hashString(filepath.ToSlash(filepath.Clean(target))) + ".json"
}

// hashedArtifactPath returns a new physical artifact path for target, derived
// from the generation instant and the target's extension.
// The result looks like <dir>/<stem>.<hash><ext>.
func (c *Cache) hashedArtifactPath(target string, generated Epoch) string {
	ext := filepath.Ext(target)
	stem := strings.TrimSuffix(filepath.Base(target), ext)
	sum := c.hashString(generated.String(), ext)
	return filepath.Join(filepath.Dir(target), stem+"."+sum+ext)
}

// isHashedArtifactOf reports whether name (a base name) looks like a physical
// artifact generated for target by hashedArtifactPath.
func (c *Cache) isHashedArtifactOf(target, name string) bool {
	ext := filepath.Ext(target)
	stem := strings.TrimSuffix(filepath.Base(target), ext)
	if !strings.HasPrefix(name, stem+".") || !strings.HasSuffix(name, ext) {
		return false
	}
	mid := strings.TrimSuffix(strings.TrimPrefix(name, stem+"."), ext)
	if len(mid) != 2*c.newHash().Size() {
		return false
	}
	_, err := hex.DecodeString(mid)
	return err == nil
}
