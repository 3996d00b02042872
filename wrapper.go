package assetcache

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

// WrapperExt is appended to the physical name of wrapped artifacts so they are
// never confused with plain ones.
const WrapperExt = ".http"

// DefaultMaxAge is the far-future caching offset used when Wrapper.MaxAge is zero.
const DefaultMaxAge = 365 * 24 * time.Hour

// Wrapper configures the transport prologue written in front of an artifact.
// A wrapped artifact starts with MIME headers (content type, caching, last
// modified) and a blank line; Handler serves it with negotiated compression.
type Wrapper struct {
	Enabled bool
	MaxAge  time.Duration
}

func (w Wrapper) maxAge() time.Duration {
	if w.MaxAge <= 0 {
		return DefaultMaxAge
	}
	return w.MaxAge
}

// prologue returns the header block for an artifact of kind generated at gen.
func (w Wrapper) prologue(kind Kind, gen Epoch) []byte {
	maxAge := w.maxAge()
	h := http.Header{}
	h.Set("Content-Type", kind.ContentType())
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int64(maxAge/time.Second)))
	h.Set("Expires", gen.Time().Add(maxAge).Format(http.TimeFormat))
	h.Set("Last-Modified", gen.Time().Format(http.TimeFormat))

	var buf bytes.Buffer
	_ = h.Write(&buf)
	buf.WriteString("\r\n")
	return buf.Bytes()
}
