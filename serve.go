package assetcache

import (
	"bufio"
	"net/http"
	"net/textproto"

	"github.com/klauspost/compress/gzhttp"
)

// Handler serves the wrapped artifact at path. Headers come from the artifact's
// prologue; the body is gzip-compressed when the client accepts it and sent
// as-is otherwise.
func (c *Cache) Handler(path string) http.Handler {
	return gzhttp.GzipHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, err := c.fs.Open(path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		br := bufio.NewReader(f)
		header, err := textproto.NewReader(br).ReadMIMEHeader()
		if err != nil {
			c.logger.Error("invalid artifact prologue", "path", path, "error", err)
			http.Error(w, "invalid artifact", http.StatusInternalServerError)
			return
		}
		for k, vs := range header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}

		if r.Method == http.MethodHead {
			return
		}
		if err := copyBuffered(w, br); err != nil {
			c.logger.Warn("failed to serve artifact", "path", path, "error", err)
		}
	}))
}
