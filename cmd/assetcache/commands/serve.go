package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gophersatwork/assetcache"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func (c *CLI) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve ADDR FILE...",
		Short: "Serve wrapped artifacts over HTTP",
		Long: `Serve artifacts built with --wrap. Each FILE is served at /<name>, where
name is its base name without the wrapper extension, with the headers from its
prologue and gzip compression when the client accepts it.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := c.openCache(cmd)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", args[0])
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", args[0], err)
			}

			srv := &http.Server{
				Handler:           c.newServeMux(cache, args[1:]),
				ReadHeaderTimeout: 10 * time.Second,
			}
			c.logger.Info("serving artifacts", "addr", ln.Addr().String(), "files", len(args)-1)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Serve(ln)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

// newServeMux routes /<name> to the artifact handler of each file.
func (c *CLI) newServeMux(cache *assetcache.Cache, files []string) *http.ServeMux {
	mux := http.NewServeMux()
	for _, file := range files {
		route := "/" + strings.TrimSuffix(filepath.Base(file), assetcache.WrapperExt)
		mux.Handle(route, cache.Handler(file))
		c.logger.Debug("route", "path", route, "file", file)
	}
	return mux
}
