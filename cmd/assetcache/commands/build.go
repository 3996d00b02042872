package commands

import (
	"fmt"

	"github.com/gophersatwork/assetcache"
	"github.com/gophersatwork/assetcache/internal/config"
	"github.com/spf13/cobra"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build every target of the asset manifest",
		Long: `Build every target listed in the asset manifest (see --config). A failing
target is reported and the remaining targets are still built.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			manifest, err := config.Load(c.fs, path)
			if err != nil {
				return err
			}

			cache, err := c.openCache(cmd, manifest.Options()...)
			if err != nil {
				return err
			}

			failed := 0
			for _, target := range manifest.Targets {
				var res *assetcache.Result
				if target.IsMerge() {
					req := target.MergeRequest()
					req.Force = req.Force || forced(cmd)
					res, err = cache.Merge(cmd.Context(), req)
				} else {
					req := target.MinifyRequest()
					req.Force = req.Force || forced(cmd)
					res, err = cache.Minify(cmd.Context(), req)
				}
				if err != nil {
					if cmd.Context().Err() != nil {
						return err
					}
					c.logger.Error("target failed", "target", target.Name(), "error", err)
					failed++
					continue
				}
				c.report(res)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d targets failed", failed, len(manifest.Targets))
			}
			return nil
		},
	}
}
