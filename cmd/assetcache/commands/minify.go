package commands

import (
	"github.com/gophersatwork/assetcache"
	"github.com/spf13/cobra"
)

func (c *CLI) newMinifyCmd() *cobra.Command {
	var (
		output  string
		version string
		content bool
	)

	cmd := &cobra.Command{
		Use:   "minify SOURCE",
		Short: "Minify a single stylesheet or script",
		Long: `Minify a single stylesheet or script. The artifact is rebuilt only when
the source changed since the last build. Without -o the output is written
next to the source as <name>.min.<ext>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := c.openCache(cmd)
			if err != nil {
				return err
			}

			req := assetcache.MinifyRequest{
				Source:  args[0],
				Output:  output,
				Version: version,
				Force:   forced(cmd),
			}
			if content {
				req.CacheBust = assetcache.CacheBustContent
			}

			res, err := cache.Minify(cmd.Context(), req)
			if err != nil {
				return err
			}
			c.report(res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default <name>.min.<ext>)")
	cmd.Flags().StringVar(&version, "version", "", "Version appended to the returned URL as ?v=")
	cmd.Flags().BoolVar(&content, "content-hash", false, "Append a digest of the artifact instead of --version")

	return cmd
}
