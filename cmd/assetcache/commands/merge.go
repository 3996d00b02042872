package commands

import (
	"github.com/gophersatwork/assetcache"
	"github.com/spf13/cobra"
)

func (c *CLI) newMergeCmd() *cobra.Command {
	var (
		req     assetcache.MergeRequest
		kind    string
		content bool
	)

	cmd := &cobra.Command{
		Use:   "merge OUTPUT",
		Short: "Combine stylesheets or scripts into one artifact",
		Long: `Combine every file of the output's kind found in --dir (the output's
directory by default) into OUTPUT. --priority entries come first, in order,
and may be remote URLs. --files replaces scanning with an explicit list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := c.openCache(cmd)
			if err != nil {
				return err
			}

			req.Output = args[0]
			req.Force = forced(cmd)
			if kind != "" {
				k, err := assetcache.ParseKind(kind)
				if err != nil {
					return err
				}
				req.Kind = k
			}
			if content {
				req.CacheBust = assetcache.CacheBustContent
			}

			res, err := cache.Merge(cmd.Context(), req)
			if err != nil {
				return err
			}
			c.report(res)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&req.Directory, "dir", "d", "", "Directory scanned for members")
	flags.StringVarP(&kind, "kind", "k", "", "Asset kind (css or js); defaults to the output extension")
	flags.StringSliceVar(&req.Files, "files", nil, "Explicit ordered members; disables scanning")
	flags.StringSliceVar(&req.Exclude, "exclude", nil, "Paths or file names left out of the scan")
	flags.StringSliceVar(&req.Priority, "priority", nil, "Members placed first, in order")
	flags.StringVar(&req.Version, "version", "", "Version appended to the returned URL as ?v=")
	flags.BoolVar(&content, "content-hash", false, "Append a digest of the artifact instead of --version")

	return cmd
}
