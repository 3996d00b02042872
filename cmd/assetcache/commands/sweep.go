package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep TARGET...",
		Short: "Remove artifacts left behind by earlier hashed builds",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := c.openCache(cmd)
			if err != nil {
				return err
			}

			for _, target := range args {
				removed, err := cache.Sweep(target)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(c.out, "%s: removed %d orphaned artifact(s)\n", target, removed)
			}
			return nil
		},
	}
}
