// Package commands implements the CLI commands for assetcache.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gophersatwork/assetcache"
	"github.com/gophersatwork/assetcache/internal/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CLI represents the command line interface for assetcache.
type CLI struct {
	fs      afero.Fs
	out     io.Writer
	errOut  io.Writer
	options []assetcache.Option
	logger  *slog.Logger
	rootCmd *cobra.Command
}

// New creates a new CLI working on fs. Results go to out, logs to errOut.
// options are applied to every cache the CLI opens, after its own settings.
func New(fs afero.Fs, out, errOut io.Writer, options ...assetcache.Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "assetcache",
		Short:         "Incremental minification and bundling of CSS and JavaScript",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", config.DefaultFile, "Path to the asset manifest")
	flags.Bool("hashed", false, "Write artifacts under generation-hashed names")
	flags.Bool("wrap", false, "Prefix artifacts with an HTTP header prologue")
	flags.Bool("force", false, "Rebuild even when artifacts are current")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	c := &CLI{
		fs:      fs,
		out:     out,
		errOut:  errOut,
		options: options,
		logger:  slog.New(slog.DiscardHandler),
		rootCmd: rootCmd,
	}

	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		c.logger = slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level}))
		return nil
	}

	rootCmd.AddCommand(c.newMinifyCmd())
	rootCmd.AddCommand(c.newMergeCmd())
	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newSweepCmd())
	rootCmd.AddCommand(c.newServeCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// openCache opens a cache on the CLI filesystem. base options come first, then
// explicitly set engine flags, then the options given to New.
func (c *CLI) openCache(cmd *cobra.Command, base ...assetcache.Option) (*assetcache.Cache, error) {
	opts := append([]assetcache.Option{
		assetcache.WithFs(c.fs),
		assetcache.WithLogger(c.logger),
	}, base...)

	flags := cmd.Flags()
	if hashed, ok := changedBool(flags, "hashed"); ok {
		opts = append(opts, assetcache.WithHashedNames(hashed))
	}
	if wrap, ok := changedBool(flags, "wrap"); ok {
		opts = append(opts, assetcache.WithWrapper(assetcache.Wrapper{Enabled: wrap}))
	}

	cache, err := assetcache.Open(append(opts, c.options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return cache, nil
}

// changedBool returns the value of a boolean flag and whether it was set
// explicitly, so unset flags leave manifest settings alone.
func changedBool(flags *pflag.FlagSet, name string) (bool, bool) {
	if !flags.Changed(name) {
		return false, false
	}
	v, err := flags.GetBool(name)
	return v, err == nil
}

func forced(cmd *cobra.Command) bool {
	force, _ := cmd.Flags().GetBool("force")
	return force
}

// report prints one line per result: target, URL and whether it was rebuilt.
func (c *CLI) report(res *assetcache.Result) {
	status := "current"
	if res.Regenerated() {
		status = "rebuilt"
	}
	if n := len(res.Diagnostics()); n > 0 {
		status = fmt.Sprintf("%s, %d warning(s)", status, n)
	}
	_, _ = fmt.Fprintf(c.out, "%s -> %s (%s)\n", res.Target(), res.URL(), status)
}
