package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/FireShade3DS/whitvm/pkg/config"
	"github.com/FireShade3DS/whitvm/pkg/loader"
	"github.com/FireShade3DS/whitvm/pkg/minifier"
)

var (
	flagOut             string
	flagConfig          string
	flagNameShrink      bool
	flagConstantFold    bool
	flagStringPool      bool
	flagDeadStore       bool
	flagUnreachable     bool
	flagAll             bool
	flagStringThreshold int
)

var minifyCmd = &cobra.Command{
	Use:   "minify <file>",
	Short: "rewrite a WhitVM source file through the minification pipeline",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		source, err := loader.ReadFile(args[0])
		if err != nil {
			fail(err)
			return
		}

		opts := minifier.Options{StringPoolThreshold: flagStringThreshold}
		if flagConfig != "" {
			profile, err := config.LoadMinifyProfile(flagConfig)
			if err != nil {
				fail(err)
				return
			}
			opts = profile.Options()
		}

		// Flags always override the profile file (SPEC_FULL.md §A.3).
		f := cmd.Flags()
		if flagAll || f.Changed("name-shrink") {
			opts.NameShrink = flagAll || flagNameShrink
		}
		if flagAll || f.Changed("constant-fold") {
			opts.ConstantFold = flagAll || flagConstantFold
		}
		if flagAll || f.Changed("string-pool") {
			opts.StringPool = flagAll || flagStringPool
		}
		if flagAll || f.Changed("dead-store") {
			opts.DeadStore = flagAll || flagDeadStore
		}
		if flagAll || f.Changed("unreachable") {
			opts.Unreachable = flagAll || flagUnreachable
		}
		if f.Changed("string-pool-threshold") {
			opts.StringPoolThreshold = flagStringThreshold
		}

		out, stats, err := minifier.Minify(source, opts)
		if err != nil {
			fail(err)
			return
		}

		dest := flagOut
		if dest == "" {
			dest = args[0]
		}
		if err := os.WriteFile(dest, []byte(out), 0644); err != nil {
			fail(err)
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"metric", "value"})
		t.AppendRow(table.Row{"original bytes", stats.OriginalBytes})
		t.AppendRow(table.Row{"minified bytes", stats.MinifiedBytes})
		t.AppendRow(table.Row{"delta", stats.Delta()})
		t.AppendRow(table.Row{"reduction", fmt.Sprintf("%.1f%%", 100*float64(stats.Delta())/float64(max(stats.OriginalBytes, 1)))})
		t.Render()
	},
}

func init() {
	minifyCmd.Flags().StringVarP(&flagOut, "out", "o", "", "output path (defaults to the <file> argument as given)")
	minifyCmd.Flags().StringVar(&flagConfig, "config", "", "path to a .whitvm-minify.toml pass profile")
	minifyCmd.Flags().BoolVar(&flagAll, "all", false, "enable every opt-in pass")
	minifyCmd.Flags().BoolVar(&flagNameShrink, "name-shrink", false, "rename variables and labels to minimal identifiers")
	minifyCmd.Flags().BoolVar(&flagConstantFold, "constant-fold", false, "evaluate constant expressions at minify time")
	minifyCmd.Flags().BoolVar(&flagStringPool, "string-pool", false, "hoist repeated string literals into a variable")
	minifyCmd.Flags().BoolVar(&flagDeadStore, "dead-store", false, "remove set instructions whose value is never read")
	minifyCmd.Flags().BoolVar(&flagUnreachable, "unreachable", false, "remove instructions unreachable from instruction 0")
	minifyCmd.Flags().IntVar(&flagStringThreshold, "string-pool-threshold", 2, "pool a string only when its use count is greater than this")
}
