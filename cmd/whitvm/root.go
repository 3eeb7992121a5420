package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagVerbose bool
	log         zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "whitvm",
	Short: "WhitVM runs, checks, and minifies WhitVM text-adventure scripts",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.Disabled
		if flagVerbose {
			level = zerolog.DebugLevel
		}
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "trace loader and interpreter dispatch to stderr")
	rootCmd.AddCommand(runCmd, checkCmd, minifyCmd)
}
