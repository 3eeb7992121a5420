package main

import (
	"github.com/spf13/cobra"

	"github.com/FireShade3DS/whitvm/pkg/interpreter"
	"github.com/FireShade3DS/whitvm/pkg/loader"
)

var flagSeed int64

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "execute a WhitVM source file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		prog, err := loader.LoadFileWithLogger(args[0], &log)
		if err != nil {
			fail(err)
			return
		}

		it := interpreter.New(prog)
		it.Logger = &log
		if cmd.Flags().Changed("seed") {
			it.Seed(flagSeed)
		}

		if err := it.Run(); err != nil {
			fail(err)
			return
		}
	},
}

func init() {
	runCmd.Flags().Int64Var(&flagSeed, "seed", 0, "seed the PRNG for deterministic rng calls")
}
