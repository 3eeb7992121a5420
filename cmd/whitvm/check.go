package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FireShade3DS/whitvm/pkg/loader"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "load and validate a WhitVM source file without running it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		prog, err := loader.LoadFileWithLogger(args[0], &log)
		if err != nil {
			fail(err)
			return
		}
		fmt.Printf("ok: %d instructions, %d labels\n", len(prog.Instructions), len(prog.Labels))
	},
}
