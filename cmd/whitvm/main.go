// Command whitvm is the CLI collaborator of spec §6: run, check, and
// minify WhitVM programs. Grounded on the teacher's cmd/psil/main.go
// (runFile/runSource shape, flag-driven debug toggle) generalized to
// cobra's subcommand surface per SPEC_FULL.md §A.5, since the spec's
// three verbs are a natural subcommand split the teacher's flat REPL-or-
// file flag.Parse() entrypoint does not have a direct equivalent for.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(2)
	}
	atexit.Exit(0)
}
