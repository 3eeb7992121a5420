package main

import (
	"errors"

	"github.com/tebeka/atexit"

	"github.com/FireShade3DS/whitvm/pkg/werr"
)

// exitForError maps a fatal error to spec §6's exit code: 2 for load-phase
// errors (SyntaxError, LabelError, ArityError), 1 for everything else.
func exitForError(err error) int {
	var werrErr *werr.Error
	if errors.As(err, &werrErr) && werrErr.Kind.LoadPhase() {
		return 2
	}
	return 1
}

func fail(err error) {
	log.Error().Err(err).Msg("fatal")
	atexit.Exit(exitForError(err))
}
