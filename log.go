package catnip

import (
	"github.com/rs/zerolog"
)

// logger is silent until the embedding program hands one over.
var logger = zerolog.Nop()

// SetLogger routes the package's structured logs to l.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// SetDebug toggles debug-level logging of individual cell writes and
// pattern hits.
func SetDebug(x bool) {
	if x {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
}
