// Package hooks holds the concrete interception points of the host: each
// hook locates its cells, owns its shims and decodes the call arguments
// into a typed context carried by catnip.Invocation.Data.
package hooks

import (
	"github.com/fengyoulin/catnip"
	"github.com/fengyoulin/catnip/internal/config"
	"github.com/rs/zerolog/log"
)

// Overrides replaces built-in signatures, keyed by "<hook>.<site>".
type Overrides map[string]config.SignatureConfig

// site returns the override for key when there is a valid one, else the
// built-in signature and rule.
func (o Overrides) site(key string, sig catnip.Signature, rule catnip.Rule) (catnip.Signature, catnip.Rule) {
	sc, ok := o[key]
	if !ok {
		return sig, rule
	}
	s, r, err := sc.Build()
	if err != nil {
		log.Warn().Err(err).Str("site", key).Msg("ignoring signature override")
		return sig, rule
	}
	return s, r
}
