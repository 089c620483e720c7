package config

import (
	"github.com/fengyoulin/catnip"
	"github.com/pkg/errors"
)

// Rule names accepted in SignatureConfig.Rule.
const (
	RuleRIP    = "rip"
	RuleAbs32  = "abs32"
	RuleDecode = "decode"
)

// SignatureConfig replaces the built-in signature of one hook site, for
// host builds whose code moved.
type SignatureConfig struct {
	Module  string `yaml:"module"`
	Pattern string `yaml:"pattern"`
	Rule    string `yaml:"rule"`   // rip, abs32 or decode
	Offset  int    `yaml:"offset"` // displacement offset from the match for rip and abs32
}

// Validate checks the pattern and rule.
func (s SignatureConfig) Validate() error {
	if s.Module == "" {
		return errors.New("module is required")
	}
	if _, err := catnip.ParsePattern(s.Pattern); err != nil {
		return err
	}
	switch s.Rule {
	case RuleRIP, RuleAbs32, RuleDecode:
	default:
		return errors.Errorf("unknown rule %q (want %s, %s or %s)", s.Rule, RuleRIP, RuleAbs32, RuleDecode)
	}
	if s.Offset < 0 {
		return errors.Errorf("invalid offset %d", s.Offset)
	}
	return nil
}

// Build returns the signature and displacement rule.
func (s SignatureConfig) Build() (catnip.Signature, catnip.Rule, error) {
	if err := s.Validate(); err != nil {
		return catnip.Signature{}, nil, err
	}
	p, _ := catnip.ParsePattern(s.Pattern)
	sig := catnip.Signature{Module: s.Module, Pattern: p}
	switch s.Rule {
	case RuleRIP:
		return sig, catnip.RelRIP(s.Offset), nil
	case RuleAbs32:
		return sig, catnip.Abs32(s.Offset), nil
	}
	return sig, catnip.Decoded{}, nil
}
