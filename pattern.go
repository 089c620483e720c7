package catnip

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Token is one position of a Pattern: a byte, or a wildcard matching any byte.
type Token struct {
	Value byte
	Wild  bool
}

// Pattern is a byte template with wildcard positions.
type Pattern []Token

// ParsePattern parses space separated hex bytes; "?" and "??" are wildcards.
func ParsePattern(s string) (Pattern, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, errors.New("empty pattern")
	}
	p := make(Pattern, 0, len(fields))
	for _, f := range fields {
		if f == "?" || f == "??" {
			p = append(p, Token{Wild: true})
			continue
		}
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern token %q", f)
		}
		p = append(p, Token{Value: byte(v)})
	}
	return p, nil
}

// MustPattern is ParsePattern for patterns compiled into the binary.
func MustPattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string {
	var sb strings.Builder
	for i, t := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if t.Wild {
			sb.WriteString("??")
			continue
		}
		const digits = "0123456789ABCDEF"
		sb.WriteByte(digits[t.Value>>4])
		sb.WriteByte(digits[t.Value&0xf])
	}
	return sb.String()
}

func (p Pattern) matchAt(buf []byte, i int) bool {
	for j, t := range p {
		if !t.Wild && buf[i+j] != t.Value {
			return false
		}
	}
	return true
}

// Match returns the offset of the first match in buf, or -1.
func (p Pattern) Match(buf []byte) int {
	for i := 0; i+len(p) <= len(buf); i++ {
		if p.matchAt(buf, i) {
			return i
		}
	}
	return -1
}

// MatchAll returns the offsets of every match in buf.
func (p Pattern) MatchAll(buf []byte) []int {
	var hits []int
	for i := 0; i+len(p) <= len(buf); i++ {
		if p.matchAt(buf, i) {
			hits = append(hits, i)
		}
	}
	return hits
}

// Signature names the module to search and the pattern to look for.
type Signature struct {
	Module  string
	Pattern Pattern
}

// NewSignature builds a signature from pattern text.
func NewSignature(module, pattern string) Signature {
	return Signature{Module: module, Pattern: MustPattern(pattern)}
}

func (s Signature) String() string {
	return s.Module + " [" + s.Pattern.String() + "]"
}

// FindPattern scans the code region of sig.Module and returns the absolute
// address of the first match. Results are never cached: addresses move
// between host builds.
func FindPattern(mem Memory, sig Signature) (uintptr, error) {
	r, err := mem.Lookup(sig.Module)
	if err != nil {
		return 0, err
	}
	code := make([]byte, r.Size)
	if err := mem.ReadAt(code, r.Base); err != nil {
		return 0, errors.Wrapf(err, "read %s", sig.Module)
	}
	off := sig.Pattern.Match(code)
	if off < 0 {
		return 0, errors.Wrapf(ErrPatternNotFound, "%s", sig)
	}
	addr := r.Base + uintptr(off)
	logger.Debug().Str("signature", sig.String()).Str("addr", hex(addr)).Msg("pattern found")
	return addr, nil
}
