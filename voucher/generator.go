/*
generator.go - Voucher code generation

PURPOSE:
  Produces candidate voucher codes: a fixed prefix plus six symbols drawn
  uniformly from a 36-symbol alphabet (~2.2e9 suffixes). The generator is
  a pure function of its randomness source and has no knowledge of the
  ledger; the engine owns the collision-retry loop against both
  partitions.

UNIFORMITY:
  Symbols are drawn with rejection sampling so no alphabet position is
  favored. A plain modulo over a random byte would slightly over-select
  the first few symbols.
*/
package voucher

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

// =============================================================================
// CODE FORMAT
// =============================================================================

const (
	// CodePrefix is the fixed literal prefix of every voucher code.
	CodePrefix = "PROMO-"

	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Largest multiple of len(codeAlphabet) below 256; bytes at or above
	// this are rejected to keep the draw uniform.
	rejectAbove = 252
)

// ValidID reports whether s is a well-formed voucher code: the fixed
// prefix followed by exactly six alphabet symbols. A scanned token that
// fails this check is not a voucher token at all.
func ValidID(s string) bool {
	if !strings.HasPrefix(s, CodePrefix) {
		return false
	}
	suffix := s[len(CodePrefix):]
	if len(suffix) != codeLength {
		return false
	}
	for i := 0; i < len(suffix); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(suffix[i])) {
			return false
		}
	}
	return true
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generator produces candidate voucher codes. It does not guarantee
// uniqueness; callers must re-query against the ledger (both partitions)
// until a non-colliding value is found.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader}
}

// NewGeneratorWithSource returns a generator with an explicit randomness
// source. Used in tests for deterministic output.
func NewGeneratorWithSource(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Generate returns one candidate code.
func (g *Generator) Generate() (string, error) {
	suffix := make([]byte, 0, codeLength)
	buf := make([]byte, 1)
	for len(suffix) < codeLength {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("read randomness: %w", err)
		}
		if buf[0] >= rejectAbove {
			continue
		}
		suffix = append(suffix, codeAlphabet[int(buf[0])%len(codeAlphabet)])
	}
	return CodePrefix + string(suffix), nil
}
