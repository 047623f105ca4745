package ledger

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

const (
	codeLow  = 1000
	codeHigh = 9999
	// random draws before falling back to a probe
	codeDraws = 16
)

// ErrCodeSpaceExhausted means every SE-#### code is held by some booking.
var ErrCodeSpaceExhausted = errors.New("pickup code space exhausted")

// CodeGenerator issues short pickup tokens of the shape <prefix>NNNN.
// Uniqueness is decided by the caller-supplied taken func, which sees the store.
type CodeGenerator struct {
	prefix string
	intn   func(n int) int
}

// NewCodeGenerator returns a generator; intn defaults to math/rand/v2.IntN.
func NewCodeGenerator(prefix string, intn func(n int) int) *CodeGenerator {
	if intn == nil {
		intn = rand.IntN
	}
	return &CodeGenerator{prefix: prefix, intn: intn}
}

func (g *CodeGenerator) format(n int) string {
	return fmt.Sprintf("%s%04d", g.prefix, n)
}

// Next draws random codes and, if those collide, walks the whole range from a
// random start so a free code is always found while one exists.
func (g *CodeGenerator) Next(taken func(code string) (bool, error)) (string, error) {
	span := codeHigh - codeLow + 1
	for i := 0; i < codeDraws; i++ {
		code := g.format(codeLow + g.intn(span))
		used, err := taken(code)
		if err != nil {
			return "", err
		}
		if !used {
			return code, nil
		}
	}

	start := g.intn(span)
	for i := 0; i < span; i++ {
		code := g.format(codeLow + (start+i)%span)
		used, err := taken(code)
		if err != nil {
			return "", err
		}
		if !used {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
