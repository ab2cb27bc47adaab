package checkout

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

const (
	orderNumberPrefix     = "ORD"
	orderNumberSuffixLen  = 10
	orderNumberAlphabet   = "0123456789ABCDEFGHJKMNPQRSTVWXYZ" // Crockford base32
	orderNumberDateLayout = "20060102"
)

// NumberGenerator produces candidate order numbers. Uniqueness is enforced by the
// database; generators only need to make collisions unlikely.
type NumberGenerator interface {
	Next(now time.Time) (string, error)
}

// RandomNumberGenerator builds ORD-YYYYMMDD-XXXXXXXXXX numbers from crypto randomness.
type RandomNumberGenerator struct {
	Reader io.Reader
}

// NewRandomNumberGenerator reads from crypto/rand.
func NewRandomNumberGenerator() *RandomNumberGenerator {
	return &RandomNumberGenerator{Reader: rand.Reader}
}

func (g *RandomNumberGenerator) Next(now time.Time) (string, error) {
	reader := g.Reader
	if reader == nil {
		reader = rand.Reader
	}
	buf := make([]byte, orderNumberSuffixLen)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return "", fmt.Errorf("read order number entropy: %w", err)
	}
	suffix := make([]byte, orderNumberSuffixLen)
	for i, b := range buf {
		// 256 is a multiple of 32 so the modulo carries no bias.
		suffix[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.UTC().Format(orderNumberDateLayout), suffix), nil
}
