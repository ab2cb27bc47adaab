package checkout

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-[0-9A-HJKMNP-TV-Z]{10}$`)

func TestRandomNumberGeneratorFormat(t *testing.T) {
	gen := NewRandomNumberGenerator()
	now := time.Date(2026, 3, 9, 23, 59, 0, 0, time.FixedZone("PST", -8*3600))

	number, err := gen.Next(now)
	require.NoError(t, err)
	assert.Regexp(t, orderNumberPattern, number)
	assert.Equal(t, "ORD-20260310-", number[:13], "date is rendered in UTC")
}

func TestRandomNumberGeneratorUniqueness(t *testing.T) {
	gen := NewRandomNumberGenerator()
	now := time.Now()
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		number, err := gen.Next(now)
		require.NoError(t, err)
		require.Regexp(t, orderNumberPattern, number)
		_, dup := seen[number]
		require.False(t, dup, "duplicate order number %s", number)
		seen[number] = struct{}{}
	}
	assert.Len(t, seen, 10000)
}

func TestRandomNumberGeneratorDeterministicReader(t *testing.T) {
	gen := &RandomNumberGenerator{Reader: bytes.NewReader([]byte{0, 1, 31, 32, 33, 255, 8, 18, 20, 26})}
	number, err := gen.Next(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260102-01Z01Z8JMT", number)

	_, err = gen.Next(time.Now())
	assert.Error(t, err, "exhausted reader")
}
