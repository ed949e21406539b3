package codegen_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/membership-service/internal/codegen"
)

func TestGenerateFixedWidthDigits(t *testing.T) {
	gen := codegen.NewGenerator()

	for i := 0; i < 500; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err, "code must be all digits: %q", code)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 1_000_000)
	}
}

func TestGeneratePreservesLeadingZeros(t *testing.T) {
	gen := codegen.NewGenerator()

	// With 2000 draws the chance of never seeing a code below 100000 is
	// (0.9)^2000, effectively zero.
	sawLeadingZero := false
	for i := 0; i < 2000 && !sawLeadingZero; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		if code[0] == '0' {
			sawLeadingZero = true
		}
	}
	assert.True(t, sawLeadingZero)
}

func TestGenerateVaries(t *testing.T) {
	gen := codegen.NewGenerator()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
