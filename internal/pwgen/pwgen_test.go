package pwgen

import (
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(s, chars string) int {
	n := 0
	for _, r := range s {
		if strings.ContainsRune(chars, r) {
			n++
		}
	}
	return n
}

func TestGenerateDefault(t *testing.T) {
	for range 50 {
		pw, err := Generate(DefaultSpec)
		require.NoError(t, err)
		assert.Len(t, pw, 20)
		assert.GreaterOrEqual(t, count(pw, upper), 1)
		assert.GreaterOrEqual(t, count(pw, lower), 1)
		assert.GreaterOrEqual(t, count(pw, digit), 1)
		assert.GreaterOrEqual(t, count(pw, punct), 1)
		assert.NotContains(t, pw, "\n")
	}
}

func TestGenerateMinimums(t *testing.T) {
	pw, err := Generate("10:d=10")
	require.NoError(t, err)
	assert.Equal(t, 10, count(pw, digit))

	pw, err = Generate("12:u=3:p=4")
	require.NoError(t, err)
	assert.Len(t, pw, 12)
	assert.GreaterOrEqual(t, count(pw, upper), 3)
	assert.GreaterOrEqual(t, count(pw, punct), 4)

	pw, err = Generate("10")
	require.NoError(t, err)
	assert.Len(t, pw, 10)
}

func TestGenerateDiffers(t *testing.T) {
	a, err := Generate("32")
	require.NoError(t, err)
	b, err := Generate("32")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseRejects(t *testing.T) {
	for _, s := range []string{"", "0", "-3", "abc", "10:x=1", "10:u", "10:u=-1", "10:u=a", "4:u=2:l=2:d=1"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, kerrors.ErrUsage, s)
	}
}
