// Package pwgen generates random passwords from a constraint string.
//
// A constraint string is a length optionally followed by per-class
// minimums, separated by colons:
//
//	LENGTH[:u=N][:l=N][:d=N][:p=N]
//
// u, l, d and p name the upper-case, lower-case, digit and punctuation
// classes. Every class is always eligible; the minimums only force some
// characters of that class in.
package pwgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// DefaultSpec is used when no constraint string is configured.
const DefaultSpec = "20:u=1:l=1:d=1:p=1"

const (
	upper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lower = "abcdefghijklmnopqrstuvwxyz"
	digit = "0123456789"
	punct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

var classes = []struct {
	key   string
	chars string
}{
	{"u", upper},
	{"l", lower},
	{"d", digit},
	{"p", punct},
}

// Spec is a parsed constraint string.
type Spec struct {
	Length int
	// Min maps a class key to its minimum count.
	Min map[string]int
}

// Parse parses a constraint string.
func Parse(s string) (Spec, error) {
	parts := strings.Split(s, ":")
	length, err := strconv.Atoi(parts[0])
	if err != nil || length <= 0 {
		return Spec{}, fmt.Errorf("%w: password length %q must be a positive integer", kerrors.ErrUsage, parts[0])
	}
	spec := Spec{Length: length, Min: map[string]int{}}

	total := 0
	for _, part := range parts[1:] {
		key, val, ok := strings.Cut(part, "=")
		if !ok || !knownClass(key) {
			return Spec{}, fmt.Errorf("%w: bad password constraint %q (want u=N, l=N, d=N or p=N)", kerrors.ErrUsage, part)
		}
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return Spec{}, fmt.Errorf("%w: bad count in password constraint %q", kerrors.ErrUsage, part)
		}
		spec.Min[key] = n
		total += n
	}
	if total > length {
		return Spec{}, fmt.Errorf("%w: class minimums (%d) exceed password length %d", kerrors.ErrUsage, total, length)
	}
	return spec, nil
}

func knownClass(key string) bool {
	for _, c := range classes {
		if c.key == key {
			return true
		}
	}
	return false
}

// Generate returns a random password satisfying the constraint string s.
func Generate(s string) (string, error) {
	spec, err := Parse(s)
	if err != nil {
		return "", err
	}
	return spec.Generate()
}

// Generate returns a random password satisfying spec.
func (spec Spec) Generate() (string, error) {
	out := make([]byte, 0, spec.Length)
	var all strings.Builder
	for _, c := range classes {
		all.WriteString(c.chars)
		for range spec.Min[c.key] {
			b, err := pick(c.chars)
			if err != nil {
				return "", err
			}
			out = append(out, b)
		}
	}
	for len(out) < spec.Length {
		b, err := pick(all.String())
		if err != nil {
			return "", err
		}
		out = append(out, b)
	}

	// Fisher-Yates, so the forced characters are not all up front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randN(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func pick(chars string) (byte, error) {
	i, err := randN(len(chars))
	if err != nil {
		return 0, err
	}
	return chars[i], nil
}

func randN(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("reading random bytes: %w", err)
	}
	return int(v.Int64()), nil
}
