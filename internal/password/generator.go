// Package password provides secure generation, strength scoring, policy
// compliance, and hash-based reuse detection for password secrets.
package password

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/org/assetvault/internal/fault"
)

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*()-_=+[]{};:,.<>?"

	// ambiguousChars are glyphs easily confused with each other when read
	// aloud or transcribed.
	ambiguousChars = "0Ol1I"

	// MinGenerateLength is the shortest password Generate will produce.
	MinGenerateLength = 8
)

// GenerateOptions selects character classes and length for Generate.
type GenerateOptions struct {
	Length           int
	Lower            bool
	Upper            bool
	Digits           bool
	Special          bool
	ExcludeAmbiguous bool
}

// DefaultGenerateOptions is a 16-character password drawing on all classes.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Length:           16,
		Lower:            true,
		Upper:            true,
		Digits:           true,
		Special:          true,
		ExcludeAmbiguous: true,
	}
}

// Generate produces a random password containing at least one character from
// each enabled class. Remaining positions are filled uniformly at random from
// the combined pool, then the result is shuffled to remove positional bias.
func Generate(opts GenerateOptions) (string, error) {
	if opts.Length < MinGenerateLength {
		return "", fault.Validationf("password length must be at least %d", MinGenerateLength)
	}

	classes := make([]string, 0, 4)
	if opts.Lower {
		classes = append(classes, classPool(lowerChars, opts.ExcludeAmbiguous))
	}
	if opts.Upper {
		classes = append(classes, classPool(upperChars, opts.ExcludeAmbiguous))
	}
	if opts.Digits {
		classes = append(classes, classPool(digitChars, opts.ExcludeAmbiguous))
	}
	if opts.Special {
		classes = append(classes, classPool(specialChars, opts.ExcludeAmbiguous))
	}
	if len(classes) == 0 {
		return "", fault.Validationf("at least one character class must be enabled")
	}
	if opts.Length < len(classes) {
		return "", fault.Validationf("length %d cannot cover %d required classes", opts.Length, len(classes))
	}

	pool := strings.Join(classes, "")
	out := make([]byte, 0, opts.Length)

	// One guaranteed character per enabled class.
	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < opts.Length {
		c, err := randomChar(pool)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	if err := shuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}

func classPool(chars string, excludeAmbiguous bool) string {
	if !excludeAmbiguous {
		return chars
	}
	var b strings.Builder
	for _, r := range chars {
		if !strings.ContainsRune(ambiguousChars, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func randomChar(pool string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	if err != nil {
		return 0, fault.Wrap(fault.Crypto, err, "reading random source")
	}
	return pool[n.Int64()], nil
}

// shuffle is a Fisher-Yates shuffle drawing from crypto/rand.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fault.Wrap(fault.Crypto, err, "reading random source")
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
