package password

import (
	"math"
	"strings"
)

// StrengthResult is the structured outcome of AnalyzeStrength.
type StrengthResult struct {
	Score       int      // 0-100
	EntropyBits float64
	HasLower    bool
	HasUpper    bool
	HasDigit    bool
	HasSpecial  bool
	Feedback    []string
}

// commonSubstrings incur a flat penalty when present.
var commonSubstrings = []string{
	"password", "passwort", "letmein", "admin", "welcome",
	"123", "1234", "12345",
}

// keyboardRuns are adjacent-key sequences on common layouts.
var keyboardRuns = []string{
	"qwerty", "qwertz", "azerty", "asdf", "asdfgh", "zxcvbn", "1q2w3e",
}

// AnalyzeStrength scores a password from 0 to 100. It is pure and
// deterministic: the same input always yields the same result.
func AnalyzeStrength(pw string) StrengthResult {
	r := StrengthResult{}
	if pw == "" {
		r.Feedback = append(r.Feedback, "password is empty")
		return r
	}

	for _, c := range pw {
		switch {
		case c >= 'a' && c <= 'z':
			r.HasLower = true
		case c >= 'A' && c <= 'Z':
			r.HasUpper = true
		case c >= '0' && c <= '9':
			r.HasDigit = true
		default:
			r.HasSpecial = true
		}
	}

	poolSize := 0
	if r.HasLower {
		poolSize += len(lowerChars)
	}
	if r.HasUpper {
		poolSize += len(upperChars)
	}
	if r.HasDigit {
		poolSize += len(digitChars)
	}
	if r.HasSpecial {
		poolSize += len(specialChars) + 8
	}
	r.EntropyBits = float64(len(pw)) * math.Log2(float64(poolSize))

	score := 0

	// Length tiers.
	switch n := len(pw); {
	case n >= 20:
		score += 30
	case n >= 16:
		score += 25
	case n >= 12:
		score += 20
	case n >= 8:
		score += 10
	default:
		score += 5
		r.Feedback = append(r.Feedback, "use at least 8 characters")
	}

	// Class presence.
	classes := 0
	for _, present := range []bool{r.HasLower, r.HasUpper, r.HasDigit, r.HasSpecial} {
		if present {
			classes++
		}
	}
	score += classes * 10
	if classes < 3 {
		r.Feedback = append(r.Feedback, "mix uppercase, lowercase, digits and symbols")
	}

	// Entropy thresholds.
	switch {
	case r.EntropyBits >= 90:
		score += 30
	case r.EntropyBits >= 60:
		score += 20
	case r.EntropyBits >= 40:
		score += 10
	}

	lower := strings.ToLower(pw)
	for _, s := range commonSubstrings {
		if strings.Contains(lower, s) {
			score -= 15
			r.Feedback = append(r.Feedback, "avoid common sequences like "+s)
			break
		}
	}
	for _, run := range keyboardRuns {
		if strings.Contains(lower, run) {
			score -= 15
			r.Feedback = append(r.Feedback, "avoid keyboard patterns like "+run)
			break
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	r.Score = score
	return r
}
