package password

import "fmt"

// Policy is a configurable password policy.
type Policy struct {
	Version        string
	MinLength      int
	RequireLower   bool
	RequireUpper   bool
	RequireDigit   bool
	RequireSpecial bool
	MaxAgeDays     int // 0 means no age limit
}

// DefaultPolicy is the baseline applied to new password secrets.
func DefaultPolicy() Policy {
	return Policy{
		Version:        "v1",
		MinLength:      12,
		RequireLower:   true,
		RequireUpper:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}
}

// PolicyResult is the outcome of a policy check.
type PolicyResult struct {
	Compliant  bool
	Violations []string
}

// MeetsPolicy checks a password against a policy and itemizes violations.
func MeetsPolicy(pw string, policy Policy) PolicyResult {
	var violations []string
	if len(pw) < policy.MinLength {
		violations = append(violations,
			fmt.Sprintf("must be at least %d characters", policy.MinLength))
	}

	r := AnalyzeStrength(pw)
	if policy.RequireLower && !r.HasLower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if policy.RequireUpper && !r.HasUpper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if policy.RequireDigit && !r.HasDigit {
		violations = append(violations, "must contain a digit")
	}
	if policy.RequireSpecial && !r.HasSpecial {
		violations = append(violations, "must contain a special character")
	}

	return PolicyResult{Compliant: len(violations) == 0, Violations: violations}
}
