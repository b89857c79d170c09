package password

import "testing"

func TestAnalyzeStrengthDeterministic(t *testing.T) {
	a := AnalyzeStrength("Sup3rSecret!23")
	b := AnalyzeStrength("Sup3rSecret!23")
	if a.Score != b.Score || a.EntropyBits != b.EntropyBits {
		t.Error("AnalyzeStrength should be deterministic")
	}
}

func TestAnalyzeStrengthOrdering(t *testing.T) {
	weak := AnalyzeStrength("abc")
	medium := AnalyzeStrength("tr0mbone-Fish")
	strong := AnalyzeStrength("V$8kLp#mQz2&Wn9xTr4b")

	if !(weak.Score < medium.Score) {
		t.Errorf("weak (%d) should score below medium (%d)", weak.Score, medium.Score)
	}
	if !(medium.Score < strong.Score) {
		t.Errorf("medium (%d) should score below strong (%d)", medium.Score, strong.Score)
	}
	if strong.Score < 80 {
		t.Errorf("strong password scored only %d", strong.Score)
	}
}

func TestAnalyzeStrengthPenalties(t *testing.T) {
	clean := AnalyzeStrength("Xk7#mPz4Lq9w")
	withCommon := AnalyzeStrength("Xkpassword#7m")
	if withCommon.Score >= clean.Score {
		t.Errorf("common substring should be penalized: %d vs %d", withCommon.Score, clean.Score)
	}

	withRun := AnalyzeStrength("Xqwerty7#mPz")
	if withRun.Score >= clean.Score {
		t.Errorf("keyboard run should be penalized: %d vs %d", withRun.Score, clean.Score)
	}
	found := false
	for _, f := range withRun.Feedback {
		if f == "avoid keyboard patterns like qwerty" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected keyboard feedback, got %v", withRun.Feedback)
	}
}

func TestAnalyzeStrengthClassDetection(t *testing.T) {
	r := AnalyzeStrength("aB3!")
	if !r.HasLower || !r.HasUpper || !r.HasDigit || !r.HasSpecial {
		t.Errorf("class detection wrong: %+v", r)
	}
	r = AnalyzeStrength("abcdef")
	if r.HasUpper || r.HasDigit || r.HasSpecial {
		t.Errorf("class detection wrong: %+v", r)
	}
}

func TestAnalyzeStrengthEmpty(t *testing.T) {
	r := AnalyzeStrength("")
	if r.Score != 0 {
		t.Errorf("empty password should score 0, got %d", r.Score)
	}
}

func TestMeetsPolicy(t *testing.T) {
	policy := DefaultPolicy()

	ok := MeetsPolicy("V$8kLp#mQz2&", policy)
	if !ok.Compliant || len(ok.Violations) != 0 {
		t.Errorf("expected compliant, got %+v", ok)
	}

	bad := MeetsPolicy("short", policy)
	if bad.Compliant {
		t.Error("expected non-compliant")
	}
	// short, no upper, no digit, no special
	if len(bad.Violations) != 4 {
		t.Errorf("expected 4 violations, got %v", bad.Violations)
	}
}
