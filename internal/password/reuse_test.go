package password

import (
	"context"
	"testing"
)

type fakeHistory struct {
	hashes   map[int64][]string // secretID → encoded hashes
	lastExcl *int64
}

func (f *fakeHistory) PasswordHistoryHashes(_ context.Context, excludeSecretID *int64) ([]string, error) {
	f.lastExcl = excludeSecretID
	var out []string
	for id, hs := range f.hashes {
		if excludeSecretID != nil && id == *excludeSecretID {
			continue
		}
		out = append(out, hs...)
	}
	return out, nil
}

func TestHashForReuseSalted(t *testing.T) {
	h1, err := HashForReuse("Sup3rSecret!23")
	if err != nil {
		t.Fatalf("HashForReuse failed: %v", err)
	}
	h2, _ := HashForReuse("Sup3rSecret!23")
	if h1 == h2 {
		t.Error("salted hashes of the same password should differ")
	}
	if !MatchesHash("Sup3rSecret!23", h1) || !MatchesHash("Sup3rSecret!23", h2) {
		t.Error("password should match its own hashes")
	}
	if MatchesHash("different", h1) {
		t.Error("different password should not match")
	}
}

func TestMatchesHashMalformed(t *testing.T) {
	for _, enc := range []string{"", "nodollar", "$$", "!!$!!"} {
		if MatchesHash("pw", enc) {
			t.Errorf("malformed hash %q should never match", enc)
		}
	}
}

func TestIsReused(t *testing.T) {
	h, _ := HashForReuse("Sup3rSecret!23")
	store := &fakeHistory{hashes: map[int64][]string{7: {h}}}
	checker := NewReuseChecker(store)
	ctx := context.Background()

	reused, err := checker.IsReused(ctx, "Sup3rSecret!23", nil)
	if err != nil {
		t.Fatalf("IsReused failed: %v", err)
	}
	if !reused {
		t.Error("expected reuse to be detected")
	}

	reused, _ = checker.IsReused(ctx, "Fresh-Passw0rd!", nil)
	if reused {
		t.Error("fresh password should not be reused")
	}

	// Excluding the owning secret skips its own history.
	excl := int64(7)
	reused, _ = checker.IsReused(ctx, "Sup3rSecret!23", &excl)
	if reused {
		t.Error("excluded secret's history should be skipped")
	}
	if store.lastExcl == nil || *store.lastExcl != 7 {
		t.Error("exclusion should be forwarded to storage")
	}
}
