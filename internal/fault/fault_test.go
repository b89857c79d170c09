package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"validation", Validationf("bad input: %s", "x"), Validation},
		{"conflict", Conflictf("duplicate"), Conflict},
		{"not found", NotFoundf("vault %d", 7), NotFound},
		{"permission", Permissionf("denied"), Permission},
		{"crypto", Cryptof("decryption failed"), Crypto},
		{"persistence", Persistencef(errors.New("pg down"), "query"), Persistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, ok := KindOf(tt.err)
			if !ok {
				t.Fatal("expected classified error")
			}
			if k != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, k)
			}
		})
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("plain error should not classify")
	}
	if _, ok := KindOf(nil); ok {
		t.Error("nil should not classify")
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := Conflictf("label taken")
	outer := fmt.Errorf("adding secret: %w", inner)
	if !IsConflict(outer) {
		t.Error("wrapped conflict should still classify as conflict")
	}
	if IsNotFound(outer) {
		t.Error("conflict should not classify as not found")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(Persistence, nil, "no-op") != nil {
		t.Error("wrapping nil should return nil")
	}
	if Persistencef(nil, "no-op") != nil {
		t.Error("Persistencef(nil) should return nil")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Persistencef(errors.New("timeout"), "listing vaults")
	want := "persistence: listing vaults: timeout"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	err = Validationf("name too short")
	want = "validation: name too short"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Persistencef(cause, "op failed")
	if !errors.Is(err, cause) {
		t.Error("classified error should unwrap to its cause")
	}
}
