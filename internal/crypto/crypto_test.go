package crypto

import (
	"bytes"
	"testing"

	"github.com/org/assetvault/internal/fault"
)

func TestSeedDeterministic(t *testing.T) {
	a := Seed(1, 42, "alice")
	b := Seed(1, 42, "alice")
	if a != b {
		t.Errorf("same inputs should yield same seed: %q vs %q", a, b)
	}
	if Seed(2, 42, "alice") == a {
		t.Error("different entity should yield different seed")
	}
	if Seed(1, 43, "alice") == a {
		t.Error("different principal should yield different seed")
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	k1 := DeriveKey("seed-a")
	k2 := DeriveKey("seed-a")
	if !bytes.Equal(k1, k2) {
		t.Error("key derivation should be deterministic")
	}
	if len(k1) != 32 {
		t.Errorf("expected 32-byte key, got %d", len(k1))
	}
	if bytes.Equal(k1, DeriveKey("seed-b")) {
		t.Error("different seeds should yield different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	seed := Seed(7, 3, "bob")
	for _, plaintext := range [][]byte{
		[]byte("Sup3rSecret!23"),
		[]byte(""),
		[]byte("10.0.0.1"),
		bytes.Repeat([]byte{0xAB}, 4096),
	} {
		blob, err := Encrypt(seed, plaintext)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		if len(plaintext) > 0 && bytes.Contains(blob, plaintext) {
			t.Error("blob should not contain plaintext")
		}
		got, err := Decrypt(seed, blob)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("round trip mismatch: got %q want %q", got, plaintext)
		}
	}
}

func TestEncryptNonceFreshness(t *testing.T) {
	seed := "same-seed"
	b1, _ := Encrypt(seed, []byte("value"))
	b2, _ := Encrypt(seed, []byte("value"))
	if bytes.Equal(b1, b2) {
		t.Error("two encryptions of the same plaintext should differ")
	}
}

func TestDecryptWrongSeed(t *testing.T) {
	blob, err := Encrypt(Seed(1, 1, "alice"), []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	got, err := Decrypt(Seed(1, 2, "mallory"), blob)
	if err == nil {
		t.Fatal("expected error decrypting with wrong seed")
	}
	if !fault.IsCrypto(err) {
		t.Errorf("expected crypto error, got %v", err)
	}
	if got != nil {
		t.Error("failed decrypt must not return partial output")
	}
}

func TestDecryptUndersizedBlob(t *testing.T) {
	for _, blob := range [][]byte{nil, {}, {1, 2, 3}, make([]byte, 27)} {
		if _, err := Decrypt("seed", blob); !fault.IsCrypto(err) {
			t.Errorf("blob len %d: expected crypto error, got %v", len(blob), err)
		}
	}
}

func TestDecryptTamperedBlob(t *testing.T) {
	seed := "seed"
	blob, _ := Encrypt(seed, []byte("integrity matters"))
	blob[len(blob)-1] ^= 0xFF
	if _, err := Decrypt(seed, blob); !fault.IsCrypto(err) {
		t.Errorf("expected crypto error on tampered blob, got %v", err)
	}
}
