package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if bytes.Contains(hash, []byte("hunter2!")) {
		t.Fatal("hash must not embed the plaintext")
	}
	if err := ComparePassword(hash, "hunter2!"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestEncryptDecryptPAN(t *testing.T) {
	const pan = "4556737586899855"
	sealed, err := EncryptPAN("card-key", pan)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(sealed, []byte(pan)) {
		t.Fatal("ciphertext must not embed the pan")
	}
	plain, err := DecryptPAN("card-key", sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != pan {
		t.Fatalf("round trip mismatch: %q", plain)
	}
	if _, err := DecryptPAN("other-key", sealed); err == nil {
		t.Fatal("expected authentication failure with the wrong key")
	}
}

func TestEncryptPANValidatesShape(t *testing.T) {
	for _, pan := range []string{"", "1234", "12345678901234567890"} {
		if _, err := EncryptPAN("card-key", pan); !errors.Is(err, ErrInvalidPAN) {
			t.Fatalf("pan %q: expected ErrInvalidPAN, got %v", pan, err)
		}
	}
}

func TestEncryptPANIgnoresSeparators(t *testing.T) {
	sealed, err := EncryptPAN("card-key", "4556 7375 8689 9855")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	plain, err := DecryptPAN("card-key", sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "4556737586899855" {
		t.Fatalf("expected digits only, got %q", plain)
	}
}

func TestMaskPAN(t *testing.T) {
	if got := MaskPAN("4556737586899855"); got != "**** **** **** 9855" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskPAN("99"); got != "****" {
		t.Fatalf("short input should fully mask, got %q", got)
	}
}
