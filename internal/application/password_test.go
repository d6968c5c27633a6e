package application

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("senha-forte", cheapArgon2)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}
	if err := VerifyPassword(hash, "senha-forte"); err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if err := VerifyPassword(hash, "senha-fraca"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	other, err := CreatePasswordHash("senha-forte", cheapArgon2)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if other == hash {
		t.Fatalf("expected distinct salts to yield distinct hashes")
	}
}

func TestVerifyPassword_RejectsMalformedHash(t *testing.T) {
	t.Parallel()

	if err := VerifyPassword("plain-text", "x"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
	}
	if err := VerifyPassword("$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA", "x"); !errors.Is(err, ErrIncompatiblePasswordVersion) {
		t.Fatalf("expected ErrIncompatiblePasswordVersion, got %v", err)
	}
}

func TestVerifyPassword_RejectsCorruptSegments(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("senha-forte", cheapArgon2)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	fields := strings.Split(hash, "$")

	corrupt := func(index int, value string) string {
		out := append([]string(nil), fields...)
		out[index] = value
		return strings.Join(out, "$")
	}
	for name, candidate := range map[string]string{
		"params": corrupt(3, "m=x"),
		"salt":   corrupt(4, "%%%"),
		"key":    corrupt(5, ""),
	} {
		if err := VerifyPassword(candidate, "senha-forte"); !errors.Is(err, ErrInvalidPasswordHash) {
			t.Fatalf("%s: expected ErrInvalidPasswordHash, got %v", name, err)
		}
	}
}
