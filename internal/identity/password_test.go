package identity

import (
	"errors"
	"testing"
)

func TestPasswordHash(t *testing.T) {
	hash, err := CreatePasswordHash("correct horse", TestArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}

	if err := VerifyPassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "battery staple"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := VerifyPassword("plain", "plain"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
	}
}

func TestParsePHCHash(t *testing.T) {
	hash, err := CreatePasswordHash("secret", TestArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	parsed, err := parsePHCHash(hash)
	if err != nil {
		t.Fatalf("parsePHCHash returned error: %v", err)
	}
	if parsed.params.Memory != TestArgon2idParams.Memory || len(parsed.salt) != int(TestArgon2idParams.SaltLength) {
		t.Fatalf("unexpected parsed hash: %+v", parsed.params)
	}
	if parsed.String() != hash {
		t.Fatalf("expected re-encoding to match, got %q", parsed.String())
	}

	cases := map[string]error{
		"$bcrypt$v=19$m=1,t=1,p=1$AA$AA":   ErrInvalidPasswordHash,
		"$argon2id$v=16$m=1,t=1,p=1$AA$AA": ErrIncompatiblePasswordVersion,
		"$argon2id$v=19$m=1,t=1,p=1$!!$AA": ErrInvalidPasswordHash,
	}
	for input, want := range cases {
		if _, err := parsePHCHash(input); !errors.Is(err, want) {
			t.Fatalf("parsePHCHash(%q): expected %v, got %v", input, want, err)
		}
	}
}
