package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/okunev/passvault/models"
)

func TestGenerateSalt_LengthAndRandomness(t *testing.T) {
	eng := NewEngine()

	s1, err := eng.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt error: %v", err)
	}
	s2, err := eng.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt error: %v", err)
	}

	if len(s1) != 32 || len(s2) != 32 {
		t.Fatalf("salt lengths = %d, %d, want 32", len(s1), len(s2))
	}
	if bytes.Equal(s1, s2) {
		t.Fatalf("expected salts to differ, but they are equal")
	}
}

func TestGenerateIV_LengthAndRandomness(t *testing.T) {
	eng := NewEngine()

	iv1, err := eng.GenerateIV()
	if err != nil {
		t.Fatalf("GenerateIV error: %v", err)
	}
	iv2, err := eng.GenerateIV()
	if err != nil {
		t.Fatalf("GenerateIV error: %v", err)
	}

	if len(iv1) != models.IVSize || len(iv2) != models.IVSize {
		t.Fatalf("IV lengths = %d, %d, want %d", len(iv1), len(iv2), models.IVSize)
	}
	if bytes.Equal(iv1, iv2) {
		t.Fatalf("expected IVs to differ, but they are equal")
	}
}

func TestDeriveVaultKey_Deterministic(t *testing.T) {
	eng := NewEngine()

	passphrase := "correct horse battery staple"
	salt := bytes.Repeat([]byte{0x00}, 32) // zero salt as regression vector

	k1, err := eng.DeriveVaultKey(passphrase, salt)
	if err != nil {
		t.Fatalf("DeriveVaultKey error: %v", err)
	}
	k2, err := eng.DeriveVaultKey(passphrase, salt)
	if err != nil {
		t.Fatalf("DeriveVaultKey error: %v", err)
	}

	if len(k1) != 32 {
		t.Fatalf("key length = %d, want 32", len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("same inputs produced different keys")
	}
}

func TestDeriveVaultKey_DifferentInputsDifferentKeys(t *testing.T) {
	eng := NewEngine()
	salt := bytes.Repeat([]byte{0xAB}, 32)

	base, err := eng.DeriveVaultKey("passphrase one", salt)
	if err != nil {
		t.Fatalf("DeriveVaultKey error: %v", err)
	}

	otherPass, err := eng.DeriveVaultKey("passphrase two", salt)
	if err != nil {
		t.Fatalf("DeriveVaultKey error: %v", err)
	}
	if bytes.Equal(base, otherPass) {
		t.Fatalf("different passphrases produced the same key")
	}

	otherSalt, err := eng.DeriveVaultKey("passphrase one", bytes.Repeat([]byte{0xCD}, 32))
	if err != nil {
		t.Fatalf("DeriveVaultKey error: %v", err)
	}
	if bytes.Equal(base, otherSalt) {
		t.Fatalf("different salts produced the same key")
	}
}

func TestDeriveVaultKey_ShortSalt(t *testing.T) {
	eng := NewEngine()

	_, err := eng.DeriveVaultKey("passphrase", make([]byte, 15))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	eng := NewEngine()
	key := bytes.Repeat([]byte{0x42}, 32)

	cases := map[string][]byte{
		"empty":   {},
		"short":   []byte("hunter2"),
		"unicode": []byte("пароль-πάσσωορδ-密码"),
		"large":   bytes.Repeat([]byte{0x5A}, 100*1024),
	}

	for name, plaintext := range cases {
		t.Run(name, func(t *testing.T) {
			blob, err := eng.Encrypt(plaintext, key)
			if err != nil {
				t.Fatalf("Encrypt error: %v", err)
			}
			if len(blob.IV) != models.IVSize {
				t.Fatalf("IV length = %d, want %d", len(blob.IV), models.IVSize)
			}
			if len(blob.AuthTag) != models.AuthTagSize {
				t.Fatalf("tag length = %d, want %d", len(blob.AuthTag), models.AuthTagSize)
			}

			got, err := eng.Decrypt(blob, key)
			if err != nil {
				t.Fatalf("Decrypt error: %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(got), len(plaintext))
			}
		})
	}
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	eng := NewEngine()
	key := bytes.Repeat([]byte{0x42}, 32)
	plaintext := []byte("same plaintext, same key")

	b1, err := eng.Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	b2, err := eng.Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	if bytes.Equal(b1.IV, b2.IV) {
		t.Fatalf("two encryptions reused the same IV")
	}
	if bytes.Equal(b1.Ciphertext, b2.Ciphertext) {
		t.Fatalf("two encryptions produced identical ciphertexts")
	}

	for _, blob := range []models.EncryptedBlob{b1, b2} {
		got, err := eng.Decrypt(blob, key)
		if err != nil {
			t.Fatalf("Decrypt error: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("round-trip mismatch")
		}
	}
}

func TestDecrypt_BitFlipFailsAuthentication(t *testing.T) {
	eng := NewEngine()
	key := bytes.Repeat([]byte{0x42}, 32)

	blob, err := eng.Encrypt([]byte("secret payload"), key)
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	flip := func(src []byte) []byte {
		out := make([]byte, len(src))
		copy(out, src)
		out[len(out)/2] ^= 0x01
		return out
	}

	tampered := map[string]models.EncryptedBlob{
		"ciphertext": {IV: blob.IV, AuthTag: blob.AuthTag, Ciphertext: flip(blob.Ciphertext)},
		"iv":         {IV: flip(blob.IV), AuthTag: blob.AuthTag, Ciphertext: blob.Ciphertext},
		"tag":        {IV: blob.IV, AuthTag: flip(blob.AuthTag), Ciphertext: blob.Ciphertext},
	}

	for name, bad := range tampered {
		t.Run(name, func(t *testing.T) {
			plaintext, err := eng.Decrypt(bad, key)
			if !errors.Is(err, ErrAuthenticationFailed) {
				t.Fatalf("err = %v, want ErrAuthenticationFailed", err)
			}
			if plaintext != nil {
				t.Fatalf("tampered decrypt returned plaintext")
			}
		})
	}
}

func TestDecrypt_WrongKeyFailsAuthentication(t *testing.T) {
	eng := NewEngine()

	blob, err := eng.Encrypt([]byte("secret"), bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	_, err = eng.Decrypt(blob, bytes.Repeat([]byte{0x43}, 32))
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("err = %v, want ErrAuthenticationFailed", err)
	}
}

func TestKeySizeValidation(t *testing.T) {
	eng := NewEngine()
	short := make([]byte, 16)

	if _, err := eng.Encrypt([]byte("x"), short); !errors.Is(err, ErrInvalidKeySize) {
		t.Fatalf("Encrypt err = %v, want ErrInvalidKeySize", err)
	}
	if _, err := eng.Decrypt(models.EncryptedBlob{}, short); !errors.Is(err, ErrInvalidKeySize) {
		t.Fatalf("Decrypt err = %v, want ErrInvalidKeySize", err)
	}
}

func TestWipe(t *testing.T) {
	eng := NewEngine()

	buf := []byte{0x01, 0x02, 0x03}
	eng.Wipe(buf)
	if !bytes.Equal(buf, []byte{0x00, 0x00, 0x00}) {
		t.Fatalf("buffer not zeroed: %v", buf)
	}

	eng.Wipe(nil)
	eng.Wipe([]byte{})
}
