package utils

import (
	"bytes"
	"crypto/aes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
)

const (
	SecretSchemeArgon2id = "argon2id"
	SecretSchemeLegacy   = "legacy"
)

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

var (
	ErrEmptySecret   = errors.New("secret cannot be empty")
	ErrInvalidSecret = errors.New("invalid encoded secret")
)

// Argon2idEncoder produces salted argon2id hashes in PHC string format.
type Argon2idEncoder struct{}

func NewArgon2idEncoder() *Argon2idEncoder {
	return &Argon2idEncoder{}
}

// Encode returns $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
func (e *Argon2idEncoder) Encode(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptySecret
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(plaintext), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify reports whether plaintext matches encoded.
func (e *Argon2idEncoder) Verify(plaintext, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidSecret
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported version %d", ErrInvalidSecret, version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	if threads == 0 || threads > 255 {
		return false, fmt.Errorf("%w: threads out of range", ErrInvalidSecret)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false, ErrInvalidSecret
	}

	computed := argon2.IDKey([]byte(plaintext), salt, time, memory, uint8(threads), uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// LegacyCipherEncoder reproduces the historical at-rest format: AES-128 keyed by the
// password itself (zero padded or truncated to one block), PKCS#7 padding, every block
// encrypted independently, base64 output.
//
// Anyone holding the plaintext can regenerate or reverse it. Only kept so existing
// rows can be compared during migration to argon2id.
type LegacyCipherEncoder struct{}

func NewLegacyCipherEncoder() *LegacyCipherEncoder {
	return &LegacyCipherEncoder{}
}

func legacyKey(plaintext string) []byte {
	key := make([]byte, aes.BlockSize)
	copy(key, plaintext)
	return key
}

// Encode is deterministic: the same plaintext always yields the same text.
func (e *LegacyCipherEncoder) Encode(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptySecret
	}

	block, err := aes.NewCipher(legacyKey(plaintext))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	data := append([]byte(plaintext), bytes.Repeat([]byte{byte(padLen)}, padLen)...)

	out := make([]byte, len(data))
	for i := 0; i < len(data); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], data[i:i+aes.BlockSize])
	}

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decode reverses Encode given the plaintext-derived key.
func (e *LegacyCipherEncoder) Decode(encoded, plaintext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", ErrInvalidSecret
	}

	block, err := aes.NewCipher(legacyKey(plaintext))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i += aes.BlockSize {
		block.Decrypt(out[i:i+aes.BlockSize], raw[i:i+aes.BlockSize])
	}

	padLen := int(out[len(out)-1])
	if padLen == 0 || padLen > aes.BlockSize {
		return "", ErrInvalidSecret
	}
	return string(out[:len(out)-padLen]), nil
}

// NewSecretEncoder returns the encoder for scheme, defaulting to argon2id.
func NewSecretEncoder(scheme string) (ports.SecretEncoder, error) {
	switch scheme {
	case "", SecretSchemeArgon2id:
		return NewArgon2idEncoder(), nil
	case SecretSchemeLegacy:
		return NewLegacyCipherEncoder(), nil
	default:
		return nil, fmt.Errorf("unknown secret scheme %q", scheme)
	}
}
