package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"strings"
)

// ErrInvalidPAN is returned when a card number fails basic shape checks.
var ErrInvalidPAN = errors.New("crypto: invalid card number")

// deriveKey normalizes key material to 32 bytes using SHA-256.
func deriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	key := make([]byte, len(sum))
	copy(key, sum[:])
	return key
}

// EncryptPAN encrypts a card number using AES-GCM for at-rest storage.
func EncryptPAN(secret, pan string) ([]byte, error) {
	digits := normalizePAN(pan)
	if len(digits) < 12 || len(digits) > 19 {
		return nil, ErrInvalidPAN
	}
	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, []byte(digits), nil), nil
}

// DecryptPAN decrypts an AES-GCM payload back to the full card number.
func DecryptPAN(secret string, payload []byte) (string, error) {
	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonceSize := gcm.NonceSize()
	if len(payload) < nonceSize {
		return "", io.ErrUnexpectedEOF
	}
	plain, err := gcm.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// MaskPAN renders a card number with only the last four digits visible.
func MaskPAN(pan string) string {
	digits := normalizePAN(pan)
	if len(digits) < 4 {
		return "****"
	}
	return "**** **** **** " + digits[len(digits)-4:]
}

func normalizePAN(pan string) string {
	var b strings.Builder
	for _, r := range pan {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
