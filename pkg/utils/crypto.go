package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
)

// ErrCrypto marks any failure to decode or decrypt a stored token. Callers
// treat a credential that trips it as unreadable rather than absent.
var ErrCrypto = fmt.Errorf("crypto error")

// deriveKey turns the operator-managed seed into a fixed-size AES key. The
// seed is the sole secret material; no per-record salt is used.
func deriveKey(keySeed string) []byte {
	sum := sha256.Sum256([]byte(keySeed))
	return sum[:]
}

// EncryptToken encrypts an access token with AES-256-GCM under a key derived
// from keySeed. The ciphertext and the fresh 12-byte IV are returned
// separately, each as unpadded URL-safe base64.
func EncryptToken(plaintext, keySeed string) (ciphertext, iv string, err error) {
	block, err := aes.NewCipher(deriveKey(keySeed))
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		slog.Info(err.Error())
		return "", "", err
	}

	sealed := aesGCM.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.RawURLEncoding.EncodeToString(sealed),
		base64.RawURLEncoding.EncodeToString(nonce),
		nil
}

// DecryptToken reverses EncryptToken. Undecodable input or a failed
// authentication tag surfaces as ErrCrypto, never as empty plaintext.
func DecryptToken(ciphertext, iv, keySeed string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("%w: decode ciphertext: %v", ErrCrypto, err)
	}

	nonce, err := base64.RawURLEncoding.DecodeString(iv)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("%w: decode iv: %v", ErrCrypto, err)
	}

	block, err := aes.NewCipher(deriveKey(keySeed))
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	if len(nonce) != aesGCM.NonceSize() {
		return "", fmt.Errorf("%w: bad iv length %d", ErrCrypto, len(nonce))
	}

	plaintext, err := aesGCM.Open(nil, nonce, data, nil)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	return string(plaintext), nil
}
