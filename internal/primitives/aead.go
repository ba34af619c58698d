package primitives

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"hash"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

func newSHA256() hash.Hash {
	return sha256.New()
}

// ErrDecryptionFailed is returned when an AEAD open fails, which trial
// decryption treats as "not for me" rather than a hard error (spec.md §7).
var ErrDecryptionFailed = errors.New("primitives: aead open failed")

// zeroNonce is used throughout: each symmetric key here is derived fresh
// per note via HKDF, so key reuse across nonces never occurs.
var zeroNonce [chacha20poly1305.NonceSize]byte

// Encrypt seals plaintext under key with ChaCha20-Poly1305, appending the
// 16-byte authentication tag.
func Encrypt(key [32]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, zeroNonce[:], plaintext, nil), nil
}

// Decrypt opens a ChaCha20-Poly1305 ciphertext produced by Encrypt.
func Decrypt(key [32]byte, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, zeroNonce[:], ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return pt, nil
}

// ExpandKey runs HKDF-SHA256 over ikm with the given domain-separation
// salt/info, producing a 32-byte symmetric key.
func ExpandKey(ikm []byte, salt, info string) ([32]byte, error) {
	var out [32]byte
	r := hkdf.New(newSHA256, ikm, []byte(salt), []byte(info))
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return out, err
	}
	return out, nil
}

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
