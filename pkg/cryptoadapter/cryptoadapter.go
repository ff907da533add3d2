// Copyright 2025 Certen Protocol
//
// Package cryptoadapter is the hybrid-encryption collaborator the ledger
// treats as an external primitive (spec §6.2): key generation and re-wrap of
// a blob's symmetric key from one recipient to another, authenticated by
// caller-supplied associated data. Key agreement is X25519
// (golang.org/x/crypto/curve25519), the style used for ECDH key exchange in
// the rest of the retrieved pack's key-manager code; the AEAD is
// ChaCha20-Poly1305 (golang.org/x/crypto/chacha20poly1305), chosen over NaCl
// box because box has no associated-data input and the ledger's whole
// authorization model rests on AAD-bound unwrap/re-wrap.
package cryptoadapter

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

// PrivateKey is an X25519 scalar. It is never serialized outside this
// package; PerKeyLedger holds it directly and drops it with the entry on
// eviction. The key bytes are not explicitly zeroed.
type PrivateKey [32]byte

// GenKeypair draws a fresh X25519 key pair from the platform CSPRNG.
func GenKeypair() (PrivateKey, []byte, error) {
	var priv PrivateKey
	if _, err := rand.Read(priv[:]); err != nil {
		return PrivateKey{}, nil, fmt.Errorf("read random scalar: %w", err)
	}
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return PrivateKey{}, nil, fmt.Errorf("derive public key: %w", err)
	}
	return priv, pub, nil
}

// wrapKey derives a one-time ECDH shared secret with destPublicKey and seals
// symmetricKey under it with associatedData as the AEAD's additional data.
// It returns the sender's ephemeral public key (the "encapsulated key") and
// the ciphertext.
func wrapKey(symmetricKey, destPublicKey, associatedData []byte) (encapsulatedKey, encryptedSymmetricKey []byte, err error) {
	ephemeralPriv, ephemeralPub, err := GenKeypair()
	if err != nil {
		return nil, nil, err
	}
	shared, err := curve25519.X25519(ephemeralPriv[:], destPublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("ECDH with destination key: %w", err)
	}
	aead, err := chacha20poly1305.New(shared)
	if err != nil {
		return nil, nil, fmt.Errorf("build AEAD: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	ciphertext := aead.Seal(nil, nonce, symmetricKey, associatedData)
	return ephemeralPub, ciphertext, nil
}

// unwrapKey recovers the symmetric key that was wrapped to ourPrivateKey's
// public counterpart, using encapsulatedKey as the sender's ephemeral public
// key and associatedData as the AEAD's additional data. It fails iff the
// additional data doesn't match what was used to seal, or the ciphertext is
// otherwise malformed — this is the authentication surface the ledger
// relies on (spec §6.2).
func unwrapKey(encryptedSymmetricKey []byte, ourPrivateKey PrivateKey, encapsulatedKey, associatedData []byte) ([]byte, error) {
	shared, err := curve25519.X25519(ourPrivateKey[:], encapsulatedKey)
	if err != nil {
		return nil, fmt.Errorf("ECDH with encapsulated key: %w", err)
	}
	aead, err := chacha20poly1305.New(shared)
	if err != nil {
		return nil, fmt.Errorf("build AEAD: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	plaintext, err := aead.Open(nil, nonce, encryptedSymmetricKey, associatedData)
	if err != nil {
		return nil, fmt.Errorf("open sealed symmetric key: %w", err)
	}
	return plaintext, nil
}

// RewrapSymmetricKey unwraps encryptedSymmetricKey (encapsulated under
// ourPrivateKey's public key, authenticated by unwrapAssociatedData) and
// re-wraps it to recipientPublicKey under rewrapAssociatedData. It is the
// one primitive the ledger calls on the request path; everything else in
// this package exists to support it and the test helpers below.
func RewrapSymmetricKey(
	encryptedSymmetricKey, encapsulatedKey []byte,
	ourPrivateKey PrivateKey,
	unwrapAssociatedData []byte,
	recipientPublicKey []byte,
	rewrapAssociatedData []byte,
) (newEncapsulatedKey, newEncryptedSymmetricKey []byte, err error) {
	symmetricKey, err := unwrapKey(encryptedSymmetricKey, ourPrivateKey, encapsulatedKey, unwrapAssociatedData)
	if err != nil {
		return nil, nil, err
	}
	return wrapKey(symmetricKey, recipientPublicKey, rewrapAssociatedData)
}

// EncryptMessage is used only in tests: it encrypts plaintext under a fresh
// per-message symmetric key using associatedData as AAD, and wraps that key
// to destPublicKey under the same associatedData.
func EncryptMessage(plaintext, destPublicKey, associatedData []byte) (ciphertext, encapsulatedKey, encryptedSymmetricKey []byte, err error) {
	symmetricKey := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(symmetricKey); err != nil {
		return nil, nil, nil, fmt.Errorf("generate message key: %w", err)
	}
	aead, err := chacha20poly1305.New(symmetricKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build AEAD: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	ciphertext = aead.Seal(nil, nonce, plaintext, associatedData)
	encapsulatedKey, encryptedSymmetricKey, err = wrapKey(symmetricKey, destPublicKey, associatedData)
	if err != nil {
		return nil, nil, nil, err
	}
	return ciphertext, encapsulatedKey, encryptedSymmetricKey, nil
}

// DecryptMessage is used only in tests: the inverse of EncryptMessage, given
// the recipient's private key and whatever re-wrap associated data the
// encapsulated key was most recently wrapped under.
func DecryptMessage(
	ciphertext, messageAssociatedData, encryptedSymmetricKey, unwrapAssociatedData, encapsulatedKey []byte,
	recipientPrivateKey PrivateKey,
) ([]byte, error) {
	symmetricKey, err := unwrapKey(encryptedSymmetricKey, recipientPrivateKey, encapsulatedKey, unwrapAssociatedData)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("build AEAD: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	plaintext, err := aead.Open(nil, nonce, ciphertext, messageAssociatedData)
	if err != nil {
		return nil, fmt.Errorf("open message: %w", err)
	}
	return plaintext, nil
}
