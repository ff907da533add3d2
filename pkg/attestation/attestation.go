// Copyright 2025 Certen Protocol
//
// Package attestation is the ledger's attestation adapter (spec §6.2): it
// turns a recipient's remote-attestation evidence into a verified
// Application descriptor. Verification is domain-separated Ed25519, the
// scheme the teacher's pkg/attestation/strategy/ed25519_strategy.go uses for
// non-EVM chains — the ledger has no reason to prefer BLS aggregation since
// it verifies one recipient at a time, so Ed25519 alone is carried over.
package attestation

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
)

// domain separates attestation signatures from any other use of a root key.
const domain = "CERTEN_LEDGER_ATTESTATION_V1"

// Application is the opaque descriptor the ledger matches transforms
// against. Only Tag is defined today; additional fields are reserved.
type Application struct {
	Tag string
}

// Verifier verifies recipient remote-attestation evidence against a set of
// trusted attester root keys.
type Verifier struct {
	trustedRoots []ed25519.PublicKey
}

// NewVerifier builds a Verifier trusting the given attester root keys.
func NewVerifier(trustedRoots []ed25519.PublicKey) *Verifier {
	roots := make([]ed25519.PublicKey, len(trustedRoots))
	copy(roots, trustedRoots)
	return &Verifier{trustedRoots: roots}
}

// signedMessage is what a trusted attester signs over: the domain, the
// recipient's public key, and the tag it vouches for. Binding the recipient
// public key into the signed message prevents evidence issued for one key
// from being replayed against another.
func signedMessage(recipientPublicKey []byte, tag string) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(recipientPublicKey)
	h.Write([]byte(tag))
	return h.Sum(nil)
}

// Verify checks evidence against every trusted root and, on a match, returns
// the Application the recipient is attesting to. evidence is expected to be
// an Ed25519 signature over signedMessage(recipientPublicKey, tag) by one of
// the trusted roots.
func (v *Verifier) Verify(recipientPublicKey, evidence []byte, tag string) (Application, error) {
	if len(v.trustedRoots) == 0 {
		return Application{}, fmt.Errorf("no trusted attester roots configured")
	}
	msg := signedMessage(recipientPublicKey, tag)
	for _, root := range v.trustedRoots {
		if ed25519.Verify(root, msg, evidence) {
			return Application{Tag: tag}, nil
		}
	}
	return Application{}, fmt.Errorf("evidence did not verify against any trusted root")
}
