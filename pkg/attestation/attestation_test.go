// Copyright 2025 Certen Protocol

package attestation

import (
	"crypto/ed25519"
	"testing"
)

func TestVerifySucceedsForTrustedRoot(t *testing.T) {
	rootPub, rootPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	_, recipientPub, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	v := NewVerifier([]ed25519.PublicKey{rootPub})
	evidence := ed25519.Sign(rootPriv, signedMessage(recipientPub, "tag"))

	app, err := v.Verify(recipientPub, evidence, "tag")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if app.Tag != "tag" {
		t.Fatalf("got tag %q, want %q", app.Tag, "tag")
	}
}

func TestVerifyFailsForUntrustedSigner(t *testing.T) {
	_, untrustedPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	trustedPub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	_, recipientPub, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	v := NewVerifier([]ed25519.PublicKey{trustedPub})
	evidence := ed25519.Sign(untrustedPriv, signedMessage(recipientPub, "tag"))

	if _, err := v.Verify(recipientPub, evidence, "tag"); err == nil {
		t.Fatal("expected verification to fail for an untrusted signer")
	}
}

func TestVerifyFailsWhenRecipientKeyDiffersFromSigned(t *testing.T) {
	rootPub, rootPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	_, recipientPub, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	_, otherRecipientPub, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	v := NewVerifier([]ed25519.PublicKey{rootPub})
	evidence := ed25519.Sign(rootPriv, signedMessage(recipientPub, "tag"))

	if _, err := v.Verify(otherRecipientPub, evidence, "tag"); err == nil {
		t.Fatal("expected verification to fail when evidence was issued for a different recipient key")
	}
}
