// Copyright 2025 Certen Protocol
//
// Package wire holds the blob header, access policy, and RPC request/response
// schemas the ledger exchanges with clients. Encoding is canonical JSON: Go's
// encoding/json marshals struct fields in declaration order and never
// reorders map keys we don't introduce, so two calls to Marshal on
// equivalent values always produce byte-identical output. That determinism
// is all the SHA-256 policy commitment in pkg/ledger needs; this package
// does not attempt cross-language wire compatibility.
package wire

import "encoding/json"

// Timestamp is a duration since the Unix epoch, mirroring a proto Timestamp.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// Duration mirrors a proto Duration.
type Duration struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// ApplicationMatcher gates a Transform to a class of recipient applications.
// A nil Tag matches any application; additional matcher fields are reserved.
type ApplicationMatcher struct {
	Tag *string `json:"tag,omitempty"`
}

// AccessBudgetKind is the discriminant of an AccessBudget. Times is the only
// kind currently defined; additional kinds are reserved.
type AccessBudgetKind struct {
	Times *int64 `json:"times,omitempty"`
}

// AccessBudget bounds the number of consumptions a Transform grants. A nil
// AccessBudget (on the owning Transform) means unlimited.
type AccessBudget struct {
	Kind AccessBudgetKind `json:"kind"`
}

// Transform is one (matcher, budget) entry in a DataAccessPolicy.
type Transform struct {
	Application  *ApplicationMatcher `json:"application,omitempty"`
	AccessBudget *AccessBudget       `json:"access_budget,omitempty"`
}

// DataAccessPolicy is the declarative list of transforms bound to a blob.
type DataAccessPolicy struct {
	Transforms []Transform `json:"transforms"`
}

// BlobHeader is authenticated elsewhere as AEAD associated data; the ledger
// only decodes it and checks the policy commitment against it.
type BlobHeader struct {
	BlobID             []byte `json:"blob_id"`
	PublicKeyID        uint32 `json:"public_key_id"`
	AccessPolicySHA256 []byte `json:"access_policy_sha256"`
	AccessPolicyNodeID uint64 `json:"access_policy_node_id,omitempty"`
}

// PublicKeyDetails is returned (serialized) from CreateKey.
type PublicKeyDetails struct {
	PublicKeyID uint32    `json:"public_key_id"`
	Issued      Timestamp `json:"issued"`
	Expiration  Timestamp `json:"expiration"`
}

// CreateKeyRequest/Response.

type CreateKeyRequest struct {
	Now *Timestamp `json:"now,omitempty"`
	TTL *Duration  `json:"ttl,omitempty"`
}

type CreateKeyResponse struct {
	PublicKey        []byte `json:"public_key"`
	PublicKeyDetails []byte `json:"public_key_details"`
	// Attestation is reserved for a future revision; always empty today.
	Attestation []byte `json:"attestation,omitempty"`
}

// DeleteKeyRequest/Response.

type DeleteKeyRequest struct {
	PublicKeyID uint32 `json:"public_key_id"`
}

type DeleteKeyResponse struct{}

// AuthorizeAccessRequest/Response.

type AuthorizeAccessRequest struct {
	Now                   *Timestamp `json:"now,omitempty"`
	AccessPolicy          []byte     `json:"access_policy"`
	BlobHeader            []byte     `json:"blob_header"`
	EncapsulatedKey       []byte     `json:"encapsulated_key"`
	EncryptedSymmetricKey []byte     `json:"encrypted_symmetric_key"`
	RecipientPublicKey    []byte     `json:"recipient_public_key"`
	RecipientAttestation  []byte     `json:"recipient_attestation"`
	RecipientTag          string     `json:"recipient_tag"`
	RecipientNonce        []byte     `json:"recipient_nonce"`
}

type AuthorizeAccessResponse struct {
	EncapsulatedKey       []byte `json:"encapsulated_key"`
	EncryptedSymmetricKey []byte `json:"encrypted_symmetric_key"`
	ReencryptionPublicKey []byte `json:"reencryption_public_key"`
}

// RevokeAccessRequest/Response.

type RevokeAccessRequest struct {
	PublicKeyID uint32 `json:"public_key_id"`
	BlobID      []byte `json:"blob_id"`
}

type RevokeAccessResponse struct{}

// Marshal/Unmarshal pairs. Each type gets its own pair rather than a single
// generic helper so callers get compile-time checking of what they encode.

func MarshalBlobHeader(h *BlobHeader) ([]byte, error)        { return json.Marshal(h) }
func UnmarshalBlobHeader(b []byte) (*BlobHeader, error) {
	var h BlobHeader
	if err := json.Unmarshal(b, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func MarshalDataAccessPolicy(p *DataAccessPolicy) ([]byte, error) { return json.Marshal(p) }
func UnmarshalDataAccessPolicy(b []byte) (*DataAccessPolicy, error) {
	var p DataAccessPolicy
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func MarshalPublicKeyDetails(d *PublicKeyDetails) ([]byte, error) { return json.Marshal(d) }
func UnmarshalPublicKeyDetails(b []byte) (*PublicKeyDetails, error) {
	var d PublicKeyDetails
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
