// Copyright 2025 Certen Protocol
//
// Package ledger implements the confidential-compute ledger's authorization
// core (spec §4.1): key lifecycle, monotonic time, blob-header/policy
// commitment checking, attestation-gated re-wrap, and budget enforcement.
// The service is single-threaded cooperative per spec §5 — Service.mu
// serializes calls the way the teacher's hosting layer is expected to
// serialize access to a single instance, since no suspension points exist
// inside an operation.
package ledger

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/certen/confidential-ledger/pkg/attestation"
	"github.com/certen/confidential-ledger/pkg/budget"
	"github.com/certen/confidential-ledger/pkg/cryptoadapter"
	"github.com/certen/confidential-ledger/pkg/ledgererr"
	"github.com/certen/confidential-ledger/pkg/metrics"
	"github.com/certen/confidential-ledger/pkg/wire"
)

// perKeyLedger is one live key id's state (spec §3, PerKeyLedger). Nothing
// outside a Service holds a reference to privateKey; it is dropped, along
// with the rest of the entry, on eviction or explicit delete.
type perKeyLedger struct {
	privateKey cryptoadapter.PrivateKey
	publicKey  []byte
	expiration epochTime
	tracker    *budget.Tracker
}

// Recorder is the subset of pkg/metrics.Recorder the service needs; an
// interface so tests can observe calls without standing up a registry.
type Recorder interface {
	Observe(method string, start time.Time, err error)
}

// Service is the process-wide ledger state (spec §3, LedgerService). The
// zero value is not usable; construct with NewService.
type Service struct {
	mu sync.Mutex

	currentTime   epochTime
	perKeyLedgers map[uint32]*perKeyLedger
	verifier      *attestation.Verifier
	logger        *log.Logger
	metrics       Recorder
	keyIDRetries  int
}

// NewService constructs an empty Service. verifier must not be nil. A nil
// logger is replaced by a default "[ledger] " logger writing to the standard
// logger's output; a nil rec skips metrics.
// keyIDRetries caps the CreateKey key-id RNG retry loop (spec §9); 0 selects
// the default of 32.
func NewService(verifier *attestation.Verifier, logger *log.Logger, rec Recorder, keyIDRetries int) *Service {
	if keyIDRetries <= 0 {
		keyIDRetries = 32
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[ledger] ", log.LstdFlags)
	}
	return &Service{
		perKeyLedgers: make(map[uint32]*perKeyLedger),
		verifier:      verifier,
		logger:        logger,
		metrics:       rec,
		keyIDRetries:  keyIDRetries,
	}
}

func (s *Service) observe(method string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.Observe(method, start, err)
	}
}

// updateCurrentTime advances s.currentTime to now (spec §4.2) and evicts
// every key whose expiration has passed. Must be called with s.mu held.
func (s *Service) updateCurrentTime(now *wire.Timestamp) error {
	parsed, err := parseTimestamp(now)
	if err != nil {
		return fmt.Errorf("`now` is invalid: %w", err)
	}
	if parsed.less(s.currentTime) {
		return fmt.Errorf("time must be monotonic")
	}
	s.currentTime = parsed
	for id, k := range s.perKeyLedgers {
		if k.expiration.lessEqual(s.currentTime) {
			delete(s.perKeyLedgers, id)
		}
	}
	return nil
}

// freshKeyID draws a key id absent from perKeyLedgers, retrying up to
// s.keyIDRetries times (spec §9, "RNG retry loop").
func (s *Service) freshKeyID() (uint32, error) {
	var buf [4]byte
	for attempt := 0; attempt < s.keyIDRetries; attempt++ {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("read random key id: %w", err)
		}
		id := binary.BigEndian.Uint32(buf[:])
		if _, exists := s.perKeyLedgers[id]; !exists {
			return id, nil
		}
	}
	return 0, fmt.Errorf("exhausted %d attempts drawing a free key id", s.keyIDRetries)
}

// CreateKey mints a fresh key pair and registers its PerKeyLedger (spec
// §4.1.1).
func (s *Service) CreateKey(req *wire.CreateKeyRequest) (*wire.CreateKeyResponse, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.createKeyLocked(req)
	s.observe("CreateKey", start, err)
	return resp, err
}

func (s *Service) createKeyLocked(req *wire.CreateKeyRequest) (*wire.CreateKeyResponse, error) {
	if err := s.updateCurrentTime(req.Now); err != nil {
		return nil, ledgererr.New(ledgererr.InvalidArgument, "`now` is invalid: %v", err)
	}
	ttl, err := parseDuration(req.TTL)
	if err != nil {
		return nil, ledgererr.New(ledgererr.InvalidArgument, "`ttl` is invalid: %v", err)
	}
	expiration := s.currentTime.add(ttl)

	issuedTs, err := s.currentTime.toTimestamp()
	if err != nil {
		return nil, ledgererr.New(ledgererr.InvalidArgument, "`now` overflowed: %v", err)
	}
	expirationTs, err := expiration.toTimestamp()
	if err != nil {
		return nil, ledgererr.New(ledgererr.InvalidArgument, "`now` + `ttl` overflowed")
	}

	keyID, err := s.freshKeyID()
	if err != nil {
		return nil, ledgererr.New(ledgererr.Internal, "%v", err)
	}

	priv, pub, err := cryptoadapter.GenKeypair()
	if err != nil {
		return nil, ledgererr.New(ledgererr.Internal, "generate key pair: %v", err)
	}

	s.perKeyLedgers[keyID] = &perKeyLedger{
		privateKey: priv,
		publicKey:  pub,
		expiration: expiration,
		tracker:    budget.New(),
	}

	detailsBytes, err := wire.MarshalPublicKeyDetails(&wire.PublicKeyDetails{
		PublicKeyID: keyID,
		Issued:      *issuedTs,
		Expiration:  *expirationTs,
	})
	if err != nil {
		return nil, ledgererr.New(ledgererr.Internal, "encode public key details: %v", err)
	}

	s.logger.Printf("create_key key_id=%d ttl=%s", keyID, time.Duration(ttl.seconds)*time.Second)
	return &wire.CreateKeyResponse{
		PublicKey:        pub,
		PublicKeyDetails: detailsBytes,
	}, nil
}

// DeleteKey removes a per-key ledger entry (spec §4.1.2). It does not touch
// the clock.
func (s *Service) DeleteKey(req *wire.DeleteKeyRequest) (*wire.DeleteKeyResponse, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if _, ok := s.perKeyLedgers[req.PublicKeyID]; !ok {
		err = ledgererr.New(ledgererr.NotFound, "public key not found")
	} else {
		delete(s.perKeyLedgers, req.PublicKeyID)
	}
	s.observe("DeleteKey", start, err)
	if err != nil {
		return nil, err
	}
	return &wire.DeleteKeyResponse{}, nil
}

// AuthorizeAccess re-wraps a blob's symmetric key to an attested recipient,
// subject to the blob's access policy and remaining budget (spec §4.1.3).
func (s *Service) AuthorizeAccess(req *wire.AuthorizeAccessRequest) (*wire.AuthorizeAccessResponse, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	traceID := uuid.New()
	resp, err := s.authorizeAccessLocked(req)
	if err != nil {
		s.logger.Printf("authorize_access trace=%s code=%s error=%v", traceID, ledgererr.CodeOf(err), err)
	} else {
		s.logger.Printf("authorize_access trace=%s code=OK", traceID)
	}
	s.observe("AuthorizeAccess", start, err)
	return resp, err
}

func (s *Service) authorizeAccessLocked(req *wire.AuthorizeAccessRequest) (*wire.AuthorizeAccessResponse, error) {
	// Step 1: advance the clock.
	if err := s.updateCurrentTime(req.Now); err != nil {
		return nil, ledgererr.New(ledgererr.InvalidArgument, "`now` is invalid: %v", err)
	}

	// Step 2: verify the recipient's remote attestation.
	app, err := s.verifier.Verify(req.RecipientPublicKey, req.RecipientAttestation, req.RecipientTag)
	if err != nil {
		return nil, ledgererr.New(ledgererr.InvalidArgument, "attestation validation failed: %v", err)
	}

	// Step 3: decode the blob header.
	header, err := wire.UnmarshalBlobHeader(req.BlobHeader)
	if err != nil {
		return nil, ledgererr.New(ledgererr.InvalidArgument, "failed to parse blob header: %v", err)
	}

	// Step 4: check the policy commitment. The access policy is untrusted
	// here; the header will be authenticated in step 8 as AEAD associated
	// data, and binding the policy hash into the header makes the policy
	// effectively authenticated too.
	digest := sha256.Sum256(req.AccessPolicy)
	if !bytes.Equal(digest[:], header.AccessPolicySHA256) {
		return nil, ledgererr.New(ledgererr.InvalidArgument, "access policy does not match blob header")
	}

	// Step 5: decode the access policy.
	policy, err := wire.UnmarshalDataAccessPolicy(req.AccessPolicy)
	if err != nil {
		return nil, ledgererr.New(ledgererr.InvalidArgument, "failed to parse access policy: %v", err)
	}

	// Step 6: look up the per-key ledger. A missing id covers both unknown
	// and already-evicted (expired) keys.
	perKey, ok := s.perKeyLedgers[header.PublicKeyID]
	if !ok {
		return nil, ledgererr.New(ledgererr.NotFound, "public key not found")
	}

	// Step 7: select a matching transform with remaining budget.
	blobID := string(header.BlobID)
	policyHash := string(header.AccessPolicySHA256)
	transformIx, err := perKey.tracker.FindMatchingTransform(blobID, header.AccessPolicyNodeID, policy, policyHash, app)
	if err != nil {
		return nil, err
	}

	// Step 8: re-wrap the symmetric key before touching the budget, so a
	// decryption failure never consumes budget.
	rewrapAAD := append(append([]byte{}, perKey.publicKey...), req.RecipientNonce...)
	encapsulatedKey, encryptedSymmetricKey, err := cryptoadapter.RewrapSymmetricKey(
		req.EncryptedSymmetricKey,
		req.EncapsulatedKey,
		perKey.privateKey,
		req.BlobHeader,
		req.RecipientPublicKey,
		rewrapAAD,
	)
	if err != nil {
		return nil, ledgererr.New(ledgererr.InvalidArgument, "failed to re-wrap symmetric key: %v", err)
	}

	// Step 9: commit the budget. This can't fail given step 7 succeeded.
	if err := perKey.tracker.UpdateBudget(blobID, transformIx, policy, policyHash); err != nil {
		return nil, err
	}

	// Step 10: respond. The destination node id the selected transform
	// names is reserved for a future revision (spec §9) — the response
	// struct stays extensible but doesn't carry it yet.
	return &wire.AuthorizeAccessResponse{
		EncapsulatedKey:       encapsulatedKey,
		EncryptedSymmetricKey: encryptedSymmetricKey,
		ReencryptionPublicKey: perKey.publicKey,
	}, nil
}

// RevokeAccess permanently exhausts a blob's budget under one key (spec
// §4.1.4). Idempotent; does not touch the clock.
func (s *Service) RevokeAccess(req *wire.RevokeAccessRequest) (*wire.RevokeAccessResponse, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	perKey, ok := s.perKeyLedgers[req.PublicKeyID]
	var err error
	if !ok {
		err = ledgererr.New(ledgererr.NotFound, "public key not found")
	} else {
		perKey.tracker.ConsumeBudget(string(req.BlobID))
	}
	s.observe("RevokeAccess", start, err)
	if err != nil {
		return nil, err
	}
	return &wire.RevokeAccessResponse{}, nil
}
