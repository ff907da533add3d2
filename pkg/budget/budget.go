// Copyright 2025 Certen Protocol
//
// Package budget implements the per-key access-budget bookkeeping (spec
// §4.3): given a policy with multiple transforms, select the transform a
// recipient application matches, account one consumption of it against a
// blob, and enforce exhaustion and revocation. A Tracker is a plain owned
// value, not an actor — it has no concurrency of its own, the same stance
// the teacher takes with pkg/commitment's stateless hash helpers. A future
// multi-threaded ledger should shard Trackers by key id rather than add
// locking inside one.
package budget

import (
	"github.com/certen/confidential-ledger/pkg/attestation"
	"github.com/certen/confidential-ledger/pkg/ledgererr"
	"github.com/certen/confidential-ledger/pkg/wire"
)

// accountKey identifies one (blob, policy, transform) accounting bucket.
// Keying on policyHash as well as blobID closes the attack where a client
// reuses a blob id under a different policy (spec §4.3, "Policy-hash
// keying").
type accountKey struct {
	blobID      string
	policyHash  string
	transformIx int
}

// Tracker is the per-key budget ledger.
type Tracker struct {
	// consumed counts consumptions recorded against each accounting bucket.
	consumed map[accountKey]int64
	// revoked is the set of blob ids consumed to exhaustion regardless of
	// policy.
	revoked map[string]struct{}
}

// New returns an empty Tracker, the state a freshly created PerKeyLedger
// starts with.
func New() *Tracker {
	return &Tracker{
		consumed: make(map[accountKey]int64),
		revoked:  make(map[string]struct{}),
	}
}

func matches(m *wire.ApplicationMatcher, app attestation.Application) bool {
	if m == nil || m.Tag == nil {
		return true
	}
	return *m.Tag == app.Tag
}

func budgetLimit(b *wire.AccessBudget) (limit int64, unlimited bool) {
	if b == nil || b.Kind.Times == nil {
		return 0, true
	}
	return *b.Kind.Times, false
}

// FindMatchingTransform implements the matching algorithm of spec §4.3: walk
// policy.Transforms in order, returning the index of the first one whose
// matcher accepts app and that still has residual budget for blobID under
// policyHash. node_id is accepted but not consulted — it is reserved for a
// future policy entry-point lookup (spec §9, "Transform node id").
func (t *Tracker) FindMatchingTransform(blobID string, nodeID uint64, policy *wire.DataAccessPolicy, policyHash string, app attestation.Application) (int, error) {
	if _, revoked := t.revoked[blobID]; revoked {
		return 0, ledgererr.New(ledgererr.ResourceExhausted, "blob has been revoked")
	}

	matchedAny := false
	for i, tr := range policy.Transforms {
		if !matches(tr.Application, app) {
			continue
		}
		matchedAny = true

		limit, unlimited := budgetLimit(tr.AccessBudget)
		if unlimited {
			return i, nil
		}
		key := accountKey{blobID: blobID, policyHash: policyHash, transformIx: i}
		if t.consumed[key] < limit {
			return i, nil
		}
	}

	if !matchedAny {
		return 0, ledgererr.New(ledgererr.FailedPrecondition, "no transform matches the recipient application")
	}
	return 0, ledgererr.New(ledgererr.ResourceExhausted, "all matching transforms are exhausted")
}

// UpdateBudget records one consumption of the transform at index against
// blobID under policyHash. It is an internal error to call this for a
// bucket already at its limit — FindMatchingTransform having returned index
// guarantees that can't happen (spec §4.1.3 step 7 precedes step 9).
func (t *Tracker) UpdateBudget(blobID string, index int, policy *wire.DataAccessPolicy, policyHash string) error {
	if index < 0 || index >= len(policy.Transforms) {
		return ledgererr.New(ledgererr.Internal, "transform index %d out of range", index)
	}
	limit, unlimited := budgetLimit(policy.Transforms[index].AccessBudget)
	key := accountKey{blobID: blobID, policyHash: policyHash, transformIx: index}
	if !unlimited && t.consumed[key] >= limit {
		return ledgererr.New(ledgererr.Internal, "budget commit invariant violated for blob %q transform %d", blobID, index)
	}
	t.consumed[key]++
	return nil
}

// ConsumeBudget revokes blobID: every subsequent FindMatchingTransform call
// for it fails ResourceExhausted regardless of policy. Idempotent.
func (t *Tracker) ConsumeBudget(blobID string) {
	t.revoked[blobID] = struct{}{}
}
