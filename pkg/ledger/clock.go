// Copyright 2025 Certen Protocol

package ledger

import (
	"fmt"
	"math"

	"github.com/certen/confidential-ledger/pkg/wire"
)

// epochTime is a duration since the Unix epoch, represented the way the
// original Rust source represents it internally (an unsigned seconds+nanos
// pair) so that summing a current time and a TTL can never overflow; only
// the conversion back to the signed wire.Timestamp can (spec §4.1.1 step 3).
type epochTime struct {
	seconds uint64
	nanos   uint32
}

func (a epochTime) less(b epochTime) bool {
	if a.seconds != b.seconds {
		return a.seconds < b.seconds
	}
	return a.nanos < b.nanos
}

func (a epochTime) lessEqual(b epochTime) bool {
	return a.less(b) || a == b
}

func (a epochTime) add(b epochTime) epochTime {
	nanos := a.nanos + b.nanos
	seconds := a.seconds + b.seconds
	if nanos >= 1_000_000_000 {
		nanos -= 1_000_000_000
		seconds++
	}
	return epochTime{seconds: seconds, nanos: nanos}
}

// parseTimestamp parses an optional wire.Timestamp as an epochTime; absent
// is zero. Negative fields are malformed (a proto Timestamp is signed but an
// epoch duration cannot be negative).
func parseTimestamp(ts *wire.Timestamp) (epochTime, error) {
	if ts == nil {
		return epochTime{}, nil
	}
	if ts.Seconds < 0 || ts.Nanos < 0 {
		return epochTime{}, fmt.Errorf("timestamp must not be negative")
	}
	return epochTime{seconds: uint64(ts.Seconds), nanos: uint32(ts.Nanos)}, nil
}

// parseDuration parses an optional wire.Duration as an epochTime value
// (reusing the same seconds+nanos representation); absent is zero.
func parseDuration(d *wire.Duration) (epochTime, error) {
	if d == nil {
		return epochTime{}, nil
	}
	if d.Seconds < 0 || d.Nanos < 0 {
		return epochTime{}, fmt.Errorf("duration must not be negative")
	}
	return epochTime{seconds: uint64(d.Seconds), nanos: uint32(d.Nanos)}, nil
}

// toTimestamp converts back to the signed wire representation, failing if
// the seconds field would overflow a signed 64-bit integer.
func (a epochTime) toTimestamp() (*wire.Timestamp, error) {
	if a.seconds > math.MaxInt64 {
		return nil, fmt.Errorf("seconds overflow signed 64-bit range")
	}
	return &wire.Timestamp{Seconds: int64(a.seconds), Nanos: int32(a.nanos)}, nil
}
