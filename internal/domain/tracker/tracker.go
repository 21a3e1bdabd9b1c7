// Package tracker keeps the per-user, per-epoch record of which rankings a
// user already submitted a grade to. Bit k of the mask stands for the
// ranking with sequence k+1; masks grow without bound.
package tracker

import "math/big"

// MaxSequence is the highest ranking sequence a mask can address. Larger
// sequences are never marked and never reported as submitted.
const MaxSequence uint64 = 1 << 24

// Record is one user's submission bookkeeping for one epoch.
type Record struct {
	EpochID string
	Mask    *big.Int
}

// Addressable reports whether sequence maps to a bit of a mask.
func Addressable(sequence uint64) bool {
	return sequence > 0 && sequence <= MaxSequence
}

// HasSubmitted reports whether bit sequence-1 is set.
func HasSubmitted(mask *big.Int, sequence uint64) bool {
	if mask == nil || !Addressable(sequence) {
		return false
	}
	return mask.Bit(int(sequence-1)) == 1
}

// MarkSubmitted returns a copy of mask with bit sequence-1 set. Sequences
// outside [1, MaxSequence] leave the copy unchanged.
func MarkSubmitted(mask *big.Int, sequence uint64) *big.Int {
	out := new(big.Int)
	if mask != nil {
		out.Set(mask)
	}
	if !Addressable(sequence) {
		return out
	}
	return out.SetBit(out, int(sequence-1), 1)
}

// LoadOrInit returns the mask of prior when it belongs to epochID and an
// empty mask otherwise. A record from a superseded epoch is never merged.
func LoadOrInit(prior *Record, epochID string) *big.Int {
	if prior == nil || prior.Mask == nil || prior.EpochID != epochID {
		return new(big.Int)
	}
	return new(big.Int).Set(prior.Mask)
}

// Merge returns the union of both masks.
func Merge(a, b *big.Int) *big.Int {
	out := new(big.Int)
	if a != nil {
		out.Set(a)
	}
	if b != nil {
		out.Or(out, b)
	}
	return out
}
