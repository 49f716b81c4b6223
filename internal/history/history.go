// Package history defines the per-address history rows reported by the
// indexing service.
package history

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// NullHash marks a Point that refers to nothing. An Entry whose Spend has
// the null hash has not been spent yet.
var NullHash chainhash.Hash

// Point identifies a transaction input or output.
type Point struct {
	Hash  chainhash.Hash
	Index uint32
}

// IsNull reports whether p carries the null hash.
func (p Point) IsNull() bool { return p.Hash == NullHash }

func (p Point) String() string {
	return fmt.Sprintf("%s:%d", p.Hash, p.Index)
}

// Entry is one output received by an address and, if any, the input that
// spent it. A zero height means unconfirmed.
type Entry struct {
	Output       Point
	OutputHeight uint32
	Spend        Point
	SpendHeight  uint32
	Value        int64 // satoshis
}

// Unspent reports whether the entry has no recorded spend.
func (e Entry) Unspent() bool { return e.Spend.IsNull() }
