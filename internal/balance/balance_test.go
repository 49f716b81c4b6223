package balance

import (
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/addr-balance/internal/history"
)

func spendPoint(b byte) history.Point {
	var h chainhash.Hash
	h[0] = b
	return history.Point{Hash: h, Index: 1}
}

func TestAccumulate(t *testing.T) {
	tests := []struct {
		name    string
		entries []history.Entry
		want    Result
	}{
		{
			name:    "empty",
			entries: nil,
			want:    Result{},
		},
		{
			name: "unspent_confirmed_and_confirmed_spend",
			entries: []history.Entry{
				{Value: 100, OutputHeight: 10},
				{Value: 50, OutputHeight: 20, Spend: spendPoint(1), SpendHeight: 25},
			},
			want: Result{Paid: 100, Pending: 100, Received: 150},
		},
		{
			name: "unconfirmed_receive",
			entries: []history.Entry{
				{Value: 70},
			},
			want: Result{Paid: 0, Pending: 70, Received: 70},
		},
		{
			name: "confirmed_receive_unconfirmed_spend",
			entries: []history.Entry{
				{Value: 30, OutputHeight: 5, Spend: spendPoint(2)},
			},
			want: Result{Paid: 30, Pending: 0, Received: 30},
		},
		{
			name: "zero_value",
			entries: []history.Entry{
				{Value: 0, OutputHeight: 1},
			},
			want: Result{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accumulate(tt.entries)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccumulate_NegativeValue(t *testing.T) {
	_, err := Accumulate([]history.Entry{
		{Value: 10, OutputHeight: 1},
		{Value: -1, OutputHeight: 2},
	})
	require.ErrorIs(t, err, ErrNegativeValue)
}

func TestAccumulate_ReceivedBoundsOtherCounters(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 500; round++ {
		entries := make([]history.Entry, rng.Intn(20))
		for i := range entries {
			e := history.Entry{Value: rng.Int63n(1_000_000)}
			if rng.Intn(2) == 0 {
				e.OutputHeight = uint32(rng.Intn(800_000) + 1)
			}
			if rng.Intn(2) == 0 {
				e.Spend = spendPoint(byte(rng.Intn(255) + 1))
				if rng.Intn(2) == 0 {
					e.SpendHeight = uint32(rng.Intn(800_000) + 1)
				}
			}
			entries[i] = e
		}

		got, err := Accumulate(entries)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Received, got.Paid, "round %d", round)
		assert.GreaterOrEqual(t, got.Received, got.Pending, "round %d", round)
	}
}
