package rpc

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/dmagro/addr-balance/internal/history"
)

// Tx is a transaction as returned by the Esplora /address/{addr}/txs
// endpoints. Only the fields needed to rebuild an address history are
// decoded.
type Tx struct {
	TxID   string   `json:"txid"`
	Vin    []Vin    `json:"vin"`
	Vout   []Vout   `json:"vout"`
	Status TxStatus `json:"status"`
}

// Vin is a transaction input together with the output it spends.
type Vin struct {
	TxID       string `json:"txid"`
	Vout       uint32 `json:"vout"`
	Prevout    *Vout  `json:"prevout"`
	IsCoinbase bool   `json:"is_coinbase"`
}

// Vout is a transaction output.
type Vout struct {
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               int64  `json:"value"` // satoshis
}

// TxStatus reports where a transaction was confirmed, if anywhere.
type TxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint32 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
}

// Height returns the confirmation height, or 0 while unconfirmed.
func (s TxStatus) Height() uint32 {
	if !s.Confirmed {
		return 0
	}
	return s.BlockHeight
}

type spend struct {
	point  history.Point
	height uint32
}

// Entries rebuilds the history of address from its transactions. Every
// output paying address becomes one entry; inputs spending such an output
// fill in the entry's spend point and height.
func Entries(address string, txs []Tx) ([]history.Entry, error) {
	var entries []history.Entry
	spends := make(map[history.Point]spend)

	for _, tx := range txs {
		hash, err := chainhash.NewHashFromStr(tx.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: txid %q: %v", ErrMalformedResponse, tx.TxID, err)
		}
		height := tx.Status.Height()

		for i, out := range tx.Vout {
			if out.ScriptPubKeyAddress != address {
				continue
			}
			entries = append(entries, history.Entry{
				Output:       history.Point{Hash: *hash, Index: uint32(i)},
				OutputHeight: height,
				Value:        out.Value,
			})
		}

		for i, in := range tx.Vin {
			if in.IsCoinbase || in.Prevout == nil || in.Prevout.ScriptPubKeyAddress != address {
				continue
			}
			prev, err := chainhash.NewHashFromStr(in.TxID)
			if err != nil {
				return nil, fmt.Errorf("%w: prevout txid %q: %v", ErrMalformedResponse, in.TxID, err)
			}
			spends[history.Point{Hash: *prev, Index: in.Vout}] = spend{
				point:  history.Point{Hash: *hash, Index: uint32(i)},
				height: height,
			}
		}
	}

	for i := range entries {
		if s, ok := spends[entries[i].Output]; ok {
			entries[i].Spend = s.point
			entries[i].SpendHeight = s.height
		}
	}

	return entries, nil
}
