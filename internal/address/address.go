// Package address decodes and validates the address arguments handed to
// the balance command.
package address

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// ErrInvalidAddress is returned for any address that fails to decode or
// belongs to another network.
var ErrInvalidAddress = errors.New("invalid address")

// Params maps a network name to its chain parameters.
func Params(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}

// Decode decodes one encoded address and checks it belongs to params.
func Decode(encoded string, params *chaincfg.Params) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(encoded, params)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidAddress, encoded, err)
	}
	if !addr.IsForNet(params) {
		return nil, fmt.Errorf("%w %q: not a %s address", ErrInvalidAddress, encoded, params.Name)
	}
	return addr, nil
}

// DecodeAll decodes every address in order. It stops at the first invalid
// one.
func DecodeAll(encoded []string, params *chaincfg.Params) ([]btcutil.Address, error) {
	addrs := make([]btcutil.Address, 0, len(encoded))
	for _, s := range encoded {
		addr, err := Decode(s, params)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// Read reads a single address from r. Surrounding whitespace is ignored and
// an empty stream yields no addresses and no error.
func Read(r io.Reader, params *chaincfg.Params) ([]btcutil.Address, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read address: %w", err)
	}
	encoded := strings.TrimSpace(string(data))
	if encoded == "" {
		return nil, nil
	}
	addr, err := Decode(encoded, params)
	if err != nil {
		return nil, err
	}
	return []btcutil.Address{addr}, nil
}
