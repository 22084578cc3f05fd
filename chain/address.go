package chain

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/fogo-labs/fogo-faucet/pkg/errcode"
)

const (
	minAddressLen = 32
	maxAddressLen = 44
)

// UnifyAddress validates a wallet address and returns its canonical base58
// form. Malformed input is rejected before any gateway or store call sees it.
func UnifyAddress(address string) (string, error) {
	if len(address) < minAddressLen || len(address) > maxAddressLen {
		return "", errors.WithStack(errcode.ErrInvalidAddress)
	}
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return "", errors.WithStack(errcode.ErrInvalidAddress)
	}
	return pk.String(), nil
}
