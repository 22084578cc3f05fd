package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fogo-labs/fogo-faucet/config"
	"github.com/fogo-labs/fogo-faucet/pkg/errcode"
)

const (
	nativeDecimals = 9
	sigPageSize    = 1000
)

// Client implements Gateway against a FOGO RPC node using the faucet's
// signing key for outbound transfers.
type Client struct {
	rpc    *rpc.Client
	signer solana.PrivateKey

	fogoMint          solana.PublicKey
	fogoDecimals      uint8
	bonusMint         solana.PublicKey
	bonusDecimals     uint8
	secondaryMint     solana.PublicKey
	secondaryDecimals uint8
	maxTxnScan        int
}

var _ Gateway = (*Client)(nil)

func NewClient(c config.ChainConf) (*Client, error) {
	signer, err := solana.PrivateKeyFromBase58(c.FaucetPrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "parse faucet private key")
	}
	fogoMint, err := solana.PublicKeyFromBase58(c.FogoMint)
	if err != nil {
		return nil, errors.Wrap(err, "parse fogo mint")
	}
	bonusMint, err := solana.PublicKeyFromBase58(c.BonusMint)
	if err != nil {
		return nil, errors.Wrap(err, "parse bonus mint")
	}
	secondaryMint, err := solana.PublicKeyFromBase58(c.SecondaryMint)
	if err != nil {
		return nil, errors.Wrap(err, "parse secondary mint")
	}
	return &Client{
		rpc:               rpc.New(c.Endpoint),
		signer:            signer,
		fogoMint:          fogoMint,
		fogoDecimals:      c.FogoDecimals,
		bonusMint:         bonusMint,
		bonusDecimals:     c.BonusDecimals,
		secondaryMint:     secondaryMint,
		secondaryDecimals: c.SecondaryDecimals,
		maxTxnScan:        c.MaxTxnScan,
	}, nil
}

// GetTransactionCount counts confirmed signatures for the address, paging
// through history up to the configured scan cap.
func (c *Client) GetTransactionCount(ctx context.Context, address string) (int64, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, errors.WithStack(errcode.ErrInvalidAddress)
	}

	var (
		count  int64
		before solana.Signature
	)
	for int(count) < c.maxTxnScan {
		limit := sigPageSize
		opts := &rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: rpc.CommitmentFinalized,
		}
		if !before.IsZero() {
			opts.Before = before
		}
		sigs, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, pk, opts)
		if err != nil {
			return 0, errors.Wrapf(errcode.ErrRPCUnavailable, "get signatures: %v", err)
		}
		count += int64(len(sigs))
		if len(sigs) < sigPageSize {
			break
		}
		before = sigs[len(sigs)-1].Signature
	}
	return count, nil
}

// GetWalletBalance returns the native FOGO balance in whole tokens.
func (c *Client) GetWalletBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return decimal.Zero, errors.WithStack(errcode.ErrInvalidAddress)
	}
	out, err := c.rpc.GetBalance(ctx, pk, rpc.CommitmentFinalized)
	if err != nil {
		return decimal.Zero, errors.Wrapf(errcode.ErrRPCUnavailable, "get balance: %v", err)
	}
	return decimal.New(int64(out.Value), -nativeDecimals), nil
}

// CheckDualBalance fetches the native and secondary token balances and
// compares both against the ceiling, naming the first token that exceeds it.
func (c *Client) CheckDualBalance(ctx context.Context, address string, ceiling decimal.Decimal) (*DualBalance, error) {
	native, err := c.GetWalletBalance(ctx, address)
	if err != nil {
		return nil, err
	}

	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, errors.WithStack(errcode.ErrInvalidAddress)
	}
	secondary, err := c.tokenBalance(ctx, pk, c.secondaryMint, c.secondaryDecimals)
	if err != nil {
		return nil, err
	}

	db := &DualBalance{Native: native, Secondary: secondary, Eligible: true}
	switch {
	case native.GreaterThan(ceiling):
		db.Eligible = false
		db.ExceededToken = NativeSymbol
	case secondary.GreaterThan(ceiling):
		db.Eligible = false
		db.ExceededToken = SecondarySymbol
	}
	return db, nil
}

// Transfer sends the primary faucet token.
func (c *Client) Transfer(ctx context.Context, address string, amount decimal.Decimal) (string, error) {
	return c.transferToken(ctx, c.fogoMint, c.fogoDecimals, address, amount)
}

// TransferBonus sends the bonus token.
func (c *Client) TransferBonus(ctx context.Context, address string, amount decimal.Decimal) (string, error) {
	return c.transferToken(ctx, c.bonusMint, c.bonusDecimals, address, amount)
}

func (c *Client) tokenBalance(ctx context.Context, owner, mint solana.PublicKey, decimals uint8) (decimal.Decimal, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "derive token account")
	}
	out, err := c.rpc.GetTokenAccountBalance(ctx, ata, rpc.CommitmentFinalized)
	if err != nil {
		// Wallets that never held the token have no account at all.
		if errors.Is(err, rpc.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, errors.Wrapf(errcode.ErrRPCUnavailable, "get token balance: %v", err)
	}
	raw, err := decimal.NewFromString(out.Value.Amount)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse token balance")
	}
	return raw.Shift(-int32(decimals)), nil
}

func (c *Client) transferToken(ctx context.Context, mint solana.PublicKey, decimals uint8, address string, amount decimal.Decimal) (string, error) {
	destOwner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return "", errors.WithStack(errcode.ErrInvalidAddress)
	}

	base := amount.Shift(int32(decimals)).Truncate(0)
	if !base.IsPositive() {
		return "", errors.Wrap(errcode.ErrTransferFailed, "non-positive transfer amount")
	}

	source, _, err := solana.FindAssociatedTokenAddress(c.signer.PublicKey(), mint)
	if err != nil {
		return "", errors.Wrap(err, "derive source token account")
	}
	destATA, _, err := solana.FindAssociatedTokenAddress(destOwner, mint)
	if err != nil {
		return "", errors.Wrap(err, "derive destination token account")
	}

	var instrs []solana.Instruction
	if _, err := c.rpc.GetAccountInfo(ctx, destATA); err != nil {
		if !errors.Is(err, rpc.ErrNotFound) {
			return "", errors.Wrapf(errcode.ErrRPCUnavailable, "check destination account: %v", err)
		}
		instrs = append(instrs,
			associatedtokenaccount.NewCreateInstruction(c.signer.PublicKey(), destOwner, mint).Build())
	}
	instrs = append(instrs, token.NewTransferCheckedInstruction(
		base.BigInt().Uint64(),
		decimals,
		source,
		mint,
		destATA,
		c.signer.PublicKey(),
		nil,
	).Build())

	blockhash, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", errors.Wrapf(errcode.ErrRPCUnavailable, "get blockhash: %v", err)
	}

	tx, err := solana.NewTransaction(instrs, blockhash.Value.Blockhash,
		solana.TransactionPayer(c.signer.PublicKey()))
	if err != nil {
		return "", errors.Wrapf(errcode.ErrTransferFailed, "build transaction: %v", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.signer.PublicKey()) {
			return &c.signer
		}
		return nil
	}); err != nil {
		return "", errors.Wrapf(errcode.ErrTransferFailed, "sign transaction: %v", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return "", errors.Wrapf(errcode.ErrTransferFailed, "send transaction: %v", err)
	}
	return sig.String(), nil
}
