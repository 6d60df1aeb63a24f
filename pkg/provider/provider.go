// Package provider locates and talks to the wallet provider: a JSON-RPC
// endpoint that owns the user's accounts and can submit transactions on
// their behalf.
package provider

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrNotInstalled means no candidate endpoint answered during discovery.
	ErrNotInstalled = errors.New("no wallet provider detected")
	// ErrUnknownAccount is returned when a transaction names a sender the
	// provider cannot sign for.
	ErrUnknownAccount = errors.New("account not managed by provider")
)

// TxRequest is a transaction the provider should sign and submit.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Provider is the capability set the client needs from a wallet.
type Provider interface {
	URL() string
	ChainID(ctx context.Context) (*big.Int, error)
	// NetworkID is net_version, which is what build artifacts are keyed by.
	NetworkID(ctx context.Context) (*big.Int, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	Close()
}
