// Package contract binds the Faucet contract to a wallet provider.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"ethfaucet/pkg/provider"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrUnresolved covers every way binding can fail: missing artifact, wrong
// network, no code at the recorded address.
var ErrUnresolved = errors.New("cannot connect to contract")

// Methods names the contract entry points used by the client.
type Methods struct {
	Deposit  string // payable, no arguments
	Withdraw string // single uint256 amount
}

var DefaultMethods = Methods{Deposit: "addFunds", Withdraw: "withdraw"}

// Handle is an immutable binding of a deployment to a provider.
type Handle struct {
	name     string
	address  common.Address
	abi      abi.ABI
	methods  Methods
	provider provider.Provider
}

// Bind resolves name on the provider's current network and checks that
// code is deployed at the resolved address.
func Bind(ctx context.Context, p provider.Provider, r Resolver, name string, methods Methods) (*Handle, error) {
	if methods.Deposit == "" {
		methods.Deposit = DefaultMethods.Deposit
	}
	if methods.Withdraw == "" {
		methods.Withdraw = DefaultMethods.Withdraw
	}

	networkID, err := p.NetworkID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading network id: %w", ErrUnresolved, err)
	}
	dep, err := r.Resolve(name, networkID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnresolved, err)
	}
	for _, m := range []string{methods.Deposit, methods.Withdraw} {
		if _, ok := dep.ABI.Methods[m]; !ok {
			return nil, fmt.Errorf("%w: %s has no method %q", ErrUnresolved, name, m)
		}
	}

	code, err := p.CodeAt(ctx, dep.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: reading code: %w", ErrUnresolved, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: no code at %s", ErrUnresolved, dep.Address.Hex())
	}

	return &Handle{
		name:     name,
		address:  dep.Address,
		abi:      dep.ABI,
		methods:  methods,
		provider: p,
	}, nil
}

func (h *Handle) Name() string { return h.name }

func (h *Handle) Address() common.Address { return h.address }

// Balance returns the wei held by the contract.
func (h *Handle) Balance(ctx context.Context) (*big.Int, error) {
	return h.provider.BalanceAt(ctx, h.address)
}

// Deposit sends value to the contract's payable deposit method.
func (h *Handle) Deposit(ctx context.Context, from common.Address, value *big.Int) (common.Hash, error) {
	data, err := h.abi.Pack(h.methods.Deposit)
	if err != nil {
		return common.Hash{}, fmt.Errorf("packing %s: %w", h.methods.Deposit, err)
	}
	return h.provider.SendTransaction(ctx, provider.TxRequest{
		From:  from,
		To:    h.address,
		Value: value,
		Data:  data,
	})
}

// Withdraw asks the contract to send amount back to from.
func (h *Handle) Withdraw(ctx context.Context, from common.Address, amount *big.Int) (common.Hash, error) {
	data, err := h.abi.Pack(h.methods.Withdraw, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("packing %s: %w", h.methods.Withdraw, err)
	}
	return h.provider.SendTransaction(ctx, provider.TxRequest{
		From:  from,
		To:    h.address,
		Value: new(big.Int),
		Data:  data,
	})
}
