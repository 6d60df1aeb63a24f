// Package providertest provides a testify mock of provider.Provider.
package providertest

import (
	"context"
	"math/big"

	"ethfaucet/pkg/provider"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

var _ provider.Provider = (*MockProvider)(nil)

func (m *MockProvider) URL() string {
	return "mock://provider"
}

func (m *MockProvider) ChainID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockProvider) NetworkID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	args := m.Called(ctx)
	accs, _ := args.Get(0).([]common.Address)
	return accs, args.Error(1)
}

func (m *MockProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	args := m.Called(ctx)
	accs, _ := args.Get(0).([]common.Address)
	return accs, args.Error(1)
}

func (m *MockProvider) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, account)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockProvider) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	args := m.Called(ctx, account)
	code, _ := args.Get(0).([]byte)
	return code, args.Error(1)
}

func (m *MockProvider) SendTransaction(ctx context.Context, req provider.TxRequest) (common.Hash, error) {
	args := m.Called(ctx, req)
	hash, _ := args.Get(0).(common.Hash)
	return hash, args.Error(1)
}

func (m *MockProvider) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, hash)
	receipt, _ := args.Get(0).(*types.Receipt)
	return receipt, args.Error(1)
}

func (m *MockProvider) Close() {
	m.Called()
}

func bigOrNil(v interface{}) *big.Int {
	b, _ := v.(*big.Int)
	return b
}
