package provider

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyedProvider acts as a wallet holding a single local key. Reads go to the
// underlying node; transactions are signed here and broadcast raw.
type KeyedProvider struct {
	*RPCProvider
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeyedProvider wraps p with the hex encoded secp256k1 key.
func NewKeyedProvider(p *RPCProvider, hexKey string) (*KeyedProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return &KeyedProvider{
		RPCProvider: p,
		key:         key,
		address:     crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address is the account the key controls.
func (k *KeyedProvider) Address() common.Address { return k.address }

func (k *KeyedProvider) Accounts(context.Context) ([]common.Address, error) {
	return []common.Address{k.address}, nil
}

func (k *KeyedProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return k.Accounts(ctx)
}

// SendTransaction builds a legacy transaction for req, signs it with the
// local key and broadcasts it.
func (k *KeyedProvider) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	if req.From != k.address {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrUnknownAccount, req.From.Hex())
	}
	ctx, cancel, err := k.begin(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	defer cancel()

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	chainID, err := k.eth.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting chain ID: %w", err)
	}
	nonce, err := k.eth.PendingNonceAt(ctx, k.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting nonce: %w", err)
	}
	gasPrice, err := k.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting gas price: %w", err)
	}
	to := req.To
	gas, err := k.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  k.address,
		To:    &to,
		Value: value,
		Data:  req.Data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimating gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     req.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), k.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing transaction: %w", err)
	}
	if err := k.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("broadcasting transaction: %w", err)
	}
	return signed.Hash(), nil
}
