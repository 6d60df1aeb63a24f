package provider

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"ethfaucet/pkg/provider/nodetest"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	accountA = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	faucet   = "0x1234567890123456789012345678901234567890"
)

func deadURL(t *testing.T) string {
	t.Helper()
	n := nodetest.New(t, nil)
	url := n.URL
	n.Close()
	return url
}

func TestDiscover_PicksFirstAnsweringInOrder(t *testing.T) {
	first := nodetest.New(t, map[string]nodetest.Handler{"eth_chainId": nodetest.Constant("0x539")})
	second := nodetest.New(t, map[string]nodetest.Handler{"eth_chainId": nodetest.Constant("0x1")})

	p, err := Discover(context.Background(), DiscoveryConfig{
		URLs:    []string{deadURL(t), first.URL, second.URL, first.URL},
		Options: Options{CallTimeout: 2 * time.Second},
	})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, first.URL, p.URL())
	id, err := p.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1337), id.Int64())
}

func TestDiscover_NotInstalled(t *testing.T) {
	_, err := Discover(context.Background(), DiscoveryConfig{})
	assert.ErrorIs(t, err, ErrNotInstalled)

	_, err = Discover(context.Background(), DiscoveryConfig{
		URLs:    []string{deadURL(t), " "},
		Options: Options{CallTimeout: time.Second},
	})
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestDiscover_WithPrivateKey(t *testing.T) {
	node := nodetest.New(t, map[string]nodetest.Handler{"eth_chainId": nodetest.Constant("0x539")})
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	p, err := Discover(context.Background(), DiscoveryConfig{
		URLs:       []string{node.URL},
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	})
	require.NoError(t, err)
	defer p.Close()

	accs, err := p.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{crypto.PubkeyToAddress(key.PublicKey)}, accs)
	assert.Equal(t, 0, node.CallCount("eth_accounts"))
}

func TestRequestAccounts_FallsBackToAccounts(t *testing.T) {
	node := nodetest.New(t, map[string]nodetest.Handler{"eth_accounts": nodetest.Constant([]string{accountA})})
	p, err := Dial(context.Background(), node.URL, Options{})
	require.NoError(t, err)
	defer p.Close()

	accs, err := p.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress(accountA)}, accs)
	assert.Equal(t, 1, node.CallCount("eth_requestAccounts"))
}

func TestRequestAccounts_Rejected(t *testing.T) {
	node := nodetest.New(t, map[string]nodetest.Handler{
		"eth_requestAccounts": func([]json.RawMessage) (interface{}, *nodetest.Failure) {
			return nil, &nodetest.Failure{Code: 4001, Message: "User rejected the request."}
		},
	})
	p, err := Dial(context.Background(), node.URL, Options{})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.RequestAccounts(context.Background())
	assert.ErrorContains(t, err, "rejected")
	assert.Equal(t, 0, node.CallCount("eth_accounts"))
}

func TestSendTransaction_NodeSigned(t *testing.T) {
	var got struct {
		From  common.Address `json:"from"`
		To    common.Address `json:"to"`
		Value *hexutil.Big   `json:"value"`
		Data  hexutil.Bytes  `json:"data"`
	}
	txHash := common.HexToHash("0xabc")
	node := nodetest.New(t, map[string]nodetest.Handler{
		"eth_sendTransaction": func(params []json.RawMessage) (interface{}, *nodetest.Failure) {
			_ = json.Unmarshal(params[0], &got)
			return txHash.Hex(), nil
		},
	})
	p, err := Dial(context.Background(), node.URL, Options{RateLimit: 100, Burst: 1})
	require.NoError(t, err)
	defer p.Close()

	value := big.NewInt(1_000_000_000_000_000_000)
	hash, err := p.SendTransaction(context.Background(), TxRequest{
		From:  common.HexToAddress(accountA),
		To:    common.HexToAddress(faucet),
		Value: value,
		Data:  []byte{0xa2, 0x6e, 0x11, 0x86},
	})
	require.NoError(t, err)
	assert.Equal(t, txHash, hash)
	assert.Equal(t, common.HexToAddress(accountA), got.From)
	assert.Equal(t, common.HexToAddress(faucet), got.To)
	assert.Equal(t, value, got.Value.ToInt())
	assert.Equal(t, hexutil.Bytes{0xa2, 0x6e, 0x11, 0x86}, got.Data)
}

func TestKeyedProvider_SignsLocally(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := crypto.PubkeyToAddress(key.PublicKey)

	var raw *types.Transaction
	node := nodetest.New(t, map[string]nodetest.Handler{
		"eth_chainId":             nodetest.Constant("0x539"),
		"eth_getTransactionCount": nodetest.Constant("0x7"),
		"eth_gasPrice":            nodetest.Constant("0x3b9aca00"),
		"eth_estimateGas":         nodetest.Constant("0x5208"),
		"eth_sendRawTransaction": func(params []json.RawMessage) (interface{}, *nodetest.Failure) {
			var encoded string
			_ = json.Unmarshal(params[0], &encoded)
			data, _ := hexutil.Decode(encoded)
			raw = new(types.Transaction)
			if err := raw.UnmarshalBinary(data); err != nil {
				return nil, &nodetest.Failure{Code: -32000, Message: err.Error()}
			}
			return raw.Hash().Hex(), nil
		},
	})
	rp, err := Dial(context.Background(), node.URL, Options{})
	require.NoError(t, err)
	kp, err := NewKeyedProvider(rp, hexutil.Encode(crypto.FromECDSA(key)))
	require.NoError(t, err)
	defer kp.Close()

	hash, err := kp.SendTransaction(context.Background(), TxRequest{
		From:  sender,
		To:    common.HexToAddress(faucet),
		Value: big.NewInt(42),
	})
	require.NoError(t, err)
	require.NotNil(t, raw)

	assert.Equal(t, raw.Hash(), hash)
	assert.Equal(t, uint64(7), raw.Nonce())
	assert.Equal(t, uint64(21000), raw.Gas())
	assert.Equal(t, int64(42), raw.Value().Int64())
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1337)), raw)
	require.NoError(t, err)
	assert.Equal(t, sender, from)
}

func TestKeyedProvider_RejectsForeignSender(t *testing.T) {
	node := nodetest.New(t, nil)
	rp, err := Dial(context.Background(), node.URL, Options{})
	require.NoError(t, err)
	key, _ := crypto.GenerateKey()
	kp, err := NewKeyedProvider(rp, hexutil.Encode(crypto.FromECDSA(key)))
	require.NoError(t, err)
	defer kp.Close()

	_, err = kp.SendTransaction(context.Background(), TxRequest{From: common.HexToAddress(accountA)})
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestNewKeyedProvider_BadKey(t *testing.T) {
	node := nodetest.New(t, nil)
	rp, err := Dial(context.Background(), node.URL, Options{})
	require.NoError(t, err)
	defer rp.Close()

	_, err = NewKeyedProvider(rp, "0xnothex")
	assert.Error(t, err)
}
