package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// methodNotFound is the JSON-RPC code nodes use for unsupported methods.
const methodNotFound = -32601

// Options tune every provider call.
type Options struct {
	CallTimeout time.Duration
	RateLimit   float64 // calls per second, 0 disables limiting
	Burst       int
}

// RPCProvider is a Provider backed by a node that manages unlocked accounts.
type RPCProvider struct {
	url     string
	rpc     *rpc.Client
	eth     *ethclient.Client
	limiter *rate.Limiter
	timeout time.Duration
}

type sendTxArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

// Dial connects to url. For HTTP endpoints no request is made until the
// first call.
func Dial(ctx context.Context, url string, opts Options) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	p := &RPCProvider{
		url:     url,
		rpc:     client,
		eth:     ethclient.NewClient(client),
		timeout: opts.CallTimeout,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return p, nil
}

func (p *RPCProvider) URL() string { return p.url }

func (p *RPCProvider) Close() { p.rpc.Close() }

// begin waits for the rate limiter and applies the call timeout.
func (p *RPCProvider) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}
	if p.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		return ctx, cancel, nil
	}
	return ctx, func() {}, nil
}

func (p *RPCProvider) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return p.eth.ChainID(ctx)
}

func (p *RPCProvider) NetworkID(ctx context.Context) (*big.Int, error) {
	ctx, cancel, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return p.eth.NetworkID(ctx)
}

func (p *RPCProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	ctx, cancel, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	var accounts []common.Address
	if err := p.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// RequestAccounts asks the wallet to authorize accounts. Plain nodes do not
// implement eth_requestAccounts; for them the unlocked account list is the
// authorization.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	rctx, cancel, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	var accounts []common.Address
	err = p.rpc.CallContext(rctx, &accounts, "eth_requestAccounts")
	cancel()
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == methodNotFound {
		return p.Accounts(ctx)
	}
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *RPCProvider) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	ctx, cancel, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return p.eth.BalanceAt(ctx, account, nil)
}

func (p *RPCProvider) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	ctx, cancel, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return p.eth.CodeAt(ctx, account, nil)
}

// SendTransaction submits req through eth_sendTransaction; the node signs.
func (p *RPCProvider) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	ctx, cancel, err := p.begin(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	defer cancel()

	to := req.To
	args := sendTxArgs{From: req.From, To: &to, Data: req.Data}
	if req.Value != nil {
		args.Value = (*hexutil.Big)(req.Value)
	}
	var hash common.Hash
	if err := p.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// TransactionReceipt returns ethereum.NotFound while the transaction is pending.
func (p *RPCProvider) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel, err := p.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return p.eth.TransactionReceipt(ctx, hash)
}
