package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"ethfaucet/pkg/contract"
	"ethfaucet/pkg/provider"
	"ethfaucet/pkg/unit"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

type submitFunc func(h *contract.Handle, ctx context.Context, from common.Address, amount *big.Int) (common.Hash, error)

// Deposit sends the configured deposit amount to the contract from the
// active account. On success the reload signal flips once.
func (s *Session) Deposit(ctx context.Context) (ActionResult, error) {
	return s.dispatch(ctx, ActionDeposit, s.cfg.DepositAmount, (*contract.Handle).Deposit)
}

// Withdraw asks the contract for the configured withdraw amount. On success
// the reload signal flips once.
func (s *Session) Withdraw(ctx context.Context) (ActionResult, error) {
	return s.dispatch(ctx, ActionWithdraw, s.cfg.WithdrawAmount, (*contract.Handle).Withdraw)
}

func (s *Session) dispatch(ctx context.Context, kind ActionKind, amount *big.Int, submit submitFunc) (ActionResult, error) {
	s.mu.RLock()
	st, h, p := s.state, s.contract, s.provider
	s.mu.RUnlock()

	res := ActionResult{Kind: kind, Amount: unit.FromWei(amount), From: st.Account}
	if !st.CanAct() || h == nil {
		return s.finish(res, ErrCannotAct, false)
	}

	s.update(EventActionStarted, func(st *State) {
		s.inflight++
		st.Pending = kind
	})

	hash, err := submit(h, ctx, common.HexToAddress(st.Account), amount)
	if err == nil {
		res.TxHash = hash.Hex()
		s.log.Info("transaction submitted", zap.String("kind", string(kind)), zap.String("tx", res.TxHash))
		if s.cfg.ConfirmTransactions {
			err = s.waitMined(ctx, p, hash)
		}
	}

	res, err = s.finish(res, err, true)
	if err == nil {
		s.Reload()
	}
	return res, err
}

func (s *Session) finish(res ActionResult, err error, started bool) (ActionResult, error) {
	res.At = time.Now()
	if err != nil {
		err = fmt.Errorf("%s: %w", res.Kind, err)
		res.Err = err.Error()
		s.log.Warn("action failed", zap.String("kind", string(res.Kind)), zap.Error(err))
	} else {
		s.log.Info("action completed", zap.String("kind", string(res.Kind)), zap.String("tx", res.TxHash))
	}
	s.metrics.RecordAction(string(res.Kind), err)

	recorded := res
	s.update(EventActionCompleted, func(st *State) {
		if started {
			s.inflight--
		}
		if s.inflight == 0 {
			st.Pending = ""
		}
		st.LastAction = &recorded
	})
	return res, err
}

// waitMined polls for the receipt of hash until it is mined or ctx ends.
func (s *Session) waitMined(ctx context.Context, p provider.Provider, hash common.Hash) error {
	ticker := time.NewTicker(s.cfg.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return fmt.Errorf("%w: %s", ErrReverted, hash.Hex())
			}
			return nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return fmt.Errorf("waiting for receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
