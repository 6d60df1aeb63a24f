package session

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"ethfaucet/pkg/contract"
	"ethfaucet/pkg/unit"

	"go.uber.org/zap"
)

// Reload flips the reload signal, which schedules a balance refresh. Flips
// made while a read is in flight collapse into a single follow-up read.
func (s *Session) Reload() {
	s.update(EventReloadRequested, func(st *State) { st.Reload = !st.Reload })
	s.requestRefresh()
}

func (s *Session) requestRefresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

func (s *Session) refreshLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.refresh:
			s.refreshBalance(ctx)
		}
	}
}

// refreshBalance is the balance reader. It always re-reads in full; a result
// whose binding or account changed while in flight is dropped.
func (s *Session) refreshBalance(ctx context.Context) {
	var (
		h     *contract.Handle
		epoch uint64
	)
	s.update(EventBalanceUpdated, func(st *State) {
		h, epoch = s.contract, s.epoch
		st.Refreshing = h != nil
	})
	if h == nil {
		return
	}

	start := time.Now()
	raw, err := s.readBalance(ctx, h)
	s.metrics.RecordBalanceRead(time.Since(start), err)
	if err != nil {
		s.log.Warn("reading balance", zap.String("contract", h.Address().Hex()), zap.Error(err))
	}

	s.update(EventBalanceUpdated, func(st *State) {
		st.Refreshing = false
		if s.epoch != epoch {
			return
		}
		if err != nil {
			st.BalanceErr = err.Error()
			st.BalanceStale = st.Balance != ""
			return
		}
		st.Balance = unit.FromWei(raw)
		st.BalanceStale = false
		st.BalanceErr = ""
	})
}

// readBalance shares one provider call among concurrent readers of the same
// binding. The shared call is not tied to any one reader's ctx; each reader
// stops waiting when its own ctx ends.
func (s *Session) readBalance(ctx context.Context, h *contract.Handle) (*big.Int, error) {
	key := fmt.Sprintf("%p/%s", h, h.Address().Hex())
	ch := s.reads.DoChan(key, func() (interface{}, error) {
		return h.Balance(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*big.Int), nil
	}
}

// ReadBalance reads the contract balance directly without touching the state.
func (s *Session) ReadBalance(ctx context.Context) (*big.Int, error) {
	s.mu.RLock()
	h := s.contract
	s.mu.RUnlock()
	if h == nil {
		return nil, contract.ErrUnresolved
	}
	return s.readBalance(ctx, h)
}
