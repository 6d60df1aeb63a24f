// Package session reconciles provider availability, the active account and
// the contract balance into one State, and dispatches the user actions.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"ethfaucet/pkg/contract"
	"ethfaucet/pkg/metrics"
	"ethfaucet/pkg/provider"
	"ethfaucet/pkg/unit"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config wires a session to its collaborators.
type Config struct {
	Discovery    provider.DiscoveryConfig
	Resolver     contract.Resolver
	ContractName string
	Methods      contract.Methods

	DepositAmount  *big.Int
	WithdrawAmount *big.Int

	// ConfirmTransactions makes an action succeed only once its receipt is
	// mined with success status. Otherwise acceptance by the provider is
	// enough.
	ConfirmTransactions bool
	ReceiptPollInterval time.Duration
	EventPollInterval   time.Duration
}

// DiscoverFunc locates the wallet provider.
type DiscoverFunc func(ctx context.Context, cfg provider.DiscoveryConfig) (provider.Provider, error)

// WatchFunc subscribes to provider notifications.
type WatchFunc func(ctx context.Context, p provider.Provider, interval time.Duration) <-chan provider.Event

// Session owns the client state for one run.
type Session struct {
	cfg      Config
	log      *zap.Logger
	metrics  *metrics.Metrics
	discover DiscoverFunc
	watch    WatchFunc

	mu       sync.RWMutex
	state    State
	provider provider.Provider
	contract *contract.Handle
	// epoch changes whenever the contract binding or the account changes, so
	// balance reads started before the change can be discarded.
	epoch    uint64
	inflight int
	started  bool
	cancel   context.CancelFunc

	refresh     chan struct{}
	reads       singleflight.Group
	subscribers []Subscriber
}

// New creates a session. log and m may be nil.
func New(cfg Config, log *zap.Logger, m *metrics.Metrics) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.DepositAmount == nil {
		cfg.DepositAmount, _ = unit.ToWei("1")
	}
	if cfg.WithdrawAmount == nil {
		cfg.WithdrawAmount, _ = unit.ToWei("0.1")
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = time.Second
	}
	if cfg.EventPollInterval <= 0 {
		cfg.EventPollInterval = 2 * time.Second
	}
	return &Session{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		discover: provider.Discover,
		watch:    provider.Watch,
		refresh:  make(chan struct{}, 1),
	}
}

// SetDiscover overrides provider discovery (useful for testing).
func (s *Session) SetDiscover(fn DiscoverFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discover = fn
}

// SetWatch overrides the provider notification source (useful for testing).
func (s *Session) SetWatch(fn WatchFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watch = fn
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (s *Session) Subscribe() Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(Subscriber, 100)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (s *Session) Unsubscribe(ch Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (s *Session) notify(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscribers {
		select {
		case sub <- event:
		default:
			s.log.Debug("dropping event for slow subscriber", zap.String("type", string(event.Type)))
		}
	}
}

// update applies fn under the lock and broadcasts the resulting state. fn
// may also touch the unexported session fields guarded by mu.
func (s *Session) update(t EventType, fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	s.mu.Unlock()
	s.notify(Event{Type: t, State: snapshot})
}

// Start runs discovery, binds the contract, reads the account and the
// balance, then keeps the state in sync with provider notifications until
// ctx ends or Close is called. It returns ErrNoProvider when no wallet is
// found; the state then reads detected=false, ready=true and nothing else
// is ever queried. Any other discovery failure is returned as is and kept
// in ProviderErr.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	discover, watch := s.discover, s.watch
	s.mu.Unlock()

	p, err := discover(ctx, s.cfg.Discovery)
	if err != nil {
		notInstalled := errors.Is(err, provider.ErrNotInstalled)
		if notInstalled {
			s.log.Warn("no wallet provider detected", zap.Error(err))
		} else {
			s.log.Error("wallet provider discovery failed", zap.Error(err))
		}
		s.update(EventProviderUpdated, func(st *State) {
			st.ProviderDetected = false
			st.ProviderReady = true
			if !notInstalled {
				st.ProviderErr = err.Error()
			}
		})
		if notInstalled {
			return ErrNoProvider
		}
		return fmt.Errorf("discovering provider: %w", err)
	}

	s.log.Info("wallet provider detected", zap.String("url", p.URL()))
	s.update(EventProviderUpdated, func(st *State) {
		s.provider = p
		st.ProviderDetected = true
		st.ProviderURL = p.URL()
	})

	s.bindContract(ctx, p)
	s.update(EventProviderUpdated, func(st *State) { st.ProviderReady = true })
	s.syncAccount(ctx, p)

	events := watch(ctx, p, s.cfg.EventPollInterval)
	go s.eventLoop(ctx, p, events)
	go s.refreshLoop(ctx)
	s.requestRefresh()
	return nil
}

// Close stops the background loops and releases the provider.
func (s *Session) Close() {
	s.mu.Lock()
	cancel, p := s.cancel, s.provider
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if p != nil {
		p.Close()
	}
}

func (s *Session) bindContract(ctx context.Context, p provider.Provider) {
	var chainID string
	if id, err := p.ChainID(ctx); err == nil {
		chainID = id.String()
	} else {
		s.log.Warn("reading chain id", zap.Error(err))
	}

	var (
		h   *contract.Handle
		err error
	)
	if s.cfg.Resolver == nil {
		err = fmt.Errorf("%w: no artifact resolver configured", contract.ErrUnresolved)
	} else {
		h, err = contract.Bind(ctx, p, s.cfg.Resolver, s.cfg.ContractName, s.cfg.Methods)
	}
	if err != nil {
		s.log.Warn("binding contract", zap.String("name", s.cfg.ContractName), zap.Error(err))
	} else {
		s.log.Info("contract bound", zap.String("name", h.Name()), zap.String("address", h.Address().Hex()))
	}

	s.update(EventContractUpdated, func(st *State) {
		s.contract = h
		s.epoch++
		st.ChainID = chainID
		st.ContractBound = h != nil
		st.ContractAddress = ""
		st.ContractErr = ""
		if h != nil {
			st.ContractAddress = h.Address().Hex()
		} else {
			st.ContractErr = err.Error()
		}
		st.Balance = ""
		st.BalanceStale = false
		st.BalanceErr = ""
	})
}

// syncAccount is the account tracker: the first listed account is active.
// A read failure is logged and treated as no account.
func (s *Session) syncAccount(ctx context.Context, p provider.Provider) bool {
	accounts, err := p.Accounts(ctx)
	if err != nil {
		s.log.Warn("reading accounts", zap.Error(err))
	}
	return s.setAccount(accounts)
}

func (s *Session) setAccount(accounts []common.Address) bool {
	account := ""
	if len(accounts) > 0 {
		account = accounts[0].Hex()
	}
	changed := false
	s.update(EventAccountUpdated, func(st *State) {
		if st.Account != account {
			changed = true
			s.epoch++
		}
		st.Account = account
	})
	if changed {
		s.log.Info("active account changed", zap.String("account", account))
	}
	return changed
}

// Connect asks the provider to authorize an account.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.RLock()
	p := s.provider
	s.mu.RUnlock()
	if p == nil {
		return ErrNoProvider
	}

	accounts, err := p.RequestAccounts(ctx)
	if err != nil {
		return fmt.Errorf("requesting accounts: %w", err)
	}
	if s.setAccount(accounts) {
		s.requestRefresh()
	}
	if len(accounts) == 0 {
		return ErrNoAccount
	}
	return nil
}

func (s *Session) eventLoop(ctx context.Context, p provider.Provider, events <-chan provider.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.metrics.RecordProviderEvent(string(ev.Type))
			s.log.Info("provider event", zap.String("type", string(ev.Type)))

			switch ev.Type {
			case provider.EventAccountsChanged:
				s.setAccount(ev.Accounts)
			case provider.EventChainChanged:
				s.bindContract(ctx, p)
				s.syncAccount(ctx, p)
			}
			s.requestRefresh()
		}
	}
}
