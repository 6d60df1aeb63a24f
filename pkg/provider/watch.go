package provider

import (
	"context"
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType names a provider notification.
type EventType string

const (
	EventAccountsChanged EventType = "accountsChanged"
	EventChainChanged    EventType = "chainChanged"
)

// Event is a change observed on the provider.
type Event struct {
	Type     EventType
	Accounts []common.Address
	ChainID  *big.Int
}

// Watch polls p for account and chain changes and reports them on the
// returned channel, which is closed when ctx ends. The first successful read
// of each value only seeds the comparison. Failed reads are skipped.
func Watch(ctx context.Context, p Provider, interval time.Duration) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)

		var (
			accounts      []common.Address
			chainID       *big.Int
			seededAccount bool
		)

		emit := func(ev Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if id, err := p.ChainID(ctx); err == nil {
				if chainID != nil && chainID.Cmp(id) != 0 {
					if !emit(Event{Type: EventChainChanged, ChainID: id}) {
						return
					}
				}
				chainID = id
			}
			if accs, err := p.Accounts(ctx); err == nil {
				if seededAccount && !slices.Equal(accs, accounts) {
					if !emit(Event{Type: EventAccountsChanged, Accounts: accs}) {
						return
					}
				}
				accounts, seededAccount = accs, true
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
