package provider

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DiscoveryConfig lists where to look for a provider.
type DiscoveryConfig struct {
	URLs       []string
	PrivateKey string
	Options    Options
}

type probeResult struct {
	provider *RPCProvider
	chainID  *big.Int
	err      error
}

// Discover probes every candidate URL concurrently and returns the first one,
// in configured order, that answers eth_chainId. The others are closed.
// ErrNotInstalled is returned when nothing answers.
func Discover(ctx context.Context, cfg DiscoveryConfig) (Provider, error) {
	urls := uniqueURLs(cfg.URLs)
	if len(urls) == 0 {
		return nil, ErrNotInstalled
	}

	results := make([]probeResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		g.Go(func() error {
			p, err := Dial(gctx, url, cfg.Options)
			if err != nil {
				results[i].err = err
				return nil
			}
			id, err := p.ChainID(gctx)
			if err != nil {
				p.Close()
				results[i].err = err
				return nil
			}
			results[i] = probeResult{provider: p, chainID: id}
			return nil
		})
	}
	_ = g.Wait()

	var found *RPCProvider
	for _, r := range results {
		if r.provider == nil {
			continue
		}
		if found == nil {
			found = r.provider
			continue
		}
		r.provider.Close()
	}
	if found == nil {
		return nil, ErrNotInstalled
	}

	if cfg.PrivateKey == "" {
		return found, nil
	}
	keyed, err := NewKeyedProvider(found, cfg.PrivateKey)
	if err != nil {
		found.Close()
		return nil, fmt.Errorf("wrapping provider %s: %w", found.URL(), err)
	}
	return keyed, nil
}

func uniqueURLs(urls []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
