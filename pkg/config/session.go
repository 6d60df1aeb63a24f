package config

import (
	"fmt"
	"time"

	"ethfaucet/pkg/contract"
	"ethfaucet/pkg/provider"
	"ethfaucet/pkg/session"
	"ethfaucet/pkg/unit"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Discovery returns the provider discovery settings of cfg.
func (c Config) Discovery() provider.DiscoveryConfig {
	return provider.DiscoveryConfig{
		URLs:       c.ProviderURLs,
		PrivateKey: c.PrivateKey,
		Options: provider.Options{
			CallTimeout: seconds(c.RPCTimeoutSeconds),
			RateLimit:   c.RPCRateLimit,
			Burst:       c.RPCBurst,
		},
	}
}

// Resolver returns the artifact resolver for cfg.ArtifactsDir.
func (c Config) Resolver() *contract.ArtifactResolver {
	ttl := seconds(c.ArtifactCacheSeconds)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return contract.NewArtifactResolver(c.ArtifactsDir, ttl)
}

// Session builds the session configuration, rejecting malformed amounts.
func (c Config) Session() (session.Config, error) {
	deposit, err := unit.ToWei(c.DepositAmount)
	if err != nil {
		return session.Config{}, fmt.Errorf("deposit_amount: %w", err)
	}
	withdraw, err := unit.ToWei(c.WithdrawAmount)
	if err != nil {
		return session.Config{}, fmt.Errorf("withdraw_amount: %w", err)
	}
	return session.Config{
		Discovery:    c.Discovery(),
		Resolver:     c.Resolver(),
		ContractName: c.ContractName,
		Methods: contract.Methods{
			Deposit:  c.DepositMethod,
			Withdraw: c.WithdrawMethod,
		},
		DepositAmount:       deposit,
		WithdrawAmount:      withdraw,
		ConfirmTransactions: c.ConfirmTransactions,
		ReceiptPollInterval: seconds(c.ReceiptPollSeconds),
		EventPollInterval:   seconds(c.EventPollSeconds),
	}, nil
}
