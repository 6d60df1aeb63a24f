package models

import "time"

// BalancePoint holds a timestamped contract balance in ether.
type BalancePoint struct {
	Timestamp time.Time
	Value     float64
}

// ProviderResult holds check results for a specific provider URL.
type ProviderResult struct {
	URL       string `json:"url"`
	Status    string `json:"status"` // "ok" or "error"
	ChainID   int64  `json:"chain_id,omitempty"`
	NetworkID string `json:"network_id,omitempty"`
	Accounts  int    `json:"accounts"`
	Error     string `json:"error,omitempty"`
}

// ContractResult holds the binding check for the configured contract on the
// first answering provider.
type ContractResult struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Bound   bool   `json:"bound"`
	Balance string `json:"balance,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CheckReport holds the results of the configuration check.
type CheckReport struct {
	ConfigPath      string           `json:"config_path"`
	ValidStructure  bool             `json:"valid_structure"`
	StructureErrors []string         `json:"structure_errors,omitempty"`
	ProviderCount   int              `json:"provider_count"`
	Providers       []ProviderResult `json:"providers,omitempty"`
	ConfigChainID   int64            `json:"config_chain_id"`
	ObservedChainID int64            `json:"observed_chain_id,omitempty"`
	Inconsistent    bool             `json:"inconsistent"`
	ChainIDUpdated  bool             `json:"chain_id_updated"`
	Contract        *ContractResult  `json:"contract,omitempty"`
	ConfigUpdated   bool             `json:"config_updated"`
	SaveError       string           `json:"save_error,omitempty"`
	DryRun          bool             `json:"dry_run"`
}
