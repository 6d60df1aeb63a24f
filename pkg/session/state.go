package session

import "time"

// ActionKind names a user action.
type ActionKind string

const (
	ActionDeposit  ActionKind = "deposit"
	ActionWithdraw ActionKind = "withdraw"
)

// ActionResult is the outcome of a deposit or withdraw.
type ActionResult struct {
	Kind   ActionKind `json:"kind"`
	Amount string     `json:"amount"`
	From   string     `json:"from,omitempty"`
	TxHash string     `json:"tx_hash,omitempty"`
	Err    string     `json:"error,omitempty"`
	At     time.Time  `json:"at"`
}

// OK reports whether the action succeeded.
func (r ActionResult) OK() bool { return r.Err == "" }

// State is the reconciled view shown to the user. Each field has one writer:
// discovery owns the Provider* fields, the binder owns Contract* and ChainID,
// the account tracker owns Account, the balance reader owns Balance* and
// Refreshing, and the dispatcher owns Pending and LastAction.
type State struct {
	ProviderDetected bool   `json:"provider_detected"`
	ProviderReady    bool   `json:"provider_ready"`
	ProviderURL      string `json:"provider_url,omitempty"`
	// ProviderErr is set when discovery failed for a reason other than no
	// wallet answering, such as an unusable private key.
	ProviderErr string `json:"provider_error,omitempty"`
	ChainID     string `json:"chain_id,omitempty"`

	// Account is empty when no account is authorized.
	Account string `json:"account,omitempty"`

	ContractBound   bool   `json:"contract_bound"`
	ContractAddress string `json:"contract_address,omitempty"`
	ContractErr     string `json:"contract_error,omitempty"`

	// Balance is empty until the first successful read. After a failed read
	// it keeps the last value with BalanceStale set.
	Balance      string `json:"balance,omitempty"`
	BalanceStale bool   `json:"balance_stale"`
	BalanceErr   string `json:"balance_error,omitempty"`
	Refreshing   bool   `json:"refreshing"`

	Reload bool `json:"reload"`

	Pending    ActionKind    `json:"pending,omitempty"`
	LastAction *ActionResult `json:"last_action,omitempty"`
}

// HasAccount reports whether an account is authorized. It is only
// meaningful once the provider is ready.
func (s State) HasAccount() bool {
	return s.ProviderReady && s.Account != ""
}

// CanAct gates deposit and withdraw.
func (s State) CanAct() bool {
	return s.HasAccount() && s.ContractBound
}
