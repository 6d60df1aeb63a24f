package session

// EventType names what changed in the session state.
type EventType string

const (
	EventProviderUpdated EventType = "provider_updated"
	EventContractUpdated EventType = "contract_updated"
	EventAccountUpdated  EventType = "account_updated"
	EventBalanceUpdated  EventType = "balance_updated"
	EventReloadRequested EventType = "reload_requested"
	EventActionStarted   EventType = "action_started"
	EventActionCompleted EventType = "action_completed"
)

// Event carries a snapshot of the state right after the change.
type Event struct {
	Type  EventType `json:"type"`
	State State     `json:"state"`
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
