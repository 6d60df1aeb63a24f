package session

import "errors"

var (
	// ErrNoProvider is terminal for the session: the user must install a
	// wallet and start again.
	ErrNoProvider = errors.New("wallet provider not installed")
	// ErrNoAccount means the provider authorized no account.
	ErrNoAccount = errors.New("no account authorized")
	// ErrCannotAct is returned by actions when there is no account or no
	// bound contract.
	ErrCannotAct = errors.New("connect an account and contract first")
	// ErrReverted means the transaction was mined but failed.
	ErrReverted = errors.New("transaction reverted")
	// ErrStarted is returned by a second call to Start.
	ErrStarted = errors.New("session already started")
)
