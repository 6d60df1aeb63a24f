package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ethfaucet/pkg/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	state     session.State
	sub       session.Subscriber
	deposits  int
	withdraws int
	reloads   int
	connects  int
	actionErr error
}

func newFake(st session.State) *fakeController {
	return &fakeController{state: st, sub: make(session.Subscriber, 10)}
}

func (f *fakeController) Start(ctx context.Context) error { return nil }
func (f *fakeController) State() session.State            { return f.state }
func (f *fakeController) Subscribe() session.Subscriber   { return f.sub }
func (f *fakeController) Reload()                         { f.reloads++ }

func (f *fakeController) Connect(ctx context.Context) error {
	f.connects++
	return nil
}

func (f *fakeController) Deposit(ctx context.Context) (session.ActionResult, error) {
	f.deposits++
	return session.ActionResult{Kind: session.ActionDeposit, Amount: "1", TxHash: "0xd0"}, f.actionErr
}

func (f *fakeController) Withdraw(ctx context.Context) (session.ActionResult, error) {
	f.withdraws++
	return session.ActionResult{Kind: session.ActionWithdraw, Amount: "0.1"}, f.actionErr
}

var (
	account    = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	readyState = session.State{
		ProviderDetected: true,
		ProviderReady:    true,
		ProviderURL:      "http://127.0.0.1:7545",
		Account:          account,
		ContractBound:    true,
		ContractAddress:  "0x1234567890123456789012345678901234567890",
		Balance:          "2.5",
	}
)

func newModel(st session.State) (model, *fakeController) {
	f := newFake(st)
	m := initialModel(context.Background(), f, Options{
		ContractName:   "Faucet",
		DepositAmount:  "1",
		WithdrawAmount: "0.1",
		HistorySize:    3,
	})
	m.width, m.height = 120, 40
	return m, f
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m model, msg tea.Msg) model {
	next, _ := m.Update(msg)
	return next.(model)
}

func TestView_ProviderPromptsAreExclusive(t *testing.T) {
	tests := []struct {
		name    string
		state   session.State
		want    string
		notWant []string
	}{
		{
			name:    "looking",
			state:   session.State{},
			want:    "Looking for wallet provider",
			notWant: []string{"Install", "c Connect", account},
		},
		{
			name:    "not installed",
			state:   session.State{ProviderReady: true},
			want:    "Wallet is not detected",
			notWant: []string{"c Connect", account, "Looking"},
		},
		{
			name:    "discovery failed",
			state:   session.State{ProviderReady: true, ProviderErr: "bad key"},
			want:    "Wallet provider unusable",
			notWant: []string{"Install", "c Connect", "Looking"},
		},
		{
			name:    "connect prompt",
			state:   session.State{ProviderReady: true, ProviderDetected: true},
			want:    "c Connect",
			notWant: []string{"not detected", account, "Looking"},
		},
		{
			name:    "account",
			state:   readyState,
			want:    account,
			notWant: []string{"not detected", "c Connect", "Looking"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newModel(tt.state)
			view := m.View()
			assert.Contains(t, view, tt.want)
			for _, s := range tt.notWant {
				assert.NotContains(t, view, s)
			}
		})
	}
}

func TestView_BalanceAndButtons(t *testing.T) {
	m, _ := newModel(readyState)
	view := m.View()
	assert.Contains(t, view, "2.5 ETH")
	assert.Contains(t, view, "Donate 1 ETH")
	assert.Contains(t, view, "Withdraw 0.1 ETH")
	assert.NotContains(t, view, "Connect to the faucet contract")

	st := readyState
	st.Account = ""
	m, _ = newModel(st)
	assert.Contains(t, m.View(), "Connect to the faucet contract")

	st = readyState
	st.BalanceStale = true
	st.BalanceErr = "node unreachable"
	m, _ = newModel(st)
	assert.Contains(t, m.View(), "(stale)")
	assert.Contains(t, m.View(), "node unreachable")
}

func TestView_PrivacyMode(t *testing.T) {
	m, _ := newModel(readyState)
	m = update(m, key("P"))
	view := m.View()
	assert.NotContains(t, view, account)
	assert.NotContains(t, view, "2.5 ETH")
}

func TestUpdate_SessionEventReplacesState(t *testing.T) {
	m, _ := newModel(session.State{})
	m = update(m, session.Event{Type: session.EventProviderUpdated, State: readyState})
	assert.Equal(t, readyState, m.state)
}

func TestAct_DisabledWithoutAccount(t *testing.T) {
	st := readyState
	st.Account = ""
	m, f := newModel(st)

	m = update(m, key("d"))
	m = update(m, key("w"))
	assert.Equal(t, 0, f.deposits)
	assert.Equal(t, 0, f.withdraws)
	assert.Contains(t, m.statusMessage, "Connect to the faucet contract")
	assert.True(t, m.statusIsErr)
}

func TestAct_DispatchesWhenEnabled(t *testing.T) {
	m, f := newModel(readyState)

	cmd := m.act(f.Deposit)
	require.NotNil(t, cmd)
	msg, ok := cmd().(actionMsg)
	require.True(t, ok)
	assert.Equal(t, 1, f.deposits)
	assert.NoError(t, msg.err)

	m = update(m, msg)
	assert.Contains(t, m.statusMessage, "Deposit of 1 ETH succeeded")
	assert.False(t, m.statusIsErr)
}

func TestAct_SkipsWhilePending(t *testing.T) {
	st := readyState
	st.Pending = session.ActionDeposit
	m, f := newModel(st)

	assert.Nil(t, m.act(f.Withdraw))
	assert.Equal(t, 0, f.withdraws)
}

func TestActionStatus(t *testing.T) {
	res := session.ActionResult{Kind: session.ActionWithdraw, Amount: "0.1", TxHash: "0xe0"}

	text, isErr := actionStatus(res, nil)
	assert.Equal(t, "Withdraw of 0.1 ETH succeeded: 0xe0", text)
	assert.False(t, isErr)

	text, isErr = actionStatus(res, fmt.Errorf("withdraw: %w", session.ErrReverted))
	assert.Equal(t, "Withdraw reverted by the contract", text)
	assert.True(t, isErr)

	text, _ = actionStatus(res, fmt.Errorf("withdraw: %w", session.ErrCannotAct))
	assert.Contains(t, text, "Connect an account")

	text, _ = actionStatus(session.ActionResult{Kind: session.ActionDeposit}, errors.New("denied"))
	assert.Equal(t, "Deposit failed: denied", text)
}

func TestKeys_ReloadAndConnect(t *testing.T) {
	m, f := newModel(readyState)
	update(m, key("r"))
	assert.Equal(t, 1, f.reloads)

	st := session.State{ProviderReady: true, ProviderDetected: true}
	m, f = newModel(st)
	_, cmd := m.Update(key("c"))
	require.NotNil(t, cmd)
	assert.Equal(t, 0, f.connects, "connect runs as a command")

	m, f = newModel(readyState)
	m = update(m, key("c"))
	assert.Empty(t, m.statusMessage, "connect is hidden once an account exists")
}

func TestKeys_HelpAndGraph(t *testing.T) {
	m, _ := newModel(readyState)

	m = update(m, key("?"))
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	m = update(m, key("?"))
	assert.False(t, m.showHelp)

	m = update(m, key("g"))
	assert.True(t, m.showGraph)
	assert.Contains(t, m.View(), "Not enough data to draw graph.")
	m = update(m, key("q"))
	assert.False(t, m.showGraph)
}

func TestRecordBalance(t *testing.T) {
	m, _ := newModel(readyState)
	now := time.Now()

	for i, bal := range []string{"1", "1", "2", "3", "4"} {
		st := readyState
		st.Balance = bal
		m.recordBalance(st, now.Add(time.Duration(i)*time.Second))
	}
	assert.Equal(t, []float64{2, 3, 4}, m.historyValues())

	stale := readyState
	stale.Balance = "9"
	stale.BalanceStale = true
	m.recordBalance(stale, now)
	refreshing := readyState
	refreshing.Balance = "9"
	refreshing.Refreshing = true
	m.recordBalance(refreshing, now)
	assert.Equal(t, []float64{2, 3, 4}, m.historyValues())

	m = update(m, session.Event{Type: session.EventContractUpdated, State: readyState})
	assert.Empty(t, m.history)
}

func TestUpdate_BalanceEventsFeedGraph(t *testing.T) {
	m, _ := newModel(readyState)
	for _, bal := range []string{"1", "1.5"} {
		st := readyState
		st.Balance = bal
		m = update(m, session.Event{Type: session.EventBalanceUpdated, State: st})
	}
	assert.Equal(t, []float64{1, 1.5}, m.historyValues())

	m = update(m, key("g"))
	assert.Contains(t, m.View(), "Faucet balance (ETH)")
}
