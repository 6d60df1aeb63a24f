package tui

import (
	"context"
	"errors"
	"time"

	"ethfaucet/pkg/models"
	"ethfaucet/pkg/session"
	"ethfaucet/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
)

func listenForSession(sub session.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}

func startSession(ctx context.Context, c Controller) tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: c.Start(ctx)}
	}
}

func connectCmd(ctx context.Context, c Controller) tea.Cmd {
	return func() tea.Msg {
		return connectedMsg{err: c.Connect(ctx)}
	}
}

func actionCmd(ctx context.Context, act func(context.Context) (session.ActionResult, error)) tea.Cmd {
	return func() tea.Msg {
		res, err := act(ctx)
		return actionMsg{result: res, err: err}
	}
}

// recordBalance appends a settled balance to the history, skipping repeats
// of the last value.
func (m *model) recordBalance(st session.State, now time.Time) {
	if st.Refreshing || st.Balance == "" || st.BalanceStale {
		return
	}
	val := utils.DecimalToFloat64(st.Balance)
	if n := len(m.history); n > 0 && m.history[n-1].Value == val {
		return
	}
	m.history = append(m.history, models.BalancePoint{Timestamp: now, Value: val})
	if len(m.history) > m.opts.HistorySize {
		m.history = m.history[len(m.history)-m.opts.HistorySize:]
	}
}

func (m model) historyValues() []float64 {
	values := make([]float64, len(m.history))
	for i, p := range m.history {
		values[i] = p.Value
	}
	return values
}

// actionStatus renders the outcome of a deposit or withdraw for the status
// line.
func actionStatus(res session.ActionResult, err error) (string, bool) {
	verb := "Deposit"
	if res.Kind == session.ActionWithdraw {
		verb = "Withdraw"
	}
	switch {
	case err == nil:
		return verb + " of " + res.Amount + " ETH succeeded: " + utils.TruncateString(res.TxHash, 20), false
	case errors.Is(err, session.ErrCannotAct):
		return "Connect an account and the contract first", true
	case errors.Is(err, session.ErrReverted):
		return verb + " reverted by the contract", true
	default:
		return verb + " failed: " + err.Error(), true
	}
}
