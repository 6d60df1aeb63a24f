package tui

import (
	"context"
	"errors"
	"time"

	"ethfaucet/pkg/session"
	"ethfaucet/pkg/utils"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case session.Event:
		cmds = append(cmds, listenForSession(m.sub))
		m.state = msg.State
		if msg.Type == session.EventBalanceUpdated {
			m.recordBalance(msg.State, time.Now())
		}
		if msg.Type == session.EventContractUpdated {
			m.history = m.history[:0]
		}

	case startedMsg:
		m.state = m.session.State()
		if msg.err != nil && !errors.Is(msg.err, session.ErrNoProvider) {
			cmds = append(cmds, m.setStatus("Startup failed: "+msg.err.Error(), true))
		}

	case connectedMsg:
		switch {
		case msg.err == nil:
			cmds = append(cmds, m.setStatus("Wallet connected", false))
		case errors.Is(msg.err, session.ErrNoAccount):
			cmds = append(cmds, m.setStatus("The wallet authorized no account", true))
		default:
			cmds = append(cmds, m.setStatus("Connect failed: "+msg.err.Error(), true))
		}

	case actionMsg:
		text, isErr := actionStatus(msg.result, msg.err)
		cmds = append(cmds, m.setStatus(text, isErr))

	case tea.KeyMsg:
		if msg.String() == "?" {
			m.showHelp = !m.showHelp
			return m, nil
		}
		if m.showHelp {
			if msg.String() == "q" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			if m.showGraph && msg.String() == "q" {
				m.showGraph = false
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			m.showGraph = false

		case "g":
			m.showGraph = !m.showGraph

		case "P":
			m.privacyMode = !m.privacyMode

		case "r":
			if m.state.ContractBound {
				m.session.Reload()
				cmds = append(cmds, m.setStatus("Reloading balance...", false))
			}

		case "c":
			if m.state.ProviderDetected && !m.state.HasAccount() {
				cmds = append(cmds, m.setStatus("Waiting for wallet authorization...", false))
				cmds = append(cmds, connectCmd(m.ctx, m.session))
			}

		case "d":
			if cmd := m.act(m.session.Deposit); cmd != nil {
				cmds = append(cmds, cmd)
			}

		case "w":
			if cmd := m.act(m.session.Withdraw); cmd != nil {
				cmds = append(cmds, cmd)
			}

		case "y":
			if m.state.Account != "" {
				if err := clipboard.WriteAll(m.state.Account); err != nil {
					cmds = append(cmds, m.setStatus("Failed to copy to clipboard", true))
				} else if m.privacyMode {
					cmds = append(cmds, m.setStatus("Full address copied (Privacy Mode active)!", false))
				} else {
					cmds = append(cmds, m.setStatus("Copied "+utils.ShortAddress(m.state.Account)+" to clipboard!", false))
				}
			}
		}

	case clearStatusMsg:
		m.statusMessage = ""
		m.statusIsErr = false
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// act dispatches an action when the buttons are enabled. One action runs at
// a time from the interface.
func (m *model) act(fn func(context.Context) (session.ActionResult, error)) tea.Cmd {
	if !m.state.CanAct() {
		return m.setStatus("Connect to the faucet contract to interact with it", true)
	}
	if m.state.Pending != "" {
		return nil
	}
	return actionCmd(m.ctx, fn)
}
