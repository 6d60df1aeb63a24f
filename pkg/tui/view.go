package tui

import (
	"fmt"
	"strings"

	"ethfaucet/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const installURL = "https://metamask.io/download.html"

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}
	if m.showGraph {
		return m.viewGraph()
	}

	header := titleStyle.Render(fmt.Sprintf("%s Faucet", m.opts.ContractName)) + " " + subtleStyle.Render(Version)

	rows := []string{
		m.viewAccount(),
		m.viewNetwork(),
		"",
		m.viewBalance(),
		"",
	}
	if !m.state.CanAct() {
		rows = append(rows, warnStyle.Italic(true).Render("Connect to the faucet contract to interact with it"))
	}
	rows = append(rows, m.viewButtons())

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))

	status := ""
	if m.statusMessage != "" {
		if m.statusIsErr {
			status = errStyle.Render(m.statusMessage)
		} else {
			status = infoStyle.Render(m.statusMessage)
		}
	}
	footer := subtleStyle.Render("c: connect • d: donate • w: withdraw • r: reload • y: copy • g: graph • ?: help • q: quit")

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, header, "\n", content, status, footer))
}

// viewAccount renders exactly one of: the discovery spinner, a discovery
// error, the install prompt, the account, or the connect prompt.
func (m model) viewAccount() string {
	label := labelStyle.Render("Account:")
	switch {
	case !m.state.ProviderReady:
		return fmt.Sprintf("%s Looking for wallet provider...", m.spinner.View())
	case m.state.ProviderErr != "":
		return label + errStyle.Render("Wallet provider unusable: "+utils.TruncateString(m.state.ProviderErr, 60))
	case !m.state.ProviderDetected:
		return label + warnStyle.Render("Wallet is not detected! Install one: "+installURL)
	case m.state.Account != "":
		return label + m.maskAddress(m.state.Account)
	default:
		return label + buttonStyle.Render("c Connect")
	}
}

func (m model) viewNetwork() string {
	if !m.state.ProviderDetected {
		return ""
	}
	line := labelStyle.Render("Provider:") + subtleStyle.Render(m.state.ProviderURL)
	if m.state.ChainID != "" {
		line += subtleStyle.Render(" (chain " + m.state.ChainID + ")")
	}
	contract := labelStyle.Render("Contract:")
	switch {
	case m.state.ContractBound:
		contract += subtleStyle.Render(m.state.ContractAddress)
	case m.state.ContractErr != "":
		contract += errStyle.Render(utils.TruncateString(m.state.ContractErr, 60))
	default:
		contract += subtleStyle.Render("-")
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, contract)
}

func (m model) viewBalance() string {
	value := m.maskString(utils.Ether(m.state.Balance))
	line := "Current Balance: " + balanceStyle.Render(value)
	switch {
	case m.state.Refreshing:
		line += " " + m.spinner.View()
	case m.state.BalanceStale:
		line += " " + warnStyle.Render("(stale)")
	}
	if m.state.BalanceErr != "" {
		line += "\n" + errStyle.Render(utils.TruncateString(m.state.BalanceErr, 60))
	}
	return line
}

func (m model) viewButtons() string {
	style := buttonStyle
	if !m.state.CanAct() || m.state.Pending != "" {
		style = disabledButtonStyle
	}
	donate := style.Render(fmt.Sprintf("d Donate %s ETH", m.opts.DepositAmount))
	withdraw := style.Render(fmt.Sprintf("w Withdraw %s ETH", m.opts.WithdrawAmount))
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, donate, " ", withdraw)
	if m.state.Pending != "" {
		buttons += " " + m.spinner.View() + subtleStyle.Render(" "+string(m.state.Pending)+" pending")
	}
	return buttons
}

func (m model) viewGraph() string {
	header := titleStyle.Render("Balance History")

	var graph string
	if len(m.history) > 1 {
		graphWidth := m.width - 20
		if graphWidth < 10 {
			graphWidth = 10
		}
		graphHeight := m.height - 12
		if graphHeight < 1 {
			graphHeight = 1
		}
		graph = asciigraph.Plot(m.historyValues(),
			asciigraph.Height(graphHeight),
			asciigraph.Width(graphWidth),
			asciigraph.Caption(fmt.Sprintf("%s balance (ETH)", m.opts.ContractName)),
		)
	} else {
		graph = "Not enough data to draw graph."
	}
	if m.privacyMode {
		graph = "****"
	}

	stats := ""
	if n := len(m.history); n > 0 {
		first, last := m.history[0], m.history[n-1]
		stats = subtleStyle.Render(fmt.Sprintf("%d points • %s to %s",
			n, first.Timestamp.Format("15:04:05"), last.Timestamp.Format("15:04:05")))
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, header, "\n", stats, "\n", graph))
	footer := subtleStyle.Render("g/q/esc: back • r: reload")

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}

func (m model) viewHelp() string {
	shortcuts := []string{
		"c: Connect Wallet",
		"d: Donate " + m.opts.DepositAmount + " ETH",
		"w: Withdraw " + m.opts.WithdrawAmount + " ETH",
		"r: Reload Balance",
		"y: Copy Account",
		"g: Balance Graph",
		"P: Toggle Privacy",
		"?: Toggle Help",
		"q: Quit",
	}

	content := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		"\n",
		strings.Join(shortcuts, "\n"),
	))
	footer := subtleStyle.Render("?/q/esc: close")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "\n", footer))
}
