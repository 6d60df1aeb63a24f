package tui

import (
	"context"
	"time"

	"ethfaucet/pkg/models"
	"ethfaucet/pkg/session"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

// Controller is the part of a session the interface drives.
type Controller interface {
	Start(ctx context.Context) error
	State() session.State
	Subscribe() session.Subscriber
	Connect(ctx context.Context) error
	Deposit(ctx context.Context) (session.ActionResult, error)
	Withdraw(ctx context.Context) (session.ActionResult, error)
	Reload()
}

// Options carries display settings.
type Options struct {
	ContractName   string
	DepositAmount  string
	WithdrawAmount string
	HistorySize    int
}

// --- Messages ---

type clearStatusMsg struct{}

type startedMsg struct{ err error }

type connectedMsg struct{ err error }

type actionMsg struct {
	result session.ActionResult
	err    error
}

// --- Model ---

type model struct {
	ctx           context.Context
	session       Controller
	sub           session.Subscriber
	opts          Options
	state         session.State
	width         int
	height        int
	spinner       spinner.Model
	statusMessage string
	statusIsErr   bool
	showHelp      bool
	showGraph     bool
	privacyMode   bool
	history       []models.BalancePoint
}

func initialModel(ctx context.Context, c Controller, opts Options) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if opts.HistorySize <= 0 {
		opts.HistorySize = 60
	}

	return model{
		ctx:     ctx,
		session: c,
		sub:     c.Subscribe(),
		opts:    opts,
		state:   c.State(),
		spinner: s,
		history: make([]models.BalancePoint, 0, opts.HistorySize),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForSession(m.sub),
		startSession(m.ctx, m.session),
		m.spinner.Tick,
	)
}

func (m model) loading() bool {
	return !m.state.ProviderReady || m.state.Refreshing || m.state.Pending != ""
}

func (m *model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusMessage = msg
	m.statusIsErr = isErr
	return tea.Tick(time.Second*4, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
