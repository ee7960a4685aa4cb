package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rovshanmuradov/sol-splitter/internal/payment"
	"github.com/rovshanmuradov/sol-splitter/internal/split"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
	"github.com/rovshanmuradov/sol-splitter/internal/ui/style"
	"github.com/rovshanmuradov/sol-splitter/internal/validation"
)

var steps = []struct {
	state payment.State
	label string
}{
	{payment.StateBuilding, "Building transaction"},
	{payment.StateAwaitingApproval, "Waiting for approval"},
	{payment.StateProcessing, "Confirming settlement"},
	{payment.StateConfirmed, "Confirmed"},
}

// ProgressModel shows one payment attempt from submission to its terminal state.
type ProgressModel struct {
	spinner spinner.Model
	keys    KeyMap
	styles  style.Styles

	amount     float64
	recipients []types.Recipient
	usdPrice   float64

	state    string
	step     int
	approval *ApprovalRequestMsg
	failure  string
	result   *payment.Result
	err      error
	done     bool

	submit tea.Cmd
	cancel func()
}

// NewProgressModel builds the view. submit runs the attempt and must return a DoneMsg;
// cancel aborts it when the user quits.
func NewProgressModel(amount float64, recipients []types.Recipient, submit tea.Cmd, cancel func()) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	styles := style.DefaultStyles()
	s.Style = styles.Active

	return ProgressModel{
		spinner:    s,
		keys:       DefaultKeyMap(),
		styles:     styles,
		amount:     amount,
		recipients: types.CloneRecipients(recipients),
		state:      payment.StateIdle.String(),
		step:       -1,
		submit:     submit,
		cancel:     cancel,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.submit)
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		m.state = msg.To
		if i := stepIndex(msg.To); i >= 0 {
			m.step = i
		}
		if msg.To != payment.StateAwaitingApproval.String() {
			m.approval = nil
		}
		return m, nil

	case ApprovalRequestMsg:
		m.approval = &msg
		return m, nil

	case FailedMsg:
		m.failure = msg.Event.Message
		return m, nil

	case PriceMsg:
		m.usdPrice = msg.Price
		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if msg.Err == nil {
			m.state = payment.StateConfirmed.String()
			m.step = len(steps) - 1
		}
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ProgressModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.approval != nil {
		switch {
		case key.Matches(msg, m.keys.Approve):
			m.approval.Reply <- true
			m.approval = nil
			return m, nil
		case key.Matches(msg, m.keys.Decline):
			m.approval.Reply <- false
			m.approval = nil
			return m, nil
		}
	}
	if key.Matches(msg, m.keys.Quit) {
		if m.done {
			return m, tea.Quit
		}
		// the attempt ends in the error state and Submit returns a DoneMsg
		if m.cancel != nil {
			m.cancel()
		}
	}
	return m, nil
}

// Outcome returns the result of the attempt once the view has finished.
func (m ProgressModel) Outcome() (*payment.Result, error) {
	return m.result, m.err
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Splitting %s SOL across %d recipients",
		formatSOL(m.amount), len(m.recipients))))
	if m.usdPrice > 0 {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  (~$%.2f)", m.amount*m.usdPrice)))
	}
	b.WriteString("\n\n")

	for _, r := range m.recipients {
		fmt.Fprintf(&b, "  %s  %s  %s SOL\n",
			validation.TruncateAddress(r.Address, 4),
			m.styles.Muted.Render(validation.FormatPercentage(r.Percentage)),
			formatSOL(split.ShareOf(m.amount, r.Percentage)))
	}
	b.WriteString("\n")

	reached := m.step
	failed := m.state == payment.StateError.String() || (m.done && m.err != nil)
	for i, step := range steps {
		switch {
		case i < reached || (i == reached && step.state == payment.StateConfirmed):
			fmt.Fprintf(&b, "  %s %s\n", m.styles.Success.Render("✓"), step.label)
		case i == reached && failed:
			fmt.Fprintf(&b, "  %s %s\n", m.styles.Error.Render("✗"), step.label)
		case i == reached:
			fmt.Fprintf(&b, "  %s %s\n", m.spinner.View(), m.styles.Active.Render(step.label))
		default:
			fmt.Fprintf(&b, "    %s\n", m.styles.Muted.Render(step.label))
		}
	}

	if m.approval != nil {
		fmt.Fprintf(&b, "\n  Approve %d transfers (%s SOL)? %s\n",
			len(m.approval.Envelope.Transfers),
			formatSOL(split.FromMinorUnits(m.approval.Envelope.Distributed(), types.LamportsPerSOL)),
			m.styles.Muted.Render("[y/n]"))
	}

	switch {
	case m.result != nil:
		fmt.Fprintf(&b, "\n  %s %s\n", m.styles.Success.Render("Payment sent"), m.styles.Link.Render(m.result.ExplorerURL))
		if !m.result.Verified {
			fmt.Fprintf(&b, "  %s\n", m.styles.Warning.Render("Settlement was not verified on chain"))
		}
	case m.done && m.err != nil:
		msg := m.failure
		if msg == "" {
			msg = payment.FailureMessage(m.err)
		}
		fmt.Fprintf(&b, "\n  %s\n", m.styles.Error.Render(msg))
	default:
		fmt.Fprintf(&b, "\n  %s\n", m.styles.Muted.Render(m.keys.Quit.Help().Key+" "+m.keys.Quit.Help().Desc))
	}
	return b.String()
}

// stepIndex maps a workflow state to its step, -1 for idle and error.
func stepIndex(state string) int {
	for i, step := range steps {
		if step.state.String() == state {
			return i
		}
	}
	return -1
}

func formatSOL(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.9f", v), "0"), ".")
}
