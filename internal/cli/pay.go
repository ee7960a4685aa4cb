package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/app"
	"github.com/rovshanmuradov/sol-splitter/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/sol-splitter/internal/events"
	"github.com/rovshanmuradov/sol-splitter/internal/payment"
	"github.com/rovshanmuradov/sol-splitter/internal/records"
	"github.com/rovshanmuradov/sol-splitter/internal/split"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
	"github.com/rovshanmuradov/sol-splitter/internal/ui"
	"github.com/rovshanmuradov/sol-splitter/internal/ui/style"
	"github.com/rovshanmuradov/sol-splitter/internal/validation"
	"github.com/rovshanmuradov/sol-splitter/internal/wallet"
)

var ErrRecipientSource = errors.New("give recipients as arguments, --preset or --csv, not several at once")

const progressFlushTimeout = time.Second

type payOptions struct {
	amount  float64
	preset  string
	csvPath string
	even    bool
	yes     bool
	tui     bool
	add     []string
	drop    []int
}

func newPayCmd(cc *CommandContext) *cobra.Command {
	var opts payOptions
	cmd := &cobra.Command{
		Use:   "pay [recipient=percent ...]",
		Short: "Send one payment split across recipients",
		Long: `Send one transaction that splits --amount SOL across 2 to 5 recipients.

A recipient is an address or a contact name followed by =percent. Percentages
must add up to 100. Recipients can instead come from a saved preset or a CSV
file with "address,percentage" rows.`,
		Example: `  splitter pay --amount 1.5 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM=60 alice=40
  splitter pay --amount 3 --even alice bob carol
  splitter pay --amount 2 --preset team --yes
  splitter pay --amount 2 --preset team --drop 3 --add carol
  splitter pay --amount 2 --csv recipients.csv --tui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPay(cmd, cc, opts, args)
		},
	}
	cmd.Flags().Float64VarP(&opts.amount, "amount", "a", 0, "total amount in SOL (required)")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "use the recipients of a saved preset")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "import recipients from a CSV file")
	cmd.Flags().BoolVar(&opts.even, "even", false, "split evenly; recipients are given without percentages")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "approve without asking")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show live progress in an interactive view")
	cmd.Flags().StringSliceVar(&opts.add, "add", nil, "append a recipient (address or contact) and split evenly")
	cmd.Flags().IntSliceVar(&opts.drop, "drop", nil, "drop recipient N (1-based) and split evenly")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func runPay(cmd *cobra.Command, cc *CommandContext, opts payOptions, args []string) error {
	ctx := cmd.Context()
	out := &syncWriter{w: cmd.OutOrStdout()}

	var approver wallet.Approver = wallet.AutoApprove
	var program *tea.Program
	switch {
	case opts.tui:
		approver = ui.NewApprover(func(msg tea.Msg) { program.Send(msg) })
	case !opts.yes:
		approver = newPromptApprover(cmd.InOrStdin(), out)
	}

	s, err := cc.openSession(ctx, approver)
	if err != nil {
		return err
	}
	defer closeSession(s)

	recipients, err := collectRecipients(s, opts, args)
	if err != nil {
		return err
	}

	warnLowBalance(ctx, cc, s, out, opts.amount)
	req := payment.Request{Amount: opts.amount, Recipients: recipients}
	cc.Logger.WithPayment(req.Amount, req.Recipients).Info("Submitting payment", zap.Bool("tui", opts.tui))

	if opts.tui {
		program = newProgressProgram(ctx, s, req, cmd.InOrStdin(), out)
		final, err := program.Run()
		if err != nil {
			return fmt.Errorf("progress view: %w", err)
		}
		_, err = final.(ui.ProgressModel).Outcome()
		return err
	}

	progress := newProgressPrinter(out, cc.Styles)
	sub := s.Bus.SubscribeFunc(events.PaymentStateChanged, progress.handle)
	defer sub.Unsubscribe()

	result, err := s.Workflow.Submit(ctx, req)
	if s.Workflow.State().Terminal() {
		progress.wait(progressFlushTimeout)
	}
	if err != nil {
		return err
	}
	cc.Logger.WithTransaction(result.Signature).Info("Payment sent",
		zap.String("explorer_url", result.ExplorerURL),
		zap.Bool("verified", result.Verified))

	fmt.Fprintln(out, cc.Styles.Success.Render("Payment sent"))
	fmt.Fprintf(out, "Signature: %s\n", result.Signature)
	fmt.Fprintf(out, "Explorer:  %s\n", cc.Styles.Link.Render(result.ExplorerURL))
	if !result.Verified {
		fmt.Fprintln(out, cc.Styles.Warning.Render("Settlement was not verified on chain"))
	}
	return nil
}

func newProgressProgram(ctx context.Context, s *app.Session, req payment.Request, in io.Reader, out io.Writer) *tea.Program {
	runCtx, cancel := context.WithCancel(ctx)
	submit := func() tea.Msg {
		defer cancel()
		result, err := s.Workflow.Submit(runCtx, req)
		return ui.DoneMsg{Result: result, Err: err}
	}
	model := ui.NewProgressModel(req.Amount, req.Recipients, submit, cancel)

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	stop := ui.Forward(s.Bus, p.Send)
	go func() {
		<-runCtx.Done()
		stop()
	}()

	go s.Price.Run(runCtx)
	return p
}

// collectRecipients reads the recipient list from exactly one source, then applies --drop and --add.
func collectRecipients(s *app.Session, opts payOptions, args []string) ([]types.Recipient, error) {
	list, err := sourceRecipients(s, opts, args)
	if err != nil {
		return nil, err
	}
	return editRecipients(s.Records.Contacts, list, opts.drop, opts.add)
}

func sourceRecipients(s *app.Session, opts payOptions, args []string) ([]types.Recipient, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, opts.preset != "", opts.csvPath != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, ErrRecipientSource
	}

	switch {
	case opts.preset != "":
		return s.Records.Presets.LoadByName(opts.preset)
	case opts.csvPath != "":
		f, err := os.Open(opts.csvPath)
		if err != nil {
			return nil, &types.ParseError{Reason: "Failed to parse CSV file"}
		}
		defer f.Close()
		return s.Importer.Import(f)
	}

	if opts.even {
		list := make([]types.Recipient, len(args))
		for i, ref := range args {
			addr, err := s.Records.Contacts.Resolve(ref)
			if err != nil {
				return nil, err
			}
			list[i] = types.Recipient{Address: addr}
		}
		return split.DistributeEvenly(list), nil
	}
	return parseRecipientArgs(s.Records.Contacts, args)
}

// editRecipients drops the 1-based rows in drop, then appends add. Every edit re-spreads evenly.
func editRecipients(contacts *records.Contacts, list []types.Recipient, drop []int, add []string) ([]types.Recipient, error) {
	rows := append([]int(nil), drop...)
	sort.Sort(sort.Reverse(sort.IntSlice(rows)))
	for i, row := range rows {
		if i > 0 && row == rows[i-1] {
			continue
		}
		next, err := split.RemoveRecipient(list, row-1)
		if err != nil {
			return nil, types.NewValidationError(fmt.Sprintf("Cannot drop recipient %d: %v", row, err))
		}
		list = next
	}

	for _, ref := range add {
		address, err := contacts.Resolve(ref)
		if err != nil {
			return nil, err
		}
		next, err := split.AddRecipient(list)
		if err != nil {
			return nil, types.NewValidationError(fmt.Sprintf("Cannot add %s: %v", ref, err))
		}
		next[len(next)-1].Address = address
		list = next
	}
	return list, nil
}

// parseRecipientArgs reads "ref=percent" pairs; ref is an address or a contact name.
func parseRecipientArgs(contacts *records.Contacts, args []string) ([]types.Recipient, error) {
	list := make([]types.Recipient, 0, len(args))
	for _, arg := range args {
		i := strings.LastIndex(arg, "=")
		if i <= 0 {
			return nil, types.NewValidationError(fmt.Sprintf("Invalid recipient %q, expected name=percent", arg))
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(arg[i+1:]), "%"), 64)
		if err != nil {
			return nil, types.NewValidationError(fmt.Sprintf("Invalid percentage in %q", arg))
		}
		addr, err := contacts.Resolve(arg[:i])
		if err != nil {
			return nil, err
		}
		list = append(list, types.Recipient{Address: addr, Percentage: pct})
	}
	return list, nil
}

// warnLowBalance prints a warning when the wallet cannot cover amount. It never blocks the payment.
func warnLowBalance(ctx context.Context, cc *CommandContext, s *app.Session, out io.Writer, amount float64) {
	if _, ok := s.Address(); !ok {
		return
	}
	balance, err := s.Balance(ctx)
	if err != nil {
		cc.Logger.Debug("Balance check skipped", zap.Error(err))
		return
	}
	if balance < amount {
		fmt.Fprintln(out, cc.Styles.Warning.Render(fmt.Sprintf(
			"Warning: wallet balance %s SOL is below the payment amount %s SOL",
			formatAmount(balance), formatAmount(amount))))
	}
}

// progressPrinter echoes workflow transitions. Bus delivery is asynchronous, so callers wait for
// the terminal transition before printing the outcome.
type progressPrinter struct {
	out      io.Writer
	styles   style.Styles
	terminal chan struct{}
	once     sync.Once
}

func newProgressPrinter(out io.Writer, styles style.Styles) *progressPrinter {
	return &progressPrinter{out: out, styles: styles, terminal: make(chan struct{})}
}

func (p *progressPrinter) handle(_ context.Context, e events.Event) error {
	sc, ok := e.(*events.PaymentStateChangedEvent)
	if !ok || sc.To == payment.StateIdle.String() {
		return nil
	}
	fmt.Fprintln(p.out, p.styles.Muted.Render("  → "+sc.To))

	if sc.To == payment.StateConfirmed.String() || sc.To == payment.StateError.String() {
		p.once.Do(func() { close(p.terminal) })
	}
	return nil
}

func (p *progressPrinter) wait(timeout time.Duration) {
	select {
	case <-p.terminal:
	case <-time.After(timeout):
	}
}

// syncWriter serialises writes from the bus goroutine and the command.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type promptApprover struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptApprover(in io.Reader, out io.Writer) *promptApprover {
	return &promptApprover{in: bufio.NewReader(in), out: out}
}

func (p *promptApprover) Approve(_ context.Context, env *transaction.Envelope) (bool, error) {
	fmt.Fprintf(p.out, "\nFrom %s\n", env.Sender)
	for _, tr := range env.Transfers {
		fmt.Fprintf(p.out, "  %s  %s SOL\n", tr.Address,
			formatAmount(split.FromMinorUnits(tr.Amount, types.LamportsPerSOL)))
	}
	if rem := env.Total - env.Distributed(); rem > 0 {
		fmt.Fprintf(p.out, "  rounding kept by sender: %d lamports\n", rem)
	}
	fmt.Fprint(p.out, "Sign and send? [y/N] ")

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// shortAddress is used in tables.
func shortAddress(addr string) string {
	return validation.TruncateAddress(addr, 6)
}
