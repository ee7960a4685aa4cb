// internal/payment/workflow.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain"
	"github.com/rovshanmuradov/sol-splitter/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/sol-splitter/internal/events"
	"github.com/rovshanmuradov/sol-splitter/internal/records"
	"github.com/rovshanmuradov/sol-splitter/internal/split"
	"github.com/rovshanmuradov/sol-splitter/internal/storage/models"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
	"github.com/rovshanmuradov/sol-splitter/internal/validation"
)

// ErrAttemptInProgress is returned by Submit while another attempt has not finished.
var ErrAttemptInProgress = errors.New("a payment is already in progress")

const defaultFailureMessage = "Transaction failed"

// WalletProvider is the signing side of the wallet boundary.
type WalletProvider interface {
	Address() (solana.PublicKey, bool)
	SignAndSend(ctx context.Context, env *transaction.Envelope) (solana.Signature, error)
}

type EnvelopeBuilder interface {
	Build(ctx context.Context, sender solana.PublicKey, recipients []types.Recipient, total uint64) (*transaction.Envelope, error)
}

type ConfirmationWaiter interface {
	AwaitConfirmation(ctx context.Context, signature solana.Signature) (*transaction.Status, error)
}

type HistoryRecorder interface {
	Append(ctx context.Context, rec records.NewRecord) (models.TransactionRecord, error)
}

// Config controls the side effects of an attempt.
type Config struct {
	// RecordFailed appends a failed history record when an attempt ends in the error state.
	RecordFailed bool
	Cluster      blockchain.Cluster
}

// Request is one user submission.
type Request struct {
	Amount     float64
	Recipients []types.Recipient
}

// Result describes a confirmed payment.
type Result struct {
	AttemptID   string
	Signature   string
	Amount      float64
	Recipients  []types.Recipient
	Verified    bool
	ExplorerURL string
	Record      models.TransactionRecord
}

// Workflow drives one payment at a time through build, approval, broadcast and confirmation.
type Workflow struct {
	mu        sync.Mutex
	state     State
	attemptID string
	lastErr   error
	signature string

	wallet    WalletProvider
	builder   EnvelopeBuilder
	monitor   ConfirmationWaiter
	history   HistoryRecorder
	publisher events.Publisher
	metrics   *transaction.Metrics
	config    Config
	logger    *zap.Logger
	newID     func() string
}

// Dependencies bundles the collaborators of a Workflow. Publisher and Metrics may be nil.
type Dependencies struct {
	Wallet    WalletProvider
	Builder   EnvelopeBuilder
	Monitor   ConfirmationWaiter
	History   HistoryRecorder
	Publisher events.Publisher
	Metrics   *transaction.Metrics
}

func NewWorkflow(deps Dependencies, cfg Config, logger *zap.Logger) *Workflow {
	if cfg.Cluster == "" {
		cfg.Cluster = blockchain.DefaultCluster
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = transaction.NewMetrics(nil)
	}
	return &Workflow{
		state:     StateIdle,
		wallet:    deps.Wallet,
		builder:   deps.Builder,
		monitor:   deps.Monitor,
		history:   deps.History,
		publisher: deps.Publisher,
		metrics:   metrics,
		config:    cfg,
		logger:    logger.Named("payment"),
		newID:     func() string { return uuid.New().String() },
	}
}

// State returns the current phase.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// LastError returns the failure of the most recent attempt, or nil.
func (w *Workflow) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Signature returns the signature of the most recent broadcast, if any.
func (w *Workflow) Signature() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.signature
}

// Reset returns a finished workflow to idle. It is a no-op when idle and refused while busy.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Busy() {
		return ErrAttemptInProgress
	}
	if w.state != StateIdle {
		w.setStateLocked(StateIdle)
	}
	w.lastErr = nil
	w.signature = ""
	return nil
}

// Submit runs one attempt to completion. Guard failures leave the workflow idle and return a
// *types.ValidationError; any later failure moves it to the error state.
func (w *Workflow) Submit(ctx context.Context, req Request) (*Result, error) {
	sender, total, err := w.begin(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	recipients := types.CloneRecipients(req.Recipients)
	logger := w.logger.With(
		zap.String("attempt_id", w.currentAttempt()),
		zap.Float64("amount_sol", req.Amount),
		zap.Int("recipient_count", len(recipients)))
	logger.Info("Payment submitted")

	env, err := w.builder.Build(ctx, sender, recipients, total)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, w.fail(ctx, req, "", start, fmt.Errorf("build payment: %w", err))
	}
	w.transition(StateAwaitingApproval)

	sig, err := w.wallet.SignAndSend(ctx, env)
	if err != nil {
		return nil, w.fail(ctx, req, "", start, err)
	}
	w.metrics.Submitted()
	w.mu.Lock()
	w.signature = sig.String()
	w.mu.Unlock()
	w.transition(StateProcessing)
	logger.Info("Payment broadcast", zap.String("signature", sig.String()))

	status, err := w.monitor.AwaitConfirmation(ctx, sig)
	if err != nil {
		return nil, w.fail(ctx, req, sig.String(), start, err)
	}

	return w.confirm(ctx, req, sig.String(), status, start, logger)
}

func (w *Workflow) begin(req Request) (solana.PublicKey, uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Busy() {
		return solana.PublicKey{}, 0, ErrAttemptInProgress
	}
	if w.state.Terminal() {
		w.setStateLocked(StateIdle)
	}
	w.lastErr = nil
	w.signature = ""

	sender, total, err := w.guard(req)
	if err != nil {
		w.lastErr = err
		return solana.PublicKey{}, 0, err
	}

	w.attemptID = w.newID()
	w.setStateLocked(StateBuilding)
	return sender, total, nil
}

func (w *Workflow) guard(req Request) (solana.PublicKey, uint64, error) {
	sender, connected := w.wallet.Address()
	if !connected || sender.IsZero() {
		return solana.PublicKey{}, 0, types.NewValidationError("Please connect your wallet first")
	}

	if !validation.ValidateAmount(req.Amount) {
		return solana.PublicKey{}, 0, types.NewValidationError("Please enter a valid amount")
	}
	total, err := split.ToMinorUnits(req.Amount, types.LamportsPerSOL)
	if err != nil || total == 0 {
		return solana.PublicKey{}, 0, types.NewValidationError("Please enter a valid amount")
	}

	if err := validation.ValidateRecipients(req.Recipients).Err(); err != nil {
		return solana.PublicKey{}, 0, err
	}
	if len(validation.InvalidAddresses(req.Recipients)) > 0 {
		return solana.PublicKey{}, 0, types.NewValidationError("One or more recipient addresses are invalid")
	}
	return sender, total, nil
}

func (w *Workflow) confirm(ctx context.Context, req Request, sig string, status *transaction.Status, start time.Time, logger *zap.Logger) (*Result, error) {
	record, err := w.history.Append(context.WithoutCancel(ctx), records.NewRecord{
		Signature:  sig,
		Amount:     req.Amount,
		Recipients: req.Recipients,
		Status:     models.StatusSuccess,
	})
	if err != nil {
		// the payment settled; a lost history entry does not undo it
		logger.Error("Failed to record confirmed payment", zap.String("signature", sig), zap.Error(err))
	}

	w.metrics.Confirmed(start)
	attemptID := w.transition(StateConfirmed)

	result := &Result{
		AttemptID:   attemptID,
		Signature:   sig,
		Amount:      req.Amount,
		Recipients:  types.CloneRecipients(req.Recipients),
		Verified:    status.Verified,
		ExplorerURL: blockchain.ExplorerURL(sig, w.config.Cluster),
		Record:      record,
	}
	w.publish(&events.PaymentConfirmedEvent{
		BaseEvent:   events.NewBase(events.PaymentConfirmed),
		AttemptID:   attemptID,
		Signature:   sig,
		Amount:      req.Amount,
		Recipients:  result.Recipients,
		Verified:    status.Verified,
		ExplorerURL: result.ExplorerURL,
	})

	logger.Info("Payment confirmed",
		zap.String("signature", sig),
		zap.Bool("verified", status.Verified),
		zap.Int("polls", status.Polls),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// fail moves the attempt to the error state and returns err unchanged for the caller.
func (w *Workflow) fail(ctx context.Context, req Request, sig string, start time.Time, err error) error {
	kind := types.KindOf(err)
	message := FailureMessage(err)

	w.metrics.Failed(kind.String(), start)
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
	attemptID := w.transition(StateError)

	logger := w.logger.With(
		zap.String("attempt_id", attemptID),
		zap.String("kind", kind.String()),
		zap.String("signature", sig))
	if kind == types.KindUserRejected || kind == types.KindCancelled {
		logger.Info("Payment not completed", zap.Error(err))
	} else {
		logger.Error("Payment failed", zap.Error(err))
	}

	if w.config.RecordFailed {
		if _, recErr := w.history.Append(context.WithoutCancel(ctx), records.NewRecord{
			Signature:  sig,
			Amount:     req.Amount,
			Recipients: req.Recipients,
			Status:     models.StatusFailed,
			Error:      message,
		}); recErr != nil {
			logger.Error("Failed to record failed payment", zap.Error(recErr))
		}
	}

	w.publish(&events.PaymentFailedEvent{
		BaseEvent: events.NewBase(events.PaymentFailed),
		AttemptID: attemptID,
		Signature: sig,
		Kind:      kind,
		Message:   message,
		Err:       err,
	})
	return err
}

// FailureMessage renders the text shown for a failed attempt.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(types.UserMessage(err)); msg != "" {
		return msg
	}
	return defaultFailureMessage
}

func (w *Workflow) currentAttempt() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attemptID
}

// transition moves to next and returns the attempt id it belongs to.
func (w *Workflow) transition(next State) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setStateLocked(next)
	return w.attemptID
}

func (w *Workflow) setStateLocked(next State) {
	prev := w.state
	if !CanTransition(prev, next) {
		w.logger.DPanic("Illegal payment state transition",
			zap.Stringer("from", prev),
			zap.Stringer("to", next))
		return
	}
	w.state = next
	w.logger.Debug("Payment state changed",
		zap.String("attempt_id", w.attemptID),
		zap.Stringer("from", prev),
		zap.Stringer("to", next))
	w.publish(&events.PaymentStateChangedEvent{
		BaseEvent: events.NewBase(events.PaymentStateChanged),
		AttemptID: w.attemptID,
		From:      prev.String(),
		To:        next.String(),
	})
}

func (w *Workflow) publish(event events.Event) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(event); err != nil {
		w.logger.Warn("Failed to publish payment event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}
