// internal/records/history.go
package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/storage"
	"github.com/rovshanmuradov/sol-splitter/internal/storage/models"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// NewRecord is the caller-supplied part of a history entry; id and timestamp are assigned on append.
type NewRecord struct {
	Signature  string
	Amount     float64
	Recipients []types.Recipient
	Status     models.Status
	Error      string
}

// History is the append-only payment log, newest first. Entries are never edited; only Clear removes them.
type History struct {
	col    *collection[models.TransactionRecord]
	opts   options
	logger *zap.Logger
}

func NewHistory(ctx context.Context, store storage.Storage, logger *zap.Logger, opts ...Option) (*History, error) {
	logger = logger.Named("history")
	h := &History{
		col:    newCollection[models.TransactionRecord](storage.KeyHistory, store, logger),
		opts:   buildOptions(opts),
		logger: logger,
	}
	if err := h.col.load(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// Append stores a new record at the head of the log.
func (h *History) Append(ctx context.Context, rec NewRecord) (models.TransactionRecord, error) {
	if !rec.Status.Valid() {
		return models.TransactionRecord{}, fmt.Errorf("invalid record status %q", rec.Status)
	}
	entry := models.TransactionRecord{
		ID:         h.opts.newID(),
		Signature:  rec.Signature,
		Timestamp:  h.opts.now().UTC(),
		Amount:     rec.Amount,
		Recipients: types.CloneRecipients(rec.Recipients),
		Status:     rec.Status,
		Error:      rec.Error,
	}

	err := h.col.update(ctx, func(items []models.TransactionRecord) ([]models.TransactionRecord, error) {
		return append([]models.TransactionRecord{entry}, items...), nil
	})
	if err != nil {
		h.logger.Error("Failed to append history record", zap.String("signature", rec.Signature), zap.Error(err))
		return models.TransactionRecord{}, err
	}

	h.logger.Info("Payment logged",
		zap.String("id", entry.ID),
		zap.String("signature", entry.Signature),
		zap.Float64("amount_sol", entry.Amount),
		zap.String("status", string(entry.Status)))
	return cloneRecord(entry), nil
}

// List returns all records, newest first.
func (h *History) List() []models.TransactionRecord {
	items := h.col.snapshot()
	for i := range items {
		items[i] = cloneRecord(items[i])
	}
	return items
}

// Get looks a record up by id.
func (h *History) Get(id string) (models.TransactionRecord, bool) {
	for _, rec := range h.col.snapshot() {
		if rec.ID == id {
			return cloneRecord(rec), true
		}
	}
	return models.TransactionRecord{}, false
}

func (h *History) Len() int {
	return len(h.col.snapshot())
}

// Clear removes every record. Clearing an empty log is not an error.
func (h *History) Clear(ctx context.Context) error {
	if err := h.col.update(ctx, func([]models.TransactionRecord) ([]models.TransactionRecord, error) {
		return []models.TransactionRecord{}, nil
	}); err != nil {
		return err
	}
	h.logger.Info("History cleared")
	return nil
}

// Statistics holds aggregate figures over the log.
type Statistics struct {
	TotalPayments      int     `json:"total_payments"`
	SuccessfulPayments int     `json:"successful_payments"`
	FailedPayments     int     `json:"failed_payments"`
	TotalVolume        float64 `json:"total_volume"`
	SuccessRate        float64 `json:"success_rate"`
}

func (h *History) Statistics() Statistics {
	var stats Statistics
	for _, rec := range h.col.snapshot() {
		stats.TotalPayments++
		if rec.Status == models.StatusSuccess {
			stats.SuccessfulPayments++
			stats.TotalVolume += rec.Amount
		} else {
			stats.FailedPayments++
		}
	}
	if stats.TotalPayments > 0 {
		stats.SuccessRate = float64(stats.SuccessfulPayments) / float64(stats.TotalPayments) * 100
	}
	return stats
}

func cloneRecord(r models.TransactionRecord) models.TransactionRecord {
	r.Recipients = types.CloneRecipients(r.Recipients)
	return r
}
