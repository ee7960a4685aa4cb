package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/storage/models"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// CSVHeaders is the header row of a history export.
var CSVHeaders = []string{"Date", "Status", "Amount (SOL)", "Signature", "Recipients"}

// DateLayout is used for the Date column.
const DateLayout = time.RFC3339

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format      ExportFormat
	StartTime   time.Time
	EndTime     time.Time
	OnlySuccess bool
	OutputDir   string
}

// HistoryExporter writes the payment history to CSV or JSON files.
type HistoryExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewHistoryExporter(logger *zap.Logger) *HistoryExporter {
	return &HistoryExporter{
		logger: logger.Named("export"),
		now:    time.Now,
	}
}

// Filename returns the export file name for the given day.
func Filename(format ExportFormat, day time.Time) string {
	return fmt.Sprintf("solana_splitter_history_%s.%s", day.Format("2006-01-02"), format)
}

// ExportHistory writes records matching options into OutputDir and returns the file path.
// Records keep the order they are given in, which for history is newest first.
func (he *HistoryExporter) ExportHistory(records []models.TransactionRecord, options ExportOptions) (string, error) {
	filtered := filterRecords(records, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no payments match the export criteria")
	}

	if options.OutputDir == "" {
		options.OutputDir = "."
	}
	if err := os.MkdirAll(options.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, Filename(options.Format, he.now()))

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	switch options.Format {
	case FormatCSV:
		err = WriteCSV(file, filtered)
	case FormatJSON:
		err = he.WriteJSON(file, filtered)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		_ = os.Remove(outputPath)
		return "", err
	}

	he.logger.Info("History exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func filterRecords(records []models.TransactionRecord, options ExportOptions) []models.TransactionRecord {
	var filtered []models.TransactionRecord
	for _, rec := range records {
		if !options.StartTime.IsZero() && rec.Timestamp.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && rec.Timestamp.After(options.EndTime) {
			continue
		}
		if options.OnlySuccess && rec.Status != models.StatusSuccess {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

// WriteCSV renders records with every cell double-quoted.
func WriteCSV(w io.Writer, records []models.TransactionRecord) error {
	if err := writeQuotedRow(w, CSVHeaders); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Timestamp.Format(DateLayout),
			string(rec.Status),
			strconv.FormatFloat(rec.Amount, 'f', -1, 64),
			rec.Signature,
			FormatRecipientsCell(rec.Recipients),
		}
		if err := writeQuotedRow(w, row); err != nil {
			return fmt.Errorf("failed to write record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// writeQuotedRow is used instead of encoding/csv, which only quotes cells that need it.
func writeQuotedRow(w io.Writer, cells []string) error {
	quoted := make([]string, len(cells))
	for i, cell := range cells {
		quoted[i] = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

// FormatRecipientsCell joins recipients as "addr (pct%)" separated by "; ".
func FormatRecipientsCell(recipients []types.Recipient) string {
	parts := make([]string, len(recipients))
	for i, r := range recipients {
		parts[i] = r.String()
	}
	return strings.Join(parts, "; ")
}

// WriteJSON writes records together with a summary block.
func (he *HistoryExporter) WriteJSON(w io.Writer, records []models.TransactionRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime  time.Time                  `json:"export_time"`
		RecordCount int                        `json:"record_count"`
		Records     []models.TransactionRecord `json:"records"`
		Summary     ExportSummary              `json:"summary"`
	}{
		ExportTime:  he.now(),
		RecordCount: len(records),
		Records:     records,
		Summary:     CalculateSummary(records),
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportSummary contains summary statistics for exported payments
type ExportSummary struct {
	TotalPayments      int       `json:"total_payments"`
	SuccessfulPayments int       `json:"successful_payments"`
	FailedPayments     int       `json:"failed_payments"`
	TotalVolume        float64   `json:"total_volume"`
	UniqueRecipients   int       `json:"unique_recipients"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
}

// CalculateSummary counts volume over successful payments only.
func CalculateSummary(records []models.TransactionRecord) ExportSummary {
	summary := ExportSummary{TotalPayments: len(records)}
	if len(records) == 0 {
		return summary
	}

	times := make([]time.Time, 0, len(records))
	recipients := make(map[string]struct{})
	for _, rec := range records {
		times = append(times, rec.Timestamp)
		switch rec.Status {
		case models.StatusSuccess:
			summary.SuccessfulPayments++
			summary.TotalVolume += rec.Amount
			for _, r := range rec.Recipients {
				recipients[r.Address] = struct{}{}
			}
		case models.StatusFailed:
			summary.FailedPayments++
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	summary.StartDate = times[0]
	summary.EndDate = times[len(times)-1]
	summary.UniqueRecipients = len(recipients)
	return summary
}
