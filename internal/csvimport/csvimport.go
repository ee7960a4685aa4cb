// internal/csvimport/csvimport.go
package csvimport

import (
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
	"github.com/rovshanmuradov/sol-splitter/internal/validation"
)

// SumTolerance is looser than the submit-time check so that rounded spreadsheet values still import.
const SumTolerance = 0.1

var lineBreak = regexp.MustCompile(`\r?\n`)

// Parse reads "address, percentage" rows. A first row whose first cell contains "address" is a header.
// Every bad row is reported; good rows are still returned.
func Parse(r io.Reader) ([]types.Recipient, []*types.ParseError) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, []*types.ParseError{{Reason: "Failed to parse CSV file"}}
	}

	var lines []string
	for _, line := range lineBreak.Split(string(data), -1) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, []*types.ParseError{{Reason: "Empty file"}}
	}

	var (
		recipients []types.Recipient
		errs       []*types.ParseError
	)
	for i, line := range lines {
		parts := strings.Split(line, ",")
		if i == 0 && strings.Contains(strings.ToLower(strings.TrimSpace(parts[0])), "address") {
			continue
		}
		lineNo := i + 1

		if len(parts) < 2 {
			errs = append(errs, &types.ParseError{Line: lineNo, Reason: `Invalid format. Expected "address, percentage"`})
			continue
		}

		address := strings.TrimSpace(parts[0])
		rawPct := strings.TrimSpace(parts[1])

		if !validation.IsValidAddress(address) {
			errs = append(errs, &types.ParseError{Line: lineNo, Reason: fmt.Sprintf("Invalid Solana address %q", address)})
			continue
		}

		pct, ok := parsePercentage(rawPct)
		if !ok {
			errs = append(errs, &types.ParseError{Line: lineNo, Reason: fmt.Sprintf("Invalid percentage/amount %q", rawPct)})
			continue
		}

		recipients = append(recipients, types.Recipient{Address: address, Percentage: pct})
	}
	return recipients, errs
}

// parsePercentage accepts a leading number with an optional trailing "%".
func parsePercentage(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// Importer applies the recipient-list rules on top of Parse.
type Importer struct {
	logger *zap.Logger
}

func NewImporter(logger *zap.Logger) *Importer {
	return &Importer{logger: logger.Named("csv-import")}
}

// Import returns a recipient list ready to load into the editor, or the first problem found.
func (im *Importer) Import(r io.Reader) ([]types.Recipient, error) {
	recipients, errs := Parse(r)
	if len(errs) > 0 {
		im.logger.Warn("CSV rejected",
			zap.Int("errors", len(errs)),
			zap.Int("valid_rows", len(recipients)))
		for _, pe := range errs {
			im.logger.Debug("CSV row error", zap.Int("line", pe.Line), zap.String("reason", pe.Reason))
		}
		return nil, fmt.Errorf("CSV Error: %w", errs[0])
	}

	if len(recipients) < types.MinRecipients || len(recipients) > types.MaxRecipients {
		return nil, &types.ParseError{Reason: fmt.Sprintf("CSV must contain between %d and %d recipients",
			types.MinRecipients, types.MaxRecipients)}
	}

	total := validation.PercentageSum(recipients)
	if math.Abs(total-100) > SumTolerance {
		return nil, &types.ParseError{Reason: fmt.Sprintf("Total percentage in CSV is %s%%, must be 100%%",
			strconv.FormatFloat(total, 'f', -1, 64))}
	}

	im.logger.Info("CSV imported", zap.Int("recipients", len(recipients)), zap.Float64("total_percentage", total))
	return recipients, nil
}

// IsParseError reports whether err came from malformed input.
func IsParseError(err error) bool {
	return errors.Is(err, types.ErrParse)
}
