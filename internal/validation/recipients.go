// internal/validation/recipients.go
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// PercentageTolerance is the absolute epsilon for manual entry. CSV import uses its own, looser bound.
const PercentageTolerance = 0.01

// Result is the outcome of ValidateRecipients.
type Result struct {
	IsValid bool
	Errors  []string
}

// Err returns a *types.ValidationError for an invalid result, nil otherwise.
func (r Result) Err() error {
	if r.IsValid {
		return nil
	}
	return types.NewValidationError(r.Errors...)
}

// ValidateRecipientCount reports whether n is within [MinRecipients, MaxRecipients].
func ValidateRecipientCount(n int) bool {
	return n >= types.MinRecipients && n <= types.MaxRecipients
}

// ValidateAmount requires a finite, strictly positive number.
func ValidateAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0) && amount > 0
}

// PercentageSum adds up the percentages of list.
func PercentageSum(list []types.Recipient) float64 {
	var sum float64
	for _, r := range list {
		sum += r.Percentage
	}
	return sum
}

// ValidatePercentageSum reports whether list sums to 100 within PercentageTolerance.
func ValidatePercentageSum(list []types.Recipient) bool {
	return math.Abs(PercentageSum(list)-100) < PercentageTolerance
}

// HasDuplicateAddresses compares addresses case-insensitively.
func HasDuplicateAddresses(list []types.Recipient) bool {
	seen := make(map[string]struct{}, len(list))
	for _, r := range list {
		key := strings.ToLower(r.Address)
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}

// ValidateRecipients runs every structural check and collects all failures in a fixed order:
// count, blank addresses, duplicates, percentage sum, per-recipient range.
func ValidateRecipients(list []types.Recipient) Result {
	var errs []string

	if !ValidateRecipientCount(len(list)) {
		errs = append(errs, fmt.Sprintf("You must have between %d and %d recipients",
			types.MinRecipients, types.MaxRecipients))
	}

	for _, r := range list {
		if strings.TrimSpace(r.Address) == "" {
			errs = append(errs, "All recipient addresses must be filled")
			break
		}
	}

	if HasDuplicateAddresses(list) {
		errs = append(errs, "Duplicate recipient addresses are not allowed")
	}

	if !ValidatePercentageSum(list) {
		errs = append(errs, fmt.Sprintf("Percentages must sum to 100%% (currently %.2f%%)", PercentageSum(list)))
	}

	for _, r := range list {
		// negated form also rejects NaN
		if !(r.Percentage > 0 && r.Percentage <= 100) {
			errs = append(errs, "Each percentage must be between 0 and 100")
			break
		}
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// InvalidAddresses returns the addresses in list that fail IsValidAddress, in input order.
func InvalidAddresses(list []types.Recipient) []string {
	var bad []string
	for _, r := range list {
		if !IsValidAddress(r.Address) {
			bad = append(bad, r.Address)
		}
	}
	return bad
}
