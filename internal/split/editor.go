// internal/split/editor.go
package split

import (
	"errors"
	"fmt"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

var (
	ErrTooManyRecipients = fmt.Errorf("a split cannot have more than %d recipients", types.MaxRecipients)
	ErrTooFewRecipients  = fmt.Errorf("a split needs at least %d recipients", types.MinRecipients)
	ErrIndexOutOfRange   = errors.New("recipient index out of range")
)

// DistributeEvenly gives every recipient 100/n percent.
func DistributeEvenly(list []types.Recipient) []types.Recipient {
	out := types.CloneRecipients(list)
	if len(out) == 0 {
		return out
	}
	even := 100 / float64(len(out))
	for i := range out {
		out[i].Percentage = even
	}
	return out
}

// AddRecipient appends an empty row and re-spreads all percentages evenly.
func AddRecipient(list []types.Recipient) ([]types.Recipient, error) {
	if len(list) >= types.MaxRecipients {
		return types.CloneRecipients(list), ErrTooManyRecipients
	}
	out := append(types.CloneRecipients(list), types.Recipient{})
	return DistributeEvenly(out), nil
}

// RemoveRecipient drops row i and re-spreads the rest evenly.
func RemoveRecipient(list []types.Recipient, i int) ([]types.Recipient, error) {
	if i < 0 || i >= len(list) {
		return types.CloneRecipients(list), ErrIndexOutOfRange
	}
	if len(list) <= types.MinRecipients {
		return types.CloneRecipients(list), ErrTooFewRecipients
	}
	out := make([]types.Recipient, 0, len(list)-1)
	out = append(out, list[:i]...)
	out = append(out, list[i+1:]...)
	return DistributeEvenly(out), nil
}
