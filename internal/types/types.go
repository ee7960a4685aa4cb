// internal/types/types.go
package types

import "fmt"

// LamportsPerSOL is the number of minor units in one whole SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// Recipient bounds for a single split.
const (
	MinRecipients = 2
	MaxRecipients = 5
)

// Recipient is one (address, percentage) pair of a split.
type Recipient struct {
	Address    string  `json:"address" yaml:"address"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

func (r Recipient) String() string {
	return fmt.Sprintf("%s (%v%%)", r.Address, r.Percentage)
}

// CloneRecipients returns an independent copy of the list.
func CloneRecipients(list []Recipient) []Recipient {
	if list == nil {
		return nil
	}
	out := make([]Recipient, len(list))
	copy(out, list)
	return out
}

// Transfer is one calculated per-recipient amount, in minor units.
type Transfer struct {
	Address string
	Amount  uint64
}

// SplitResult is the ordered outcome of a split, one Transfer per input recipient.
type SplitResult struct {
	Total     uint64
	Transfers []Transfer
}

// Sum returns the total amount actually distributed.
func (r SplitResult) Sum() uint64 {
	var sum uint64
	for _, t := range r.Transfers {
		sum += t.Amount
	}
	return sum
}

// Remainder is the rounding loss kept by the sender. It is 0 when the transfers over-allocate.
func (r SplitResult) Remainder() uint64 {
	sum := r.Sum()
	if sum >= r.Total {
		return 0
	}
	return r.Total - sum
}
