// internal/split/calculator.go
package split

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

var (
	ErrInvalidAmount  = errors.New("amount must be a finite, non-negative number")
	ErrAmountOverflow = errors.New("amount exceeds the representable minor-unit range")
)

// ToMinorUnits converts a user-facing decimal amount to minor units: floor(amount * unitsPerWhole).
// The float is read through its shortest decimal form, so 0.1 SOL is exactly 100_000_000 lamports.
func ToMinorUnits(amount float64, unitsPerWhole uint64) (uint64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	scaled := decimal.NewFromFloat(amount).Mul(fromUint64(unitsPerWhole)).Floor()
	n := scaled.BigInt()
	if !n.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return n.Uint64(), nil
}

// FromMinorUnits converts minor units back to the whole-unit decimal used for display.
func FromMinorUnits(amount, unitsPerWhole uint64) float64 {
	if unitsPerWhole == 0 {
		return 0
	}
	f, _ := new(big.Rat).SetFrac(
		new(big.Int).SetUint64(amount),
		new(big.Int).SetUint64(unitsPerWhole),
	).Float64()
	return f
}

// Compute splits total across recipients in input order, each share floor(total * pct / 100).
// Shares are floored independently; the difference to total is the sender's rounding loss and is
// never redistributed. Callers must validate recipients first: a list that does not sum to 100 is
// still computed term by term, non-finite or non-positive percentages yield 0.
func Compute(total uint64, recipients []types.Recipient) types.SplitResult {
	res := types.SplitResult{
		Total:     total,
		Transfers: make([]types.Transfer, len(recipients)),
	}
	t := fromUint64(total)
	for i, r := range recipients {
		res.Transfers[i] = types.Transfer{
			Address: r.Address,
			Amount:  share(t, r.Percentage),
		}
	}
	return res
}

func share(total decimal.Decimal, pct float64) uint64 {
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct <= 0 {
		return 0
	}
	n := total.Mul(decimal.NewFromFloat(pct)).Shift(-2).Floor().BigInt()
	if !n.IsUint64() {
		return math.MaxUint64
	}
	return n.Uint64()
}

// ShareOf is the SOL amount one recipient receives out of amount SOL: the same floored lamport
// share Compute transfers, converted back for display. Invalid input yields 0.
func ShareOf(amount, pct float64) float64 {
	total, err := ToMinorUnits(amount, types.LamportsPerSOL)
	if err != nil {
		return 0
	}
	return FromMinorUnits(share(fromUint64(total), pct), types.LamportsPerSOL)
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
