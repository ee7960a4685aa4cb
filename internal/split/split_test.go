package split

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

func amounts(res types.SplitResult) []uint64 {
	out := make([]uint64, len(res.Transfers))
	for i, t := range res.Transfers {
		out[i] = t.Amount
	}
	return out
}

func TestComputeExactTwoWay(t *testing.T) {
	total, err := ToMinorUnits(10.0, types.LamportsPerSOL)
	require.NoError(t, err)

	res := Compute(total, []types.Recipient{{Address: "Addr1", Percentage: 60}, {Address: "Addr2", Percentage: 40}})

	assert.Equal(t, []uint64{6_000_000_000, 4_000_000_000}, amounts(res))
	assert.Equal(t, total, res.Sum())
	assert.Zero(t, res.Remainder())
}

func TestComputeKeepsRoundingRemainder(t *testing.T) {
	total, err := ToMinorUnits(1.0, 100)
	require.NoError(t, err)

	res := Compute(total, []types.Recipient{
		{Address: "Addr1", Percentage: 33.33},
		{Address: "Addr2", Percentage: 33.33},
		{Address: "Addr3", Percentage: 33.34},
	})

	assert.Equal(t, []uint64{33, 33, 33}, amounts(res))
	assert.Equal(t, uint64(99), res.Sum())
	assert.Equal(t, uint64(1), res.Remainder())
}

func TestComputeZeroTotal(t *testing.T) {
	res := Compute(0, []types.Recipient{{Address: "a", Percentage: 50}, {Address: "b", Percentage: 50}})
	assert.Equal(t, []uint64{0, 0}, amounts(res))
}

func TestComputeFloorsEachTermOnItsDecimalValue(t *testing.T) {
	// 100 * 0.29 is 28.999999999999996 in binary floating point.
	res := Compute(100, []types.Recipient{{Address: "a", Percentage: 29}, {Address: "b", Percentage: 71}})
	assert.Equal(t, []uint64{29, 71}, amounts(res))
}

func TestComputeInvalidPercentagesDoNotPanic(t *testing.T) {
	res := Compute(1000, []types.Recipient{
		{Address: "a", Percentage: math.NaN()},
		{Address: "b", Percentage: -10},
		{Address: "c", Percentage: 150},
	})
	assert.Equal(t, []uint64{0, 0, 1500}, amounts(res))
}

func TestComputeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 500; iter++ {
		n := types.MinRecipients + rng.Intn(types.MaxRecipients-types.MinRecipients+1)
		// hundredths of a percent, each at least 1, summing to exactly 10000
		cents := make([]int, n)
		left := 10000
		for i := 0; i < n-1; i++ {
			maxTake := left - (n - 1 - i)
			cents[i] = 1 + rng.Intn(maxTake)
			left -= cents[i]
		}
		cents[n-1] = left

		recipients := make([]types.Recipient, n)
		for i, c := range cents {
			recipients[i] = types.Recipient{Address: fmt.Sprintf("addr-%d", i), Percentage: float64(c) / 100}
		}
		total := uint64(rng.Int63n(1 << 50))

		res := Compute(total, recipients)
		again := Compute(total, recipients)
		require.Equal(t, res, again, "split must be deterministic")

		var expected uint64
		for i, tr := range res.Transfers {
			require.Equal(t, recipients[i].Address, tr.Address, "order must be preserved")
			want := total * uint64(cents[i]) / 10000
			if total < math.MaxUint64/10000 {
				require.Equal(t, want, tr.Amount)
			}
			expected += tr.Amount
		}
		require.LessOrEqual(t, res.Sum(), total)
		require.Equal(t, total-expected, res.Remainder())
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount float64
		units  uint64
		want   uint64
	}{
		{0.1, types.LamportsPerSOL, 100_000_000},
		{1.5, types.LamportsPerSOL, 1_500_000_000},
		{0.0000000019, types.LamportsPerSOL, 1},
		{0, types.LamportsPerSOL, 0},
		{1.0, 100, 100},
	}
	for _, tt := range tests {
		got, err := ToMinorUnits(tt.amount, tt.units)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "amount %v", tt.amount)
	}

	_, err := ToMinorUnits(math.NaN(), types.LamportsPerSOL)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ToMinorUnits(-1, types.LamportsPerSOL)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ToMinorUnits(1e20, types.LamportsPerSOL)
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestOverAllocationHasNoRemainder(t *testing.T) {
	res := Compute(100, []types.Recipient{{Address: "a", Percentage: 60}, {Address: "b", Percentage: 60}})
	assert.Equal(t, uint64(120), res.Sum())
	assert.Zero(t, res.Remainder())
}

func TestShareOfMatchesTransferredAmount(t *testing.T) {
	res := Compute(1_000_000_000, []types.Recipient{{Address: "a", Percentage: 33.33}, {Address: "b", Percentage: 66.67}})

	assert.Equal(t, FromMinorUnits(res.Transfers[0].Amount, types.LamportsPerSOL), ShareOf(1, 33.33))
	assert.Equal(t, FromMinorUnits(res.Transfers[1].Amount, types.LamportsPerSOL), ShareOf(1, 66.67))
	assert.Equal(t, 0.3333, ShareOf(1, 33.33))
	assert.Equal(t, 0.000000003, ShareOf(0.00000001, 33.33), "floored to whole lamports")
	assert.Zero(t, ShareOf(math.NaN(), 50))
	assert.Zero(t, ShareOf(1, -5))
}

func TestFromMinorUnits(t *testing.T) {
	assert.InDelta(t, 1.5, FromMinorUnits(1_500_000_000, types.LamportsPerSOL), 1e-12)
	assert.Zero(t, FromMinorUnits(5, 0))
}

func TestEditor(t *testing.T) {
	draft := []types.Recipient{{Percentage: 50}, {Percentage: 50}}

	list, err := AddRecipient(draft)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, r := range list {
		assert.InDelta(t, 100.0/3, r.Percentage, 1e-9)
	}
	assert.Equal(t, 50.0, draft[0].Percentage, "input must not be mutated")

	for len(list) < types.MaxRecipients {
		list, err = AddRecipient(list)
		require.NoError(t, err)
	}
	_, err = AddRecipient(list)
	assert.ErrorIs(t, err, ErrTooManyRecipients)

	list[0].Address = "first"
	list[1].Address = "second"
	list, err = RemoveRecipient(list, 0)
	require.NoError(t, err)
	assert.Equal(t, "second", list[0].Address)
	assert.InDelta(t, 25.0, list[0].Percentage, 1e-9)

	_, err = RemoveRecipient(draft, 0)
	assert.ErrorIs(t, err, ErrTooFewRecipients)
	_, err = RemoveRecipient(draft, 7)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	uneven := []types.Recipient{{Percentage: 90}, {Percentage: 10}}
	assert.Equal(t, []types.Recipient{{Percentage: 50}, {Percentage: 50}}, DistributeEvenly(uneven))
}
