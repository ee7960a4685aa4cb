package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

func newAddress() string {
	return solana.NewWallet().PublicKey().String()
}

func TestIsValidAddress(t *testing.T) {
	pda, _, err := solana.FindProgramAddress([][]byte{[]byte("splitter")}, solana.SystemProgramID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"generated key", newAddress(), true},
		{"empty", "", false},
		{"not base58", "0OIl-not-base58", false},
		{"too short", "3yZe7d", false},
		{"too long", newAddress() + "abc", false},
		{"off curve program address", pda.String(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAddress(tt.address))
		})
	}
}

func TestValidateAmount(t *testing.T) {
	assert.True(t, ValidateAmount(0.5))
	assert.True(t, ValidateAmount(10))
	assert.False(t, ValidateAmount(0))
	assert.False(t, ValidateAmount(-1))
	assert.False(t, ValidateAmount(math.NaN()))
	assert.False(t, ValidateAmount(math.Inf(1)))
}

func TestValidateRecipientsAcceptsValidLists(t *testing.T) {
	lists := [][]types.Recipient{
		{{Address: newAddress(), Percentage: 60}, {Address: newAddress(), Percentage: 40}},
		{{Address: newAddress(), Percentage: 33.33}, {Address: newAddress(), Percentage: 33.33}, {Address: newAddress(), Percentage: 33.34}},
		{
			{Address: newAddress(), Percentage: 20}, {Address: newAddress(), Percentage: 20},
			{Address: newAddress(), Percentage: 20}, {Address: newAddress(), Percentage: 20},
			{Address: newAddress(), Percentage: 20},
		},
	}
	for _, list := range lists {
		res := ValidateRecipients(list)
		assert.True(t, res.IsValid)
		assert.Empty(t, res.Errors)
		assert.NoError(t, res.Err())
	}
}

func TestValidateRecipientsCountBound(t *testing.T) {
	list := make([]types.Recipient, 6)
	for i := range list {
		list[i] = types.Recipient{Address: newAddress(), Percentage: 100.0 / 6}
	}
	res := ValidateRecipients(list)
	require.False(t, res.IsValid)
	assert.Contains(t, res.Errors[0], "between 2 and 5")

	res = ValidateRecipients([]types.Recipient{{Address: newAddress(), Percentage: 100}})
	require.False(t, res.IsValid)
	assert.Contains(t, res.Errors[0], "between 2 and 5")
}

func TestValidateRecipientsDuplicateCaseInsensitive(t *testing.T) {
	res := ValidateRecipients([]types.Recipient{
		{Address: "AbCdEf", Percentage: 50},
		{Address: "abcdef", Percentage: 50},
	})
	require.False(t, res.IsValid)
	assert.Equal(t, []string{"Duplicate recipient addresses are not allowed"}, res.Errors)
}

func TestValidateRecipientsCollectsAllErrorsInOrder(t *testing.T) {
	res := ValidateRecipients([]types.Recipient{
		{Address: " ", Percentage: 0},
	})
	require.False(t, res.IsValid)
	require.Len(t, res.Errors, 4)
	assert.Contains(t, res.Errors[0], "between 2 and 5")
	assert.Equal(t, "All recipient addresses must be filled", res.Errors[1])
	assert.Equal(t, "Percentages must sum to 100% (currently 0.00%)", res.Errors[2])
	assert.Equal(t, "Each percentage must be between 0 and 100", res.Errors[3])

	err := res.Err()
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.True(t, strings.HasPrefix(err.Error(), "You must have"))
}

func TestValidateRecipientsSumTolerance(t *testing.T) {
	a, b := newAddress(), newAddress()
	assert.True(t, ValidateRecipients([]types.Recipient{{Address: a, Percentage: 50.005}, {Address: b, Percentage: 50}}).IsValid)

	res := ValidateRecipients([]types.Recipient{{Address: a, Percentage: 50.02}, {Address: b, Percentage: 50}})
	require.False(t, res.IsValid)
	assert.Equal(t, []string{"Percentages must sum to 100% (currently 100.02%)"}, res.Errors)
}

func TestValidateRecipientsRejectsOutOfRangeAndNaN(t *testing.T) {
	res := ValidateRecipients([]types.Recipient{{Address: "a", Percentage: 150}, {Address: "b", Percentage: -50}})
	require.False(t, res.IsValid)
	assert.Equal(t, []string{"Each percentage must be between 0 and 100"}, res.Errors)

	res = ValidateRecipients([]types.Recipient{{Address: "a", Percentage: math.NaN()}, {Address: "b", Percentage: 100}})
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors, "Each percentage must be between 0 and 100")
}

func TestInvalidAddresses(t *testing.T) {
	good := newAddress()
	bad := InvalidAddresses([]types.Recipient{{Address: good}, {Address: "nope"}})
	assert.Equal(t, []string{"nope"}, bad)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "33.33%", FormatPercentage(33.333))
	assert.Equal(t, "abcd...wxyz", TruncateAddress("abcdefghijklmnopqrstuvwxyz", 4))
	assert.Equal(t, "short", TruncateAddress("short", 4))
}
