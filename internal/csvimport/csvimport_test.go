package csvimport

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func addr() string { return solana.NewWallet().PublicKey().String() }

func TestParseWithHeaderAndCRLF(t *testing.T) {
	a, b := addr(), addr()
	input := fmt.Sprintf("Address,Percentage\r\n%s, 60\r\n\r\n %s ,40%%\r\n", a, b)

	recipients, errs := Parse(strings.NewReader(input))
	require.Empty(t, errs)
	assert.Equal(t, []types.Recipient{{Address: a, Percentage: 60}, {Address: b, Percentage: 40}}, recipients)
}

func TestParseHeaderOnlyMatchesFirstCell(t *testing.T) {
	a, b, c := addr(), addr(), addr()
	input := fmt.Sprintf("%s,50,home address\n%s,25\n%s,25\n", a, b, c)

	recipients, errs := Parse(strings.NewReader(input))
	require.Empty(t, errs)
	require.Len(t, recipients, 3)
	assert.Equal(t, types.Recipient{Address: a, Percentage: 50}, recipients[0])

	recipients, errs = Parse(strings.NewReader(fmt.Sprintf("Wallet Address,Share\n%s,100\n", a)))
	require.Empty(t, errs)
	assert.Len(t, recipients, 1)
}

func TestParseCollectsEveryRowError(t *testing.T) {
	a := addr()
	input := strings.Join([]string{
		a + ",50",
		"just-one-field",
		"nope,10",
		a + ",-3",
		a + ",abc",
	}, "\n")

	recipients, errs := Parse(strings.NewReader(input))
	require.Len(t, recipients, 1)
	require.Len(t, errs, 4)

	assert.Equal(t, `Line 2: Invalid format. Expected "address, percentage"`, errs[0].Error())
	assert.Equal(t, `Line 3: Invalid Solana address "nope"`, errs[1].Error())
	assert.Equal(t, `Line 4: Invalid percentage/amount "-3"`, errs[2].Error())
	assert.Equal(t, `Line 5: Invalid percentage/amount "abc"`, errs[3].Error())
	assert.ErrorIs(t, errs[0], types.ErrParse)
}

func TestParseEmptyAndUnreadable(t *testing.T) {
	_, errs := Parse(strings.NewReader("\n  \n"))
	require.Len(t, errs, 1)
	assert.Equal(t, "Empty file", errs[0].Error())

	_, errs = Parse(failingReader{})
	require.Len(t, errs, 1)
	assert.Equal(t, "Failed to parse CSV file", errs[0].Error())
}

func TestImport(t *testing.T) {
	im := NewImporter(zaptest.NewLogger(t))

	t.Run("valid", func(t *testing.T) {
		input := fmt.Sprintf("%s,33.33\n%s,33.33\n%s,33.34\n", addr(), addr(), addr())
		recipients, err := im.Import(strings.NewReader(input))
		require.NoError(t, err)
		assert.Len(t, recipients, 3)
	})

	t.Run("within loose tolerance", func(t *testing.T) {
		input := fmt.Sprintf("%s,50\n%s,49.95\n", addr(), addr())
		recipients, err := im.Import(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 49.95, recipients[1].Percentage)
	})

	t.Run("sum is 95", func(t *testing.T) {
		input := fmt.Sprintf("%s,50\n%s,45\n", addr(), addr())
		_, err := im.Import(strings.NewReader(input))
		require.Error(t, err)
		assert.True(t, IsParseError(err))
		assert.Contains(t, err.Error(), "95")
		assert.Equal(t, "Total percentage in CSV is 95%, must be 100%", err.Error())
	})

	t.Run("too few", func(t *testing.T) {
		_, err := im.Import(strings.NewReader(addr() + ",100\n"))
		require.Error(t, err)
		assert.Equal(t, "CSV must contain between 2 and 5 recipients", err.Error())
	})

	t.Run("too many", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 6; i++ {
			fmt.Fprintf(&sb, "%s,%s\n", addr(), "16.67")
		}
		_, err := im.Import(strings.NewReader(sb.String()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "between 2 and 5")
	})

	t.Run("row error reported first", func(t *testing.T) {
		input := fmt.Sprintf("%s,50\nbad,50\nworse,x\n", addr())
		_, err := im.Import(strings.NewReader(input))
		require.Error(t, err)
		assert.Equal(t, `CSV Error: Line 2: Invalid Solana address "bad"`, err.Error())
		assert.True(t, IsParseError(err))
	})
}
