package optimization

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelCurrencies_SmoothsFloatNoise(t *testing.T) {
	sleeves := []stepSleeve{
		dv01Sleeve(2, "EUR"),
		dv01Sleeve(2, "USD"),
		{Sleeve: Sleeve{Group: CS01, Tenor: 2, Currency: "EUR"}, kappa: 2},
	}
	amounts := []float64{0.25 + 1e-12, 0.25 - 1e-12, 0.5}

	levelled, err := levelCurrencies(sleeves, amounts, 1e-6)
	require.NoError(t, err)

	assert.Equal(t, levelled[0], levelled[1])
	assert.InDelta(t, 0.25, levelled[0], 1e-15)
	assert.Equal(t, 0.5, levelled[2])
	assert.Equal(t, 0.25+1e-12, amounts[0], "input is not modified")
}

func TestLevelCurrencies_RejectsBrokenParity(t *testing.T) {
	sleeves := []stepSleeve{dv01Sleeve(2, "EUR"), dv01Sleeve(2, "USD")}

	_, err := levelCurrencies(sleeves, []float64{0.4, 0.6}, 1e-6)
	assert.Error(t, err)
}

func TestVerifyParity(t *testing.T) {
	unit := decimal.RequireFromString("0.01")
	allocation := func(bucket, currency, amount string) AllocationResult {
		return AllocationResult{
			BucketID: bucket,
			Sleeve:   Sleeve{Group: DV01, Tenor: 2, Currency: currency},
			Amount:   decimal.RequireFromString(amount),
		}
	}

	t.Run("equal amounts", func(t *testing.T) {
		assert.NoError(t, VerifyParity([]AllocationResult{
			allocation("2Y", "EUR", "333.33"),
			allocation("2Y", "USD", "333.33"),
		}, unit))
	})

	t.Run("residue within tolerance", func(t *testing.T) {
		assert.NoError(t, VerifyParity([]AllocationResult{
			allocation("2Y", "EUR", "333.33"),
			allocation("2Y", "USD", "333.33"),
			allocation("2Y", "GBP", "333.34"),
		}, unit))
	})

	t.Run("same tenor in different buckets is independent", func(t *testing.T) {
		assert.NoError(t, VerifyParity([]AllocationResult{
			allocation("2Y", "EUR", "100"),
			allocation("3Y", "EUR", "900"),
		}, unit))
	})

	t.Run("two units apart", func(t *testing.T) {
		assert.Error(t, VerifyParity([]AllocationResult{
			allocation("2Y", "EUR", "16.67"),
			allocation("2Y", "USD", "16.65"),
		}, unit))
	})

	t.Run("broken parity", func(t *testing.T) {
		assert.Error(t, VerifyParity([]AllocationResult{
			allocation("2Y", "EUR", "400"),
			allocation("2Y", "USD", "600"),
		}, unit))
	})
}
