package engine

import (
	"testing"

	"smartorder/internal/refdata"
	"smartorder/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestSizeBucket(t *testing.T) {
	assert.Equal(t, "small", sizeBucket(0.049))
	assert.Equal(t, "medium", sizeBucket(0.05))
	assert.Equal(t, "medium", sizeBucket(0.19))
	assert.Equal(t, "large", sizeBucket(0.20))
}

func TestMatchHistorical(t *testing.T) {
	hist := []refdata.HistoricalOrderRecord{
		{ClientID: "C1", Symbol: "ACME", SizeBucket: "medium", VolatilityBucket: types.BucketLow, AlgoUsed: types.AlgoVWAP, AggressionUsed: types.AggressionLow},
		{ClientID: "C1", Symbol: "XYZ", SizeBucket: "medium", VolatilityBucket: types.BucketLow, AlgoUsed: types.AlgoVWAP, AggressionUsed: types.AggressionLow},
		{ClientID: "C1", Symbol: "ACME", SizeBucket: "medium", VolatilityBucket: types.BucketHigh, AlgoUsed: types.AlgoPOV, AggressionUsed: types.AggressionHigh},
		{ClientID: "C2", Symbol: "ACME", SizeBucket: "medium", VolatilityBucket: types.BucketLow, AlgoUsed: types.AlgoIceberg, AggressionUsed: types.AggressionMedium},
	}
	ctx := Context{
		Request:          types.OrderRequest{ClientID: "C1", Symbol: "ACME"},
		SizeVsADV:        0.10,
		VolatilityBucket: types.BucketLow,
	}

	t.Run("Primary Filter Ignores Symbol", func(t *testing.T) {
		res := matchHistorical(ctx, hist)
		assert.NotNil(t, res.Algo)
		assert.Equal(t, types.AlgoVWAP, *res.Algo)
		assert.Equal(t, types.AggressionLow, *res.Aggression)
		assert.Contains(t, res.Reasons, "Client historically prefers VWAP (size bucket=medium, vol=Low)")
		assert.Contains(t, res.Reasons, "Historical aggression for this context: Low")
	})

	t.Run("Falls Back Without Volatility Match", func(t *testing.T) {
		c := ctx
		c.VolatilityBucket = types.BucketMedium
		res := matchHistorical(c, hist)
		// Fallback spans all three C1 medium rows; VWAP wins 2 to 1.
		assert.Equal(t, types.AlgoVWAP, *res.Algo)
	})

	t.Run("No Match No Preference", func(t *testing.T) {
		c := ctx
		c.SizeVsADV = 0.30
		res := matchHistorical(c, hist)
		assert.Nil(t, res.Algo)
		assert.Nil(t, res.Aggression)
		assert.Empty(t, res.Reasons)
	})

	t.Run("Mode Tie Breaks Lexicographically", func(t *testing.T) {
		tied := []refdata.HistoricalOrderRecord{
			{ClientID: "C1", SizeBucket: "medium", VolatilityBucket: types.BucketLow, AlgoUsed: types.AlgoVWAP, AggressionUsed: types.AggressionHigh},
			{ClientID: "C1", SizeBucket: "medium", VolatilityBucket: types.BucketLow, AlgoUsed: types.AlgoPOV, AggressionUsed: types.AggressionLow},
		}
		res := matchHistorical(ctx, tied)
		// "ICEBERG" is absent; between POV and VWAP the smaller string wins.
		assert.Equal(t, types.AlgoPOV, *res.Algo)
		assert.Equal(t, types.AggressionHigh, *res.Aggression)
	})
}
