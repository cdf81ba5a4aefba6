package engine

import (
	"testing"
	"time"

	"smartorder/internal/refdata"
	"smartorder/internal/types"

	"github.com/stretchr/testify/assert"
)

func testSnapshot() refdata.Snapshot {
	return refdata.NewSnapshot(
		[]refdata.ClientProfile{
			{ClientID: "C1", AggressionBias: types.AggressionLow, ParticipationPref: 0.12},
		},
		[]refdata.InstrumentProfile{
			{Symbol: "ACME", ADV: 1_000_000, VolatilityBucket: types.BucketLow, LiquidityBucket: types.BucketHigh},
		},
		[]refdata.MarketSnapshot{
			{Symbol: "ACME", Spread: 0.05, IntradayVol: 0.008, LastTradeSize: 800, Bid: 50.00, Ask: 50.05, LTP: 50.02},
		},
		[]refdata.HistoricalOrderRecord{
			{ClientID: "C1", Symbol: "ACME", SizeBucket: "medium", VolatilityBucket: types.BucketLow, AlgoUsed: types.AlgoVWAP, AggressionUsed: types.AggressionLow},
			{ClientID: "C1", Symbol: "ACME", SizeBucket: "medium", VolatilityBucket: types.BucketLow, AlgoUsed: types.AlgoVWAP, AggressionUsed: types.AggressionLow},
			{ClientID: "C1", Symbol: "OTHER", SizeBucket: "small", VolatilityBucket: types.BucketMedium, AlgoUsed: types.AlgoPOV, AggressionUsed: types.AggressionMedium},
		},
	)
}

var testNow = time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC)

func TestAssembleContext(t *testing.T) {
	snap := testSnapshot()

	t.Run("Known References", func(t *testing.T) {
		req := types.OrderRequest{ClientID: "C1", Symbol: "ACME", OrderSize: 120_000, Side: types.SideBuy, TimeToClose: 120}
		ctx := assembleContext(req, snap, testNow, DefaultSession)

		assert.NotNil(t, ctx.Client)
		assert.NotNil(t, ctx.Instrument)
		assert.NotNil(t, ctx.Market)
		assert.InDelta(t, 0.12, ctx.SizeVsADV, 1e-9)
		assert.Equal(t, types.BucketLow, ctx.VolatilityBucket)
		assert.Equal(t, types.BucketHigh, ctx.LiquidityBucket)
		assert.Equal(t, 120, ctx.TimeToCloseRequest)
		assert.Equal(t, 180, ctx.TimeToCloseSystem)
		assert.Equal(t, 120, ctx.EffectiveTimeToClose)
	})

	t.Run("Unknown References Fall Back To Defaults", func(t *testing.T) {
		req := types.OrderRequest{ClientID: "ghost", Symbol: "NOPE", OrderSize: 3, Side: types.SideSell, TimeToClose: 30}
		ctx := assembleContext(req, snap, testNow, DefaultSession)

		assert.Nil(t, ctx.Client)
		assert.Nil(t, ctx.Instrument)
		assert.Nil(t, ctx.Market)
		assert.InDelta(t, 3.0, ctx.SizeVsADV, 1e-9) // ADV fallback is 1
		assert.Equal(t, types.BucketMedium, ctx.VolatilityBucket)
		assert.Equal(t, types.BucketMedium, ctx.LiquidityBucket)
		assert.InDelta(t, defaultAvgTradeSize, ctx.AvgTradeSize, 1e-9)
		assert.InDelta(t, defaultSpread, ctx.Spread, 1e-9)
	})
}

func TestVolatilityBucket(t *testing.T) {
	assert.Equal(t, types.BucketLow, volatilityBucket(0.01))
	assert.Equal(t, types.BucketMedium, volatilityBucket(0.015))
	assert.Equal(t, types.BucketMedium, volatilityBucket(0.02))
	assert.Equal(t, types.BucketHigh, volatilityBucket(0.021))
}

func TestLiquidityScore(t *testing.T) {
	t.Run("Spread Floor", func(t *testing.T) {
		// Zero spread is floored at 0.01 rather than dividing by zero.
		got := liquidityScore(1_000_000, 0, 500)
		assert.InDelta(t, (0.6+0.2)/0.01, got, 1e-9)
	})

	t.Run("Wide Spread Penalizes", func(t *testing.T) {
		tight := liquidityScore(1_000_000, 0.02, 500)
		wide := liquidityScore(1_000_000, 0.50, 500)
		assert.Greater(t, tight, wide)
	})
}

func TestReconcileTimeToClose(t *testing.T) {
	cases := []struct {
		name            string
		request, system int
		want            int
	}{
		{"System Stale", 90, 0, 90},
		{"Request Absent", 0, 45, 45},
		{"Both Present Takes Min", 120, 60, 60},
		{"Both Absent", 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, reconcileTimeToClose(tc.request, tc.system))
		})
	}
}

func TestUrgencyLevel(t *testing.T) {
	t.Run("From Time To Close", func(t *testing.T) {
		assert.Equal(t, types.BucketHigh, urgencyLevel(14, IntentNone))
		assert.Equal(t, types.BucketMedium, urgencyLevel(59, IntentNone))
		assert.Equal(t, types.BucketLow, urgencyLevel(60, IntentNone))
	})

	t.Run("Intent High Forces", func(t *testing.T) {
		assert.Equal(t, types.BucketHigh, urgencyLevel(240, IntentHigh))
	})

	t.Run("Intent Medium Upgrades Low Only", func(t *testing.T) {
		assert.Equal(t, types.BucketMedium, urgencyLevel(240, IntentMedium))
		assert.Equal(t, types.BucketHigh, urgencyLevel(10, IntentMedium))
	})

	t.Run("Intent Low Never Downgrades", func(t *testing.T) {
		assert.Equal(t, types.BucketHigh, urgencyLevel(10, IntentLow))
	})
}

func TestSystemMinutesToClose(t *testing.T) {
	session := DefaultSession

	t.Run("Intraday", func(t *testing.T) {
		now := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
		assert.Equal(t, 30, systemMinutesToClose(now, session))
	})

	t.Run("After Close Clamps To Zero", func(t *testing.T) {
		now := time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC)
		assert.Equal(t, 0, systemMinutesToClose(now, session))
	})
}

func TestHistoricalTolerance(t *testing.T) {
	hist := []refdata.HistoricalOrderRecord{
		{ClientID: "C1", Symbol: "ACME", SizeBucket: "small"},
		{ClientID: "C1", Symbol: "ACME", SizeBucket: "medium"},
		{ClientID: "C1", Symbol: "ACME", SizeBucket: "medium"},
		{ClientID: "C1", Symbol: "XYZ", SizeBucket: "large"},
		{ClientID: "C2", Symbol: "ACME", SizeBucket: "large"},
	}

	t.Run("Client And Symbol Match", func(t *testing.T) {
		// Median of {0.02, 0.10, 0.10} is 0.10, tolerance 0.30.
		flag, tol := historicalTolerance("C1", "ACME", 0.25, hist)
		assert.False(t, flag)
		assert.NotNil(t, tol)
		assert.InDelta(t, 0.30, *tol, 1e-9)

		flag, _ = historicalTolerance("C1", "ACME", 0.31, hist)
		assert.True(t, flag)
	})

	t.Run("Falls Back To Client Only", func(t *testing.T) {
		flag, tol := historicalTolerance("C2", "UNSEEN", 0.5, hist)
		assert.False(t, flag)
		assert.NotNil(t, tol)
		assert.InDelta(t, 0.90, *tol, 1e-9)
	})

	t.Run("No History No Opinion", func(t *testing.T) {
		flag, tol := historicalTolerance("ghost", "ACME", 99, hist)
		assert.False(t, flag)
		assert.Nil(t, tol)
	})
}

func TestMedian(t *testing.T) {
	assert.InDelta(t, 0.10, median([]float64{0.30, 0.10, 0.02}), 1e-9)
	assert.InDelta(t, 0.06, median([]float64{0.10, 0.02}), 1e-9)
}
