package engine

import (
	"sort"
	"time"

	"smartorder/internal/refdata"
	"smartorder/internal/types"
)

// Documented fallbacks for absent reference rows. Absence is expected and
// never an error.
const (
	defaultADV          = 1.0
	defaultIntradayVol  = 0.015
	defaultAvgTradeSize = 500
	defaultSpread       = 0.0
)

// Context is the per-request feature set every downstream stage reads. It is
// built once from the request, the reference snapshot, and a single clock
// sample, and never mutated afterward.
type Context struct {
	Request types.OrderRequest
	Now     time.Time

	Client     *refdata.ClientProfile
	Instrument *refdata.InstrumentProfile
	Market     *refdata.MarketSnapshot

	ADV       float64
	SizeVsADV float64

	// VolatilityBucket is derived from intraday volatility; the instrument's
	// static bucket is kept separately.
	VolatilityBucket    types.Bucket
	InstrumentVolBucket types.Bucket
	LiquidityBucket     types.Bucket
	LiquidityScore      float64

	IntradayVol  float64
	Spread       float64
	Bid          float64
	Ask          float64
	Last         float64
	AvgTradeSize float64

	TimeToCloseRequest   int
	TimeToCloseSystem    int
	EffectiveTimeToClose int
	UrgencyLevel         types.Bucket

	NotesFlags   NoteFlags
	NotesIntents NoteIntents

	FatFinger      bool
	ToleranceRatio *float64
}

func assembleContext(req types.OrderRequest, snap refdata.Snapshot, now time.Time, session Session) Context {
	ctx := Context{Request: req, Now: now}
	ctx.Client = snap.Client(req.ClientID)
	ctx.Instrument = snap.Instrument(req.Symbol)
	ctx.Market = snap.Market(req.Symbol)

	ctx.ADV = defaultADV
	ctx.InstrumentVolBucket = types.BucketMedium
	ctx.LiquidityBucket = types.BucketMedium
	if ctx.Instrument != nil {
		if ctx.Instrument.ADV > 0 {
			ctx.ADV = ctx.Instrument.ADV
		}
		if ctx.Instrument.VolatilityBucket != "" {
			ctx.InstrumentVolBucket = ctx.Instrument.VolatilityBucket
		}
		if ctx.Instrument.LiquidityBucket != "" {
			ctx.LiquidityBucket = ctx.Instrument.LiquidityBucket
		}
	}
	ctx.SizeVsADV = float64(req.OrderSize) / ctx.ADV

	ctx.Spread = defaultSpread
	ctx.IntradayVol = defaultIntradayVol
	ctx.AvgTradeSize = defaultAvgTradeSize
	if ctx.Market != nil {
		ctx.Spread = ctx.Market.Spread
		if ctx.Market.IntradayVol > 0 {
			ctx.IntradayVol = ctx.Market.IntradayVol
		}
		if ctx.Market.LastTradeSize > 0 {
			ctx.AvgTradeSize = ctx.Market.LastTradeSize
		}
		ctx.Bid = ctx.Market.Bid
		ctx.Ask = ctx.Market.Ask
		ctx.Last = ctx.Market.LTP
	}

	ctx.VolatilityBucket = volatilityBucket(ctx.IntradayVol)
	ctx.LiquidityScore = liquidityScore(ctx.ADV, ctx.Spread, ctx.AvgTradeSize)

	ctx.TimeToCloseRequest = req.TimeToClose
	ctx.TimeToCloseSystem = systemMinutesToClose(now, session)
	ctx.EffectiveTimeToClose = reconcileTimeToClose(ctx.TimeToCloseRequest, ctx.TimeToCloseSystem)

	ctx.NotesFlags = parseNoteFlags(req.Notes)
	ctx.NotesIntents = parseNoteIntents(req.Notes)
	ctx.UrgencyLevel = urgencyLevel(ctx.EffectiveTimeToClose, ctx.NotesIntents.Urgency)

	ctx.FatFinger, ctx.ToleranceRatio = historicalTolerance(req.ClientID, req.Symbol, ctx.SizeVsADV, snap.Historical())
	return ctx
}

// volatilityBucket maps numeric intraday volatility to a coarse bucket.
func volatilityBucket(vol float64) types.Bucket {
	switch {
	case vol <= 0.01:
		return types.BucketLow
	case vol <= 0.02:
		return types.BucketMedium
	default:
		return types.BucketHigh
	}
}

// liquidityScore is a proxy combining ADV (millions of shares), average
// trade size (thousands) and spread; tighter spreads score higher.
func liquidityScore(adv, spread, avgTradeSize float64) float64 {
	spreadPenalty := spread
	if spreadPenalty < 0.01 {
		spreadPenalty = 0.01
	}
	return (adv/1e6*0.6 + avgTradeSize/1000.0*0.4) / spreadPenalty
}

func systemMinutesToClose(now time.Time, session Session) int {
	closeAt := time.Date(now.Year(), now.Month(), now.Day(), session.CloseHour, session.CloseMinute, 0, 0, now.Location())
	delta := int(closeAt.Sub(now).Minutes())
	if delta < 0 {
		return 0
	}
	return delta
}

// reconcileTimeToClose merges the request-supplied and clock-derived minutes
// to close. Either side may be stale (after-hours clock, optimistic desk
// input); when both are usable the tighter one wins.
func reconcileTimeToClose(request, system int) int {
	switch {
	case system <= 0 && request > 0:
		return request
	case request <= 0 && system > 0:
		return system
	case request > 0 && system > 0:
		return min(request, system)
	default:
		return 0
	}
}

// urgencyLevel derives a base level from the effective minutes to close and
// applies the notes intent: HIGH forces High, MEDIUM upgrades Low only, and
// LOW is advisory and never downgrades.
func urgencyLevel(effectiveTTC int, intent IntentLevel) types.Bucket {
	level := types.BucketLow
	switch {
	case effectiveTTC < 15:
		level = types.BucketHigh
	case effectiveTTC < 60:
		level = types.BucketMedium
	}
	switch intent {
	case IntentHigh:
		level = types.BucketHigh
	case IntentMedium:
		if level == types.BucketLow {
			level = types.BucketMedium
		}
	}
	return level
}

var sizeBucketRatio = map[string]float64{
	"small":  0.02,
	"medium": 0.10,
	"large":  0.30,
}

// historicalTolerance derives a fat-finger threshold from the client's past
// size buckets: 3x the median bucket ratio. Rows are matched by
// client+symbol first, then client only; no matching rows means no opinion.
func historicalTolerance(clientID, symbol string, sizeVsADV float64, hist []refdata.HistoricalOrderRecord) (bool, *float64) {
	var ratios []float64
	collect := func(matchSymbol bool) {
		ratios = ratios[:0]
		for _, rec := range hist {
			if rec.ClientID != clientID {
				continue
			}
			if matchSymbol && rec.Symbol != symbol {
				continue
			}
			if ratio, ok := sizeBucketRatio[rec.SizeBucket]; ok {
				ratios = append(ratios, ratio)
			}
		}
	}
	collect(true)
	if len(ratios) == 0 {
		collect(false)
	}
	if len(ratios) == 0 {
		return false, nil
	}
	tolerance := median(ratios) * 3.0
	return sizeVsADV > tolerance, &tolerance
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
