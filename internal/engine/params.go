package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smartorder/internal/types"
)

// Session window bounds for the synthetic start clamp and end-of-day cap.
const (
	sessionOpenHour    = 9
	sessionOpenMinute  = 30
	sessionLateHour    = 15
	sessionLateMinute  = 55
	sessionCapHour     = 15
	sessionCapMinute   = 59
	defaultStartHour   = 10
	defaultStartMinute = 0
)

func decRound2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// buildCoreFields resolves the core ticket fields: order type, limit price,
// execution window, and time in force.
func buildCoreFields(ctx Context, chosen types.Algo, ruleOrderType *types.OrderType) (types.CoreOrderFields, []string) {
	var reasons []string

	orderType := types.OrderTypeLimit
	switch {
	case ruleOrderType != nil:
		orderType = *ruleOrderType
		reasons = append(reasons, fmt.Sprintf("Order type: %s (rule)", orderType))
	case strings.Contains(strings.ToLower(ctx.Request.Notes), "stop"):
		orderType = types.OrderTypeStop
		reasons = append(reasons, "Order type: Stop (notes)")
	case ctx.UrgencyLevel == types.BucketHigh &&
		(ctx.LiquidityBucket == types.BucketHigh || ctx.LiquidityBucket == types.BucketMedium) &&
		ctx.Spread <= 0.10:
		orderType = types.OrderTypeMarket
		reasons = append(reasons, "Order type: Market (urgency, liquidity)")
	default:
		reasons = append(reasons, "Order type: Limit")
	}

	var limitPrice *float64
	if orderType == types.OrderTypeLimit || orderType == types.OrderTypeStop {
		limitPrice = protectionBandedLimit(ctx.Request.Side, ctx.Bid, ctx.Ask, ctx.Last, ctx.Spread)
		if limitPrice != nil {
			reasons = append(reasons, "Limit: bid/ask band")
		}
	}

	start := syntheticSessionStart(ctx.Now)
	window := executionWindow(ctx.EffectiveTimeToClose, ctx.UrgencyLevel)
	end := start.Add(time.Duration(window) * time.Minute)
	dayCap := time.Date(start.Year(), start.Month(), start.Day(), sessionCapHour, sessionCapMinute, 0, 0, start.Location())
	if end.After(dayCap) {
		end = dayCap
	}

	tif := types.TIFDay
	if ctx.EffectiveTimeToClose <= 5 {
		tif = types.TIFIOC
	}
	reasons = append(reasons, fmt.Sprintf("TIF: %s (%dm window)", tif, window))

	core := types.CoreOrderFields{
		OrderType:   orderType,
		LimitPrice:  limitPrice,
		Side:        ctx.Request.Side,
		TimeInForce: tif,
		StartTime:   start.Format("15:04"),
		EndTime:     end.Format("15:04"),
		AlgoType:    chosen,
	}
	return core, reasons
}

// protectionBandedLimit prices a passive limit inside the spread. Buys lean
// on the bid and never cross more than one spread through the ask; sells
// mirror that against the bid. Zero prices mean no reference; all three
// absent yields nil.
func protectionBandedLimit(side types.Side, bid, ask, last, spread float64) *float64 {
	if last == 0 && bid == 0 && ask == 0 {
		return nil
	}
	if bid == 0 && ask != 0 {
		bid = ask - spread
	}
	if ask == 0 && bid != 0 {
		ask = bid + spread
	}
	if bid == 0 {
		bid = last
	}
	if ask == 0 {
		ask = last
	}
	if spread == 0 {
		spread = ask - bid
		if spread < 0.01 {
			spread = 0.01
		}
	}

	var limit float64
	if side == types.SideBuy {
		limit = bid + 0.25*spread
		if upper := ask + spread; limit > upper {
			limit = upper
		}
	} else {
		limit = ask - 0.25*spread
		if lower := bid - spread; limit < lower {
			limit = lower
		}
	}
	rounded := decRound2(limit)
	return &rounded
}

// syntheticSessionStart truncates the clock sample to the minute and clamps
// it into the 09:30..15:55 session; outside that it snaps to 10:00 so demo
// tickets never start after hours.
func syntheticSessionStart(now time.Time) time.Time {
	start := now.Truncate(time.Minute)
	open := time.Date(start.Year(), start.Month(), start.Day(), sessionOpenHour, sessionOpenMinute, 0, 0, start.Location())
	late := time.Date(start.Year(), start.Month(), start.Day(), sessionLateHour, sessionLateMinute, 0, 0, start.Location())
	if start.Before(open) || start.After(late) {
		return time.Date(start.Year(), start.Month(), start.Day(), defaultStartHour, defaultStartMinute, 0, 0, start.Location())
	}
	return start
}

// executionWindow caps the window by urgency and bounds it by the effective
// minutes to close, with a 10 minute floor whenever any time remains.
func executionWindow(effectiveTTC int, urgency types.Bucket) int {
	var window int
	switch urgency {
	case types.BucketHigh:
		window = min(effectiveTTC, 30)
	case types.BucketMedium:
		window = min(effectiveTTC, 90)
	default:
		window = min(effectiveTTC, 240)
	}
	if effectiveTTC > 0 && window < 10 {
		window = min(effectiveTTC, 10)
	}
	return window
}

const (
	participationFloor = 0.05
	participationCap   = 0.30
)

// buildAlgoParameters resolves aggression and the strategy-specific
// parameters for the chosen algo.
func buildAlgoParameters(ctx Context, chosen types.Algo, ruleAggression, patternAggression *types.Aggression) (types.AlgoParameters, []string) {
	var reasons []string

	// Aggression precedence, last applied wins: client default, notes,
	// urgency bump, pattern, rule.
	aggression := types.AggressionMedium
	if ctx.Client != nil && ctx.Client.AggressionBias != "" {
		aggression = ctx.Client.AggressionBias
	}
	switch ctx.NotesIntents.AggressionPreference {
	case IntentHigh:
		aggression = types.AggressionHigh
		reasons = append(reasons, "Aggression: High (notes)")
	case IntentLow:
		aggression = types.AggressionLow
		reasons = append(reasons, "Aggression: Low (notes)")
	}
	if ctx.UrgencyLevel == types.BucketHigh && aggression != types.AggressionHigh {
		aggression = types.AggressionHigh
		reasons = append(reasons, "Aggression: High (urgency)")
	}
	if patternAggression != nil {
		aggression = *patternAggression
		reasons = append(reasons, fmt.Sprintf("Aggression: %s (history)", aggression))
	}
	if ruleAggression != nil {
		aggression = *ruleAggression
		reasons = append(reasons, fmt.Sprintf("Aggression: %s (rule)", aggression))
	}

	params := types.AlgoParameters{AggressionLevel: aggression}

	switch chosen {
	case types.AlgoPOV:
		base := 0.10
		if ctx.Client != nil && ctx.Client.ParticipationPref > 0 {
			base = ctx.Client.ParticipationPref
		}
		if ctx.NotesIntents.Benchmark == BenchmarkArrival {
			base = min(base+0.02, participationCap)
		}
		if ctx.UrgencyLevel == types.BucketHigh {
			base = min(base+0.05, participationCap)
		}
		if ctx.NotesIntents.MarketImpactSensitive {
			base = max(base-0.03, participationFloor)
		}
		// Clamp before rounding so odd client preferences cannot escape
		// the participation band.
		base = min(max(base, participationFloor), participationCap)
		rate := decRound2(base)
		params.ParticipationRate = &rate
		reasons = append(reasons, fmt.Sprintf("POV participation: %d%%", int(math.Round(rate*100))))

		avgTrade := max(ctx.AvgTradeSize, 100)
		minClip := int64(avgTrade * 0.5)
		if minClip < 1 {
			minClip = 1
		}
		maxClip := int64(avgTrade * 2)
		params.MinClipSize = &minClip
		params.MaxClipSize = &maxClip
		reasons = append(reasons, fmt.Sprintf("POV clips: %d-%d (vs avg trade)", minClip, maxClip))

	case types.AlgoVWAP:
		curve := "Historical"
		if ctx.NotesIntents.Benchmark != BenchmarkVWAP && ctx.UrgencyLevel == types.BucketHigh {
			curve = "Front-loaded"
		}
		params.VolumeCurve = curve
		reasons = append(reasons, fmt.Sprintf("VWAP curve: %s", curve))

		maxVol := 15.0
		if ctx.VolatilityBucket == types.BucketHigh {
			maxVol = 20.0
		}
		params.MaxVolumePct = &maxVol
		reasons = append(reasons, fmt.Sprintf("VWAP max vol: %d%%", int(maxVol)))

	case types.AlgoIceberg:
		pctADV := int64(ctx.ADV * 0.02)
		if pctADV < 1 {
			pctADV = 1
		}
		pctOrder := int64(float64(ctx.Request.OrderSize) * 0.10)
		if pctOrder < 1 {
			pctOrder = 1
		}
		display := min(pctADV, pctOrder)
		if ctx.NotesIntents.MarketImpactSensitive {
			display = int64(float64(display) * 0.7)
			if display < 1 {
				display = 1
			}
		}
		params.DisplayQuantity = &display
		reasons = append(reasons, fmt.Sprintf("ICEBERG display: %d", display))
	}

	return params, reasons
}
