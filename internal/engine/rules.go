package engine

import "smartorder/internal/types"

// RuleResult carries the hard overrides. Nil fields mean no override; the
// reasons list one line per fired rule, in evaluation order.
type RuleResult struct {
	Algo       *types.Algo
	Aggression *types.Aggression
	OrderType  *types.OrderType
	Reasons    []string
}

// applyRules evaluates the hard rules in fixed order. Within this engine a
// field is set at most once: the first rule to touch it wins.
func applyRules(ctx Context) RuleResult {
	var res RuleResult

	// 1. Explicit VWAP benchmark signal forces VWAP.
	if ctx.NotesFlags.VWAP || ctx.NotesIntents.Benchmark == BenchmarkVWAP {
		res.Algo = algoPtr(types.AlgoVWAP)
		res.Reasons = append(res.Reasons, "Algo: VWAP (notes benchmark)")
	}

	// 2. Completion required by close prefers POV and always forces high
	// aggression, pre-empting the urgency rule below.
	if ctx.NotesIntents.CompletionRequired {
		if res.Algo == nil {
			res.Algo = algoPtr(types.AlgoPOV)
			res.Reasons = append(res.Reasons, "Algo: POV (must complete by close)")
		}
		res.Aggression = aggressionPtr(types.AggressionHigh)
		res.Reasons = append(res.Reasons, "Aggression: High (completion required)")
	}

	// 3. High urgency forces high aggression if still unset.
	if ctx.UrgencyLevel == types.BucketHigh && res.Aggression == nil {
		res.Aggression = aggressionPtr(types.AggressionHigh)
		res.Reasons = append(res.Reasons, "Aggression: High (urgency)")
	}

	// 4. Orders above 25% of ADV must not go out as Market.
	if ctx.SizeVsADV > 0.25 {
		res.OrderType = orderTypePtr(types.OrderTypeLimit)
		res.Reasons = append(res.Reasons, "Order type: Limit (>25% ADV)")
	}

	// 5. Impact-sensitive notes in thin liquidity also pin Limit.
	if ctx.NotesIntents.MarketImpactSensitive && ctx.LiquidityBucket == types.BucketLow {
		if res.OrderType == nil {
			res.OrderType = orderTypePtr(types.OrderTypeLimit)
		}
		res.Reasons = append(res.Reasons, "Order type: Limit (impact-sensitive, thin liquidity)")
	}

	// 6. High urgency prefers POV when no rule has chosen an algo yet.
	if ctx.UrgencyLevel == types.BucketHigh && res.Algo == nil {
		res.Algo = algoPtr(types.AlgoPOV)
		res.Reasons = append(res.Reasons, "Algo: POV (EOD urgency)")
	}
	return res
}

func algoPtr(a types.Algo) *types.Algo                   { return &a }
func aggressionPtr(a types.Aggression) *types.Aggression { return &a }
func orderTypePtr(o types.OrderType) *types.OrderType    { return &o }
