package engine

import (
	"fmt"

	"smartorder/internal/types"
)

// ScoreAdjuster post-processes the candidate scores before the final pick.
// Implementations may reweight strategies from signals the additive rules do
// not see; any appended reasons join the explanation trail.
type ScoreAdjuster interface {
	Adjust(ctx Context, scores map[types.Algo]float64) (map[types.Algo]float64, []string)
}

// NoopAdjuster leaves the scores untouched.
type NoopAdjuster struct{}

func (NoopAdjuster) Adjust(_ Context, scores map[types.Algo]float64) (map[types.Algo]float64, []string) {
	return scores, nil
}

// ScoreResult is the scoring outcome: the chosen strategy, the full score
// table, and the reasons attached to the winner.
type ScoreResult struct {
	Algo    types.Algo
	Scores  map[types.Algo]float64
	Reasons []string
}

// scoreAlgos runs the additive scorer over the three candidates. A rule
// override wins outright (the table is still filled for explanations); a
// pattern hint steals the pick when its score is within 1.0 of the best.
func scoreAlgos(ctx Context, ruleAlgo, patternAlgo *types.Algo, adjuster ScoreAdjuster) ScoreResult {
	scores := make(map[types.Algo]float64, len(types.Candidates))
	reasonsByAlgo := make(map[types.Algo][]string, len(types.Candidates))
	for _, a := range types.Candidates {
		scores[a] = 0
	}
	bump := func(algo types.Algo, delta float64, reason string) {
		scores[algo] += delta
		reasonsByAlgo[algo] = append(reasonsByAlgo[algo], reason)
	}

	switch {
	case ctx.SizeVsADV > 0.25:
		bump(types.AlgoVWAP, 3, "Algo: VWAP (large vs ADV)")
		bump(types.AlgoPOV, 1, "Algo: POV (large size, participation control)")
	case ctx.SizeVsADV > 0.10:
		bump(types.AlgoVWAP, 2, "Algo: VWAP (size vs ADV)")
	default:
		bump(types.AlgoPOV, 1, "Algo: POV (small size)")
	}

	switch {
	case ctx.UrgencyLevel == types.BucketHigh || ctx.EffectiveTimeToClose <= 20:
		bump(types.AlgoPOV, 4, "Algo: POV (urgency / near close)")
	case ctx.UrgencyLevel == types.BucketMedium:
		bump(types.AlgoPOV, 1.5, "Algo: POV (urgency)")
	default:
		bump(types.AlgoVWAP, 1, "Algo: VWAP (low urgency)")
	}

	if ctx.NotesIntents.CompletionRequired {
		bump(types.AlgoPOV, 3, "Algo: POV (completion by close)")
	}

	switch ctx.VolatilityBucket {
	case types.BucketLow:
		bump(types.AlgoVWAP, 2, "Algo: VWAP (low vol)")
	case types.BucketHigh:
		bump(types.AlgoPOV, 1.5, "Algo: POV (high vol)")
		bump(types.AlgoIceberg, 1.5, "Algo: ICEBERG (high vol, hide size)")
	}

	if ctx.LiquidityBucket == types.BucketLow || ctx.LiquidityScore < 0.8 {
		bump(types.AlgoIceberg, 3, "Algo: ICEBERG (low liquidity)")
	} else if ctx.LiquidityBucket == types.BucketHigh && ctx.LiquidityScore > 1.2 {
		bump(types.AlgoPOV, 1, "Algo: POV (high liquidity)")
	}

	switch ctx.NotesIntents.Benchmark {
	case BenchmarkVWAP:
		bump(types.AlgoVWAP, 5, "Algo: VWAP (notes benchmark)")
	case BenchmarkArrival:
		bump(types.AlgoPOV, 2, "Algo: POV (arrival benchmark)")
	}

	if ctx.NotesIntents.MarketImpactSensitive {
		bump(types.AlgoIceberg, 3, "Algo: ICEBERG (min impact)")
		bump(types.AlgoVWAP, 1, "Algo: VWAP (passive)")
	}

	switch ctx.NotesIntents.AggressionPreference {
	case IntentHigh:
		bump(types.AlgoPOV, 2, "Algo: POV (aggressive)")
	case IntentLow:
		bump(types.AlgoVWAP, 1.5, "Algo: VWAP (passive)")
		bump(types.AlgoIceberg, 1.0, "Algo: ICEBERG (passive)")
	}

	if ruleAlgo != nil {
		chosen := *ruleAlgo
		reasons := append([]string{fmt.Sprintf("Algo: %s (rule override)", chosen)}, reasonsByAlgo[chosen]...)
		return ScoreResult{Algo: chosen, Scores: scores, Reasons: dedupeStrings(reasons)}
	}

	scores, adjustReasons := adjuster.Adjust(ctx, scores)

	// Argmax over the fixed candidate order keeps ties deterministic.
	best := types.Candidates[0]
	for _, a := range types.Candidates[1:] {
		if scores[a] > scores[best] {
			best = a
		}
	}

	chosen := best
	reasons := reasonsByAlgo[chosen]
	if patternAlgo != nil && validCandidate(*patternAlgo) && scores[*patternAlgo] >= scores[best]-1 {
		chosen = *patternAlgo
		reasons = append(append([]string(nil), reasonsByAlgo[chosen]...),
			fmt.Sprintf("Algo: %s (historical preference)", chosen))
	}

	reasons = dedupeStrings(append(append([]string(nil), reasons...), adjustReasons...))
	return ScoreResult{Algo: chosen, Scores: scores, Reasons: reasons}
}

func validCandidate(a types.Algo) bool {
	for _, c := range types.Candidates {
		if a == c {
			return true
		}
	}
	return false
}
