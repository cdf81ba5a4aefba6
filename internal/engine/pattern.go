package engine

import (
	"fmt"
	"sort"

	"smartorder/internal/refdata"
	"smartorder/internal/types"
)

// Size bucket thresholds as a fraction of ADV.
const (
	sizeBucketSmallMax  = 0.05
	sizeBucketMediumMax = 0.20
)

// PatternResult is the soft historical hint: the client's most frequent
// strategy and aggression in comparable past orders. Nil fields mean no
// preference.
type PatternResult struct {
	Algo       *types.Algo
	Aggression *types.Aggression
	Reasons    []string
}

func sizeBucket(sizeVsADV float64) string {
	switch {
	case sizeVsADV < sizeBucketSmallMax:
		return "small"
	case sizeVsADV < sizeBucketMediumMax:
		return "medium"
	default:
		return "large"
	}
}

// matchHistorical looks the current order up in the client's history:
// primary filter client + size bucket + volatility bucket (symbol is not
// required), fallback client + size bucket only. The preference is the mode
// of strategy and aggression over the matches; ties break lexicographically
// ascending so repeated runs agree.
func matchHistorical(ctx Context, hist []refdata.HistoricalOrderRecord) PatternResult {
	if len(hist) == 0 {
		return PatternResult{}
	}
	bucket := sizeBucket(ctx.SizeVsADV)
	clientID := ctx.Request.ClientID

	matches := filterHistory(hist, func(rec refdata.HistoricalOrderRecord) bool {
		return rec.ClientID == clientID && rec.SizeBucket == bucket && rec.VolatilityBucket == ctx.VolatilityBucket
	})
	if len(matches) == 0 {
		matches = filterHistory(hist, func(rec refdata.HistoricalOrderRecord) bool {
			return rec.ClientID == clientID && rec.SizeBucket == bucket
		})
	}
	if len(matches) == 0 {
		return PatternResult{}
	}

	var res PatternResult
	if algo, ok := modeValue(matches, func(rec refdata.HistoricalOrderRecord) string { return string(rec.AlgoUsed) }); ok {
		a := types.Algo(algo)
		res.Algo = &a
		res.Reasons = append(res.Reasons,
			fmt.Sprintf("Client historically prefers %s (size bucket=%s, vol=%s)", algo, bucket, ctx.VolatilityBucket))
	}
	if agg, ok := modeValue(matches, func(rec refdata.HistoricalOrderRecord) string { return string(rec.AggressionUsed) }); ok {
		a := types.Aggression(agg)
		res.Aggression = &a
		res.Reasons = append(res.Reasons, fmt.Sprintf("Historical aggression for this context: %s", agg))
	}
	return res
}

func filterHistory(hist []refdata.HistoricalOrderRecord, keep func(refdata.HistoricalOrderRecord) bool) []refdata.HistoricalOrderRecord {
	var out []refdata.HistoricalOrderRecord
	for _, rec := range hist {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// modeValue returns the most frequent non-empty value. On equal counts the
// lexicographically smaller value wins.
func modeValue(recs []refdata.HistoricalOrderRecord, key func(refdata.HistoricalOrderRecord) string) (string, bool) {
	counts := make(map[string]int)
	for _, rec := range recs {
		if v := key(rec); v != "" {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best, true
}
