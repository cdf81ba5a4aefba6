package engine

import (
	"fmt"
	"math"
)

// buildExplanations assembles the final narrative in a fixed order: context
// summary first, then scoring, parameter, pattern, and rule reasons.
// Consolidation is plain ordered deduplication with the first occurrence
// kept, so a line never moves after its first mention.
func buildExplanations(ctx Context, scoreReasons, paramReasons, patternReasons, ruleReasons []string) []string {
	var out []string

	out = append(out, fmt.Sprintf("Order size is %d%% of ADV", int(math.Round(ctx.SizeVsADV*100))))
	if ctx.FatFinger {
		if ctx.ToleranceRatio != nil {
			out = append(out, fmt.Sprintf("Warning: size exceeds historical tolerance (%d%% of ADV)",
				int(math.Round(*ctx.ToleranceRatio*100))))
		} else {
			out = append(out, "Warning: size exceeds historical tolerance")
		}
	}
	switch ctx.NotesIntents.Benchmark {
	case BenchmarkVWAP:
		out = append(out, "Notes request a VWAP benchmark")
	case BenchmarkArrival:
		out = append(out, "Notes request an arrival-price benchmark")
	}
	if ctx.NotesIntents.CompletionRequired {
		out = append(out, "Notes require completion by close")
	}
	if ctx.NotesIntents.MarketImpactSensitive {
		out = append(out, "Notes flag market-impact sensitivity")
	}

	out = append(out, scoreReasons...)
	out = append(out, paramReasons...)
	out = append(out, patternReasons...)
	out = append(out, ruleReasons...)
	return dedupeStrings(out)
}

// dedupeStrings drops empty strings and repeats, keeping first-occurrence
// order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
