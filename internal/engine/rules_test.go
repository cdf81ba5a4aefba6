package engine

import (
	"testing"

	"smartorder/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestApplyRules(t *testing.T) {
	t.Run("VWAP Benchmark Forces Algo", func(t *testing.T) {
		ctx := Context{NotesIntents: NoteIntents{Benchmark: BenchmarkVWAP}}
		res := applyRules(ctx)
		assert.NotNil(t, res.Algo)
		assert.Equal(t, types.AlgoVWAP, *res.Algo)
		assert.Contains(t, res.Reasons, "Algo: VWAP (notes benchmark)")
	})

	t.Run("Benchmark Beats Completion Algo", func(t *testing.T) {
		// The benchmark rule runs first, so completion cannot retarget the
		// algo but still forces aggression.
		ctx := Context{NotesIntents: NoteIntents{Benchmark: BenchmarkVWAP, CompletionRequired: true}}
		res := applyRules(ctx)
		assert.Equal(t, types.AlgoVWAP, *res.Algo)
		assert.Equal(t, types.AggressionHigh, *res.Aggression)
	})

	t.Run("Completion Without Benchmark Picks POV", func(t *testing.T) {
		ctx := Context{NotesIntents: NoteIntents{CompletionRequired: true}}
		res := applyRules(ctx)
		assert.Equal(t, types.AlgoPOV, *res.Algo)
		assert.Equal(t, types.AggressionHigh, *res.Aggression)
		assert.Equal(t, []string{
			"Algo: POV (must complete by close)",
			"Aggression: High (completion required)",
		}, res.Reasons)
	})

	t.Run("Urgency Forces Aggression And Algo", func(t *testing.T) {
		ctx := Context{UrgencyLevel: types.BucketHigh}
		res := applyRules(ctx)
		assert.Equal(t, types.AggressionHigh, *res.Aggression)
		assert.Equal(t, types.AlgoPOV, *res.Algo)
		assert.Contains(t, res.Reasons, "Aggression: High (urgency)")
		assert.Contains(t, res.Reasons, "Algo: POV (EOD urgency)")
	})

	t.Run("Large Size Pins Limit", func(t *testing.T) {
		ctx := Context{SizeVsADV: 0.26}
		res := applyRules(ctx)
		assert.Equal(t, types.OrderTypeLimit, *res.OrderType)
	})

	t.Run("Impact Sensitive Thin Liquidity Pins Limit", func(t *testing.T) {
		ctx := Context{
			LiquidityBucket: types.BucketLow,
			NotesIntents:    NoteIntents{MarketImpactSensitive: true},
		}
		res := applyRules(ctx)
		assert.Equal(t, types.OrderTypeLimit, *res.OrderType)
		assert.Contains(t, res.Reasons, "Order type: Limit (impact-sensitive, thin liquidity)")
	})

	t.Run("Quiet Context Fires Nothing", func(t *testing.T) {
		ctx := Context{UrgencyLevel: types.BucketLow, LiquidityBucket: types.BucketMedium}
		res := applyRules(ctx)
		assert.Nil(t, res.Algo)
		assert.Nil(t, res.Aggression)
		assert.Nil(t, res.OrderType)
		assert.Empty(t, res.Reasons)
	})
}
