package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNoteFlags(t *testing.T) {
	flags := parseNoteFlags("VWAP Benchmark, get close to urgent")
	assert.True(t, flags.VWAP)
	assert.True(t, flags.Urgent)
	assert.True(t, flags.Close)
	assert.True(t, flags.Benchmark)

	assert.Equal(t, NoteFlags{}, parseNoteFlags(""))
}

func TestParseNoteIntents(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, NoteIntents{}, parseNoteIntents(""))
	})

	t.Run("VWAP Benchmark", func(t *testing.T) {
		got := parseNoteIntents("please use VWAP benchmark")
		assert.Equal(t, BenchmarkVWAP, got.Benchmark)
	})

	t.Run("Arrival Overrides VWAP Keyword", func(t *testing.T) {
		got := parseNoteIntents("vwap preferred but benchmark: arrival price")
		assert.Equal(t, BenchmarkArrival, got.Benchmark)
	})

	t.Run("Completion Phrases", func(t *testing.T) {
		got := parseNoteIntents("EOD compliance required")
		assert.Equal(t, IntentHigh, got.Urgency)
		assert.True(t, got.CompletionRequired)

		got = parseNoteIntents("must complete by close")
		assert.True(t, got.CompletionRequired)
	})

	t.Run("Urgent Keyword", func(t *testing.T) {
		got := parseNoteIntents("this is URGENT")
		assert.Equal(t, IntentHigh, got.Urgency)
		assert.False(t, got.CompletionRequired)
	})

	t.Run("Steady Execution", func(t *testing.T) {
		got := parseNoteIntents("steady execution please")
		assert.Equal(t, IntentMedium, got.Urgency)
		assert.Equal(t, IntentMedium, got.AggressionPreference)
	})

	t.Run("Impact Sensitivity", func(t *testing.T) {
		got := parseNoteIntents("minimise market impact")
		assert.True(t, got.MarketImpactSensitive)
		assert.Equal(t, IntentLow, got.AggressionPreference)
	})

	t.Run("Impact Beats Steady For Aggression", func(t *testing.T) {
		got := parseNoteIntents("steady execution, minimize market impact")
		assert.Equal(t, IntentLow, got.AggressionPreference)
		assert.Equal(t, IntentMedium, got.Urgency)
	})
}
