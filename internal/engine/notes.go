package engine

import "strings"

// NoteFlags are simple case-insensitive keyword hits in the order notes.
type NoteFlags struct {
	VWAP      bool
	Urgent    bool
	Close     bool
	Benchmark bool
}

// IntentLevel grades an urgency or aggression preference parsed from notes.
type IntentLevel string

const (
	IntentNone   IntentLevel = ""
	IntentLow    IntentLevel = "LOW"
	IntentMedium IntentLevel = "MEDIUM"
	IntentHigh   IntentLevel = "HIGH"
)

// BenchmarkType is the execution benchmark requested in notes.
type BenchmarkType string

const (
	BenchmarkNone    BenchmarkType = ""
	BenchmarkVWAP    BenchmarkType = "VWAP"
	BenchmarkArrival BenchmarkType = "ARRIVAL"
)

// NoteIntents is the structured reading of the free-text notes. Extraction
// is deterministic: phrase matches are evaluated before single keywords in a
// fixed order, and a later match overwrites a field set earlier
// (last-match-wins per field).
type NoteIntents struct {
	Urgency               IntentLevel
	Benchmark             BenchmarkType
	AggressionPreference  IntentLevel
	CompletionRequired    bool
	MarketImpactSensitive bool
}

func parseNoteFlags(notes string) NoteFlags {
	text := strings.ToLower(notes)
	return NoteFlags{
		VWAP:      strings.Contains(text, "vwap"),
		Urgent:    strings.Contains(text, "urgent"),
		Close:     strings.Contains(text, "close"),
		Benchmark: strings.Contains(text, "benchmark"),
	}
}

func parseNoteIntents(notes string) NoteIntents {
	text := strings.ToLower(notes)
	var out NoteIntents

	// Benchmarks. An arrival-price phrase later in the scan overwrites an
	// earlier VWAP hit.
	if strings.Contains(text, "vwap benchmark") ||
		strings.Contains(text, "benchmark: vwap") ||
		strings.Contains(text, "vwap ") {
		out.Benchmark = BenchmarkVWAP
	}
	if strings.Contains(text, "benchmark: arrival price") || strings.Contains(text, "arrival price") {
		out.Benchmark = BenchmarkArrival
	}

	// Urgency and completion. Phrases before keywords.
	switch {
	case strings.Contains(text, "eod compliance required") || strings.Contains(text, "must complete by close"):
		out.Urgency = IntentHigh
		out.CompletionRequired = true
	case strings.Contains(text, "must complete"):
		out.Urgency = IntentHigh
		out.CompletionRequired = true
	case strings.Contains(text, "urgent"):
		out.Urgency = IntentHigh
	case strings.Contains(text, "steady execution"):
		out.Urgency = IntentMedium
	}

	if strings.Contains(text, "minimize market impact") || strings.Contains(text, "minimise market impact") {
		out.MarketImpactSensitive = true
		out.AggressionPreference = IntentLow
	}

	if strings.Contains(text, "steady execution") && out.AggressionPreference == IntentNone {
		out.AggressionPreference = IntentMedium
	}
	return out
}
