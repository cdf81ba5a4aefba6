package auditlog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartorder/internal/logger"
	"smartorder/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, Record{
		Timestamp:    1000,
		TicketID:     "t-1",
		ClientID:     "C1",
		Symbol:       "acme",
		Side:         "Buy",
		OrderSize:    5000,
		TimeToClose:  90,
		AlgoType:     "VWAP",
		OrderType:    "Limit",
		Urgency:      "Medium",
		FatFinger:    true,
		Explanations: []string{"Algo: VWAP (low urgency)"},
		Flags:        types.ContextFlags{UrgencyLevel: types.BucketMedium, SizeVsADV: 0.01},
	}))
	require.NoError(t, s.Append(ctx, Record{
		Timestamp: 2000,
		ClientID:  "C2",
		Symbol:    "BOLT",
		Side:      "Sell",
		AlgoType:  "POV",
		Error:     "computation failed",
	}))

	recent, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "C2", recent[0].ClientID, "newest entries come first")
	assert.Equal(t, "computation failed", recent[0].Error)

	oldest := recent[1]
	assert.Equal(t, "t-1", oldest.TicketID)
	assert.Equal(t, "ACME", oldest.Symbol, "symbols are stored uppercased")
	assert.True(t, oldest.FatFinger)
	assert.Equal(t, []string{"Algo: VWAP (low urgency)"}, oldest.Explanations)
	assert.Equal(t, types.BucketMedium, oldest.Flags.UrgencyLevel)
	assert.Equal(t, 0.01, oldest.Flags.SizeVsADV)
}

func TestRecentClientFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, Record{Timestamp: 1, ClientID: "C1", Symbol: "A", AlgoType: "VWAP"}))
	require.NoError(t, s.Append(ctx, Record{Timestamp: 2, ClientID: "C2", Symbol: "B", AlgoType: "POV"}))

	got, err := s.Recent(ctx, "C1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C1", got[0].ClientID)
}

func TestAppendAssignsTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, Record{ClientID: "C1", Symbol: "A", AlgoType: "VWAP"}))

	got, err := s.Recent(ctx, "C1", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Greater(t, got[0].Timestamp, int64(0))
}

func TestRecentWarnsOnCorruptedRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `INSERT INTO decision_audit
		(ts, ticket_id, client_id, symbol, side, order_size, time_to_close, notes,
		 algo_type, order_type, urgency, fat_finger, explanations_json, flags_json, error)
		VALUES (1, '', 'C1', 'ACME', 'Buy', 100, 30, '', 'VWAP', 'Limit', 'Low', 0, '{broken', '[not flags', '')`)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stdout)

	got, err := s.Recent(ctx, "", 10)
	require.NoError(t, err, "a corrupted row is surfaced, not fatal")
	require.Len(t, got, 1)
	assert.Equal(t, "C1", got[0].ClientID)
	assert.Empty(t, got[0].Explanations)

	logged := buf.String()
	assert.Contains(t, logged, "explanations decode failed")
	assert.Contains(t, logged, "context flags decode failed")
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(" ")
	require.Error(t, err)
}
