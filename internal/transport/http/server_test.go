package smarthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartorder/internal/engine"
	"smartorder/internal/refdata"
	"smartorder/internal/store"
	"smartorder/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

type staticProvider struct{ snap refdata.Snapshot }

func (s staticProvider) Snapshot() refdata.Snapshot { return s.snap }

type memTicketStore struct {
	saved []store.TicketRecord
}

func (m *memTicketStore) SaveTicket(_ context.Context, rec store.TicketRecord) (store.TicketRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.saved = append(m.saved, rec)
	return rec, nil
}

func (m *memTicketStore) GetTicket(_ context.Context, id string) (store.TicketRecord, bool, error) {
	for _, rec := range m.saved {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return store.TicketRecord{}, false, nil
}

func (m *memTicketStore) ListTickets(_ context.Context, opts store.ListOptions) ([]store.TicketRecord, error) {
	var out []store.TicketRecord
	for _, rec := range m.saved {
		if opts.ClientID != "" && rec.ClientID != opts.ClientID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *memTicketStore) CountTickets(ctx context.Context, opts store.ListOptions) (int, error) {
	recs, err := m.ListTickets(ctx, opts)
	return len(recs), err
}

func (m *memTicketStore) AlgoMix(context.Context) (map[types.Algo]int, error) {
	mix := make(map[types.Algo]int)
	for _, rec := range m.saved {
		mix[rec.AlgoType]++
	}
	return mix, nil
}

func (m *memTicketStore) Close() error { return nil }

func newTestServer(t *testing.T, tickets store.TicketStore) *Server {
	t.Helper()
	snap := refdata.NewSnapshot(
		[]refdata.ClientProfile{{ClientID: "C1", ParticipationPref: 0.10}},
		[]refdata.InstrumentProfile{{Symbol: "ACME", ADV: 1_000_000, LiquidityBucket: types.BucketHigh}},
		[]refdata.MarketSnapshot{{Symbol: "ACME", Spread: 0.05, IntradayVol: 0.012, LastTradeSize: 700, Bid: 50.00, Ask: 50.05, LTP: 50.02}},
		nil,
	)
	eng := engine.New(staticProvider{snap: snap},
		engine.WithClock(fixedClock{t: time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC)}))
	srv, err := NewServer(Config{Addr: ":0", Engine: eng, Tickets: tickets})
	require.NoError(t, err)
	return srv
}

func TestHandleRecommend(t *testing.T) {
	tickets := &memTicketStore{}
	srv := newTestServer(t, tickets)

	t.Run("Success Saves Ticket", func(t *testing.T) {
		body := `{"client_id":"C1","symbol":"ACME","order_size":50000,"side":"Buy","time_to_close":120}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		srv.Router().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			CoreOrderFields types.CoreOrderFields `json:"core_order_fields"`
			Explanations    []string              `json:"explanations"`
			TicketID        string                `json:"ticket_id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, types.Candidates, resp.CoreOrderFields.AlgoType)
		assert.NotEmpty(t, resp.Explanations)
		assert.NotEmpty(t, resp.TicketID)
		assert.Len(t, tickets.saved, 1)
	})

	t.Run("Invalid Request Rejected", func(t *testing.T) {
		body := `{"client_id":"C1","symbol":"ACME","order_size":0,"side":"Buy","time_to_close":120}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Malformed JSON Rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTicketEndpoints(t *testing.T) {
	tickets := &memTicketStore{}
	srv := newTestServer(t, tickets)

	saved, err := tickets.SaveTicket(context.Background(), store.TicketRecord{
		ClientID: "C1", Symbol: "ACME", Side: types.SideBuy, OrderSize: 100,
		AlgoType: types.AlgoVWAP, OrderType: types.OrderTypeLimit, Urgency: types.BucketLow,
	})
	require.NoError(t, err)

	t.Run("List", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tickets?client_id=C1", nil)
		srv.Router().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Tickets []ticketViewModel `json:"tickets"`
			Total   int               `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Total)
		require.Len(t, resp.Tickets, 1)
		assert.Equal(t, saved.ID, resp.Tickets[0].ID)
	})

	t.Run("Get", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tickets/"+saved.ID, nil)
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Get Missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tickets/nope", nil)
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthAndStats(t *testing.T) {
	srv := newTestServer(t, &memTicketStore{})

	t.Run("Health", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Stats Renders HTML", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	})
}
