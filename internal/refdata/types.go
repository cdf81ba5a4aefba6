package refdata

import (
	"strings"
	"time"

	"smartorder/internal/types"
)

// ClientProfile is a desk-maintained record of a client's execution habits.
type ClientProfile struct {
	ClientID          string           `yaml:"client_id"`
	UrgencyProfile    types.Bucket     `yaml:"urgency_profile"`
	PreferredAlgo     types.Algo       `yaml:"preferred_algo"`
	AggressionBias    types.Aggression `yaml:"aggression_bias"`
	ParticipationPref float64          `yaml:"participation_pref"`
}

// InstrumentProfile carries static per-symbol liquidity facts.
type InstrumentProfile struct {
	Symbol           string       `yaml:"symbol"`
	ADV              float64      `yaml:"adv"`
	VolatilityBucket types.Bucket `yaml:"volatility_bucket"`
	LiquidityBucket  types.Bucket `yaml:"liquidity_bucket"`
}

// MarketSnapshot is the latest observed market state for a symbol. Zero
// prices mean "no reference available"; the pipeline treats them as absent.
type MarketSnapshot struct {
	Symbol        string  `json:"symbol"`
	Spread        float64 `json:"spread"`
	IntradayVol   float64 `json:"intraday_vol"`
	LastTradeSize float64 `json:"last_trade_size"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	LTP           float64 `json:"ltp"`
}

// HistoricalOrderRecord is an immutable past-order fact, consumed only in
// aggregate by the pattern matcher and the fat-finger tolerance.
type HistoricalOrderRecord struct {
	ClientID         string           `yaml:"client_id"`
	Symbol           string           `yaml:"symbol"`
	SizeBucket       string           `yaml:"size_bucket"`
	VolatilityBucket types.Bucket     `yaml:"volatility_bucket"`
	AlgoUsed         types.Algo       `yaml:"algo_used"`
	AggressionUsed   types.Aggression `yaml:"aggression_used"`
}

// Candle is a minimal bar used to derive snapshot fields a feed did not
// supply (intraday volatility, average trade size).
type Candle struct {
	Close  float64 `yaml:"close"`
	Volume float64 `yaml:"volume"`
}

// Snapshot is an immutable view of all reference tables. The registry swaps
// whole snapshots on reload, so a snapshot handed to a request never changes
// underneath it and needs no locking.
type Snapshot struct {
	LoadedAt   time.Time
	clients    map[string]ClientProfile
	instrument map[string]InstrumentProfile
	market     map[string]MarketSnapshot
	historical []HistoricalOrderRecord
}

// NewSnapshot builds a snapshot from in-memory tables, keyed the same way
// the registry keys them. Useful for embedding and tests.
func NewSnapshot(clients []ClientProfile, instruments []InstrumentProfile, markets []MarketSnapshot, historical []HistoricalOrderRecord) Snapshot {
	snap := Snapshot{
		LoadedAt:   time.Now(),
		clients:    make(map[string]ClientProfile, len(clients)),
		instrument: make(map[string]InstrumentProfile, len(instruments)),
		market:     make(map[string]MarketSnapshot, len(markets)),
		historical: append([]HistoricalOrderRecord(nil), historical...),
	}
	for _, c := range clients {
		if id := strings.TrimSpace(c.ClientID); id != "" {
			c.ClientID = id
			snap.clients[id] = c
		}
	}
	for _, ins := range instruments {
		if sym := normalizeSymbol(ins.Symbol); sym != "" {
			ins.Symbol = sym
			snap.instrument[sym] = ins
		}
	}
	for _, m := range markets {
		if sym := normalizeSymbol(m.Symbol); sym != "" {
			m.Symbol = sym
			snap.market[sym] = m
		}
	}
	for i := range snap.historical {
		snap.historical[i].SizeBucket = normalizeSizeBucket(snap.historical[i].SizeBucket)
	}
	return snap
}

// Client returns the profile for a client id, or nil when unknown.
func (s Snapshot) Client(id string) *ClientProfile {
	if p, ok := s.clients[strings.TrimSpace(id)]; ok {
		out := p
		return &out
	}
	return nil
}

// Instrument returns the profile for a symbol, or nil when unknown.
func (s Snapshot) Instrument(symbol string) *InstrumentProfile {
	if p, ok := s.instrument[normalizeSymbol(symbol)]; ok {
		out := p
		return &out
	}
	return nil
}

// Market returns the market snapshot for a symbol, or nil when unknown.
func (s Snapshot) Market(symbol string) *MarketSnapshot {
	if m, ok := s.market[normalizeSymbol(symbol)]; ok {
		out := m
		return &out
	}
	return nil
}

// Historical returns all historical order records. Callers must not mutate
// the returned slice.
func (s Snapshot) Historical() []HistoricalOrderRecord {
	return s.historical
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Size buckets are matched as lowercase small/medium/large; desk files spell
// them capitalized.
func normalizeSizeBucket(bucket string) string {
	return strings.ToLower(strings.TrimSpace(bucket))
}
