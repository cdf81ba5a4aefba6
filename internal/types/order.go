package types

import (
	"fmt"
	"strings"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// Algo is an execution strategy candidate. Exactly one is chosen per request.
type Algo string

const (
	AlgoVWAP    Algo = "VWAP"
	AlgoPOV     Algo = "POV"
	AlgoIceberg Algo = "ICEBERG"
)

// Candidates lists the strategy candidates in their deterministic
// tie-break order. Scoring falls back to the earliest entry on equal scores.
var Candidates = []Algo{AlgoVWAP, AlgoPOV, AlgoIceberg}

// Bucket is a coarse Low/Medium/High classification used for urgency,
// volatility and liquidity.
type Bucket string

const (
	BucketLow    Bucket = "Low"
	BucketMedium Bucket = "Medium"
	BucketHigh   Bucket = "High"
)

// Aggression is the resolved execution aggression level.
type Aggression string

const (
	AggressionLow    Aggression = "Low"
	AggressionMedium Aggression = "Medium"
	AggressionHigh   Aggression = "High"
)

// OrderType is the core ticket order type.
type OrderType string

const (
	OrderTypeMarket OrderType = "Market"
	OrderTypeLimit  OrderType = "Limit"
	OrderTypeStop   OrderType = "Stop"
)

// TimeInForce is the order validity policy.
type TimeInForce string

const (
	TIFDay TimeInForce = "DAY"
	TIFIOC TimeInForce = "IOC"
)

// OrderRequest is the immutable pipeline input: who wants to trade what,
// how much, and how much session time is left.
type OrderRequest struct {
	ClientID    string `json:"client_id"`
	Symbol      string `json:"symbol"`
	OrderSize   int64  `json:"order_size"`
	Side        Side   `json:"side"`
	TimeToClose int    `json:"time_to_close"`
	Notes       string `json:"notes,omitempty"`
}

// Validate enforces the boundary preconditions. The pipeline itself assumes
// a well-formed request; callers reject malformed input before invoking it.
func (r OrderRequest) Validate() error {
	if strings.TrimSpace(r.ClientID) == "" {
		return fmt.Errorf("client_id is required")
	}
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if r.OrderSize <= 0 {
		return fmt.Errorf("order_size must be positive")
	}
	if r.TimeToClose < 0 {
		return fmt.Errorf("time_to_close must be >= 0")
	}
	switch r.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("side must be Buy or Sell")
	}
	return nil
}

// CoreOrderFields are the prefilled core ticket fields.
type CoreOrderFields struct {
	OrderType   OrderType   `json:"order_type"`
	LimitPrice  *float64    `json:"limit_price,omitempty"`
	Side        Side        `json:"side"`
	TimeInForce TimeInForce `json:"time_in_force"`
	StartTime   string      `json:"start_time"`
	EndTime     string      `json:"end_time"`
	AlgoType    Algo        `json:"algo_type"`
}

// AlgoParameters carries the strategy-specific parameters. Only the fields
// relevant to the chosen strategy are set.
type AlgoParameters struct {
	ParticipationRate *float64   `json:"participation_rate,omitempty"`
	MinClipSize       *int64     `json:"min_clip_size,omitempty"`
	MaxClipSize       *int64     `json:"max_clip_size,omitempty"`
	VolumeCurve       string     `json:"volume_curve,omitempty"`
	MaxVolumePct      *float64   `json:"max_volume_pct,omitempty"`
	DisplayQuantity   *int64     `json:"display_quantity,omitempty"`
	AggressionLevel   Aggression `json:"aggression_level"`
}

// ContextFlags surfaces selected derived context fields for transparency.
type ContextFlags struct {
	UrgencyLevel         Bucket  `json:"urgency_level"`
	SizeVsADV            float64 `json:"size_vs_adv"`
	VolatilityBucket     Bucket  `json:"volatility_bucket"`
	LiquidityBucket      Bucket  `json:"liquidity_bucket"`
	Spread               float64 `json:"spread"`
	IntradayVol          float64 `json:"intraday_vol"`
	AvgTradeSize         float64 `json:"avg_trade_size"`
	LiquidityScore       float64 `json:"liquidity_score"`
	TimeToCloseRequest   int     `json:"time_to_close_request"`
	TimeToCloseSystem    int     `json:"time_to_close_system"`
	EffectiveTimeToClose int     `json:"effective_time_to_close"`
	FatFingerFlag        bool    `json:"fat_finger_flag"`
}

// Recommendation is the full pipeline result: prefilled ticket, strategy
// parameters, derived context, and the ordered justification trail.
type Recommendation struct {
	CoreOrderFields CoreOrderFields `json:"core_order_fields"`
	AlgoParameters  AlgoParameters  `json:"algo_parameters"`
	ContextFlags    ContextFlags    `json:"context_flags"`
	Explanations    []string        `json:"explanations"`
}
