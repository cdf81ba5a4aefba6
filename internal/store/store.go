package store

import (
	"context"
	"time"

	"smartorder/internal/types"
)

// TicketRecord is a persisted recommendation: the request that produced it,
// the queryable headline fields, and the full result payload.
type TicketRecord struct {
	ID          string
	ClientID    string
	Symbol      string
	Side        types.Side
	OrderSize   int64
	TimeToClose int
	Notes       string

	AlgoType  types.Algo
	OrderType types.OrderType
	Urgency   types.Bucket
	FatFinger bool

	Recommendation types.Recommendation
	CreatedAt      time.Time
}

// ListOptions filters and pages ticket listings.
type ListOptions struct {
	ClientID string
	Symbol   string
	Limit    int
	Offset   int
}

// TicketStore persists prefilled tickets for later review.
type TicketStore interface {
	SaveTicket(ctx context.Context, rec TicketRecord) (TicketRecord, error)
	GetTicket(ctx context.Context, id string) (TicketRecord, bool, error)
	ListTickets(ctx context.Context, opts ListOptions) ([]TicketRecord, error)
	CountTickets(ctx context.Context, opts ListOptions) (int, error)
	AlgoMix(ctx context.Context) (map[types.Algo]int, error)
	Close() error
}
