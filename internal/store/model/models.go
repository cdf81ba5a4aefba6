package model

import (
	"gorm.io/datatypes"
)

// TicketModel is the gorm row for a persisted recommendation. The full
// result lives in the payload column; the rest are queryable projections.
type TicketModel struct {
	ID          string         `gorm:"column:id;primaryKey"`
	ClientID    string         `gorm:"column:client_id;index"`
	Symbol      string         `gorm:"column:symbol;index"`
	Side        string         `gorm:"column:side"`
	OrderSize   int64          `gorm:"column:order_size"`
	TimeToClose int            `gorm:"column:time_to_close"`
	Notes       string         `gorm:"column:notes"`
	AlgoType    string         `gorm:"column:algo_type;index"`
	OrderType   string         `gorm:"column:order_type"`
	Urgency     string         `gorm:"column:urgency"`
	FatFinger   int            `gorm:"column:fat_finger"`
	Payload     datatypes.JSON `gorm:"column:payload;type:TEXT"`
	CreatedAt   int64          `gorm:"column:created_at;index"`
}

func (TicketModel) TableName() string { return "tickets" }
