package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type SignalStatus string

const (
	SignalStatusApproved SignalStatus = "APPROVED"
	SignalStatusPending  SignalStatus = "PENDING"
	SignalStatusRejected SignalStatus = "REJECTED"
)

func (s SignalStatus) Valid() bool {
	switch s {
	case SignalStatusApproved, SignalStatusPending, SignalStatusRejected:
		return true
	}
	return false
}

const (
	SignalTypeLong  = "LONG"
	SignalTypeShort = "SHORT"
)

type Signal struct {
	ID              string         `gorm:"column:id;type:varchar(16);primaryKey" json:"id"`
	Timestamp       string         `gorm:"column:timestamp;type:varchar(40);not null" json:"timestamp"`
	Asset           string         `gorm:"column:asset;type:varchar(20);not null;index" json:"asset"`
	SignalType      string         `gorm:"column:signal_type;type:varchar(10);not null" json:"signal_type"`
	EntryPrice      float64        `gorm:"column:entry_price;not null" json:"entry_price"`
	StopLoss        float64        `gorm:"column:stop_loss;not null" json:"stop_loss"`
	TakeProfit      float64        `gorm:"column:take_profit;not null" json:"take_profit"`
	RRRatio         float64        `gorm:"column:rr_ratio;not null" json:"rr_ratio"`
	ConfidenceScore int            `gorm:"column:confidence_score;not null" json:"confidence_score"`
	Status          SignalStatus   `gorm:"column:status;type:varchar(10);not null;index" json:"status"`
	Reason          string         `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"-"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Signal) TableName() string {
	return "signals"
}

// SignalMetadata holds optional attributes carried by webhook payloads.
type SignalMetadata struct {
	Timeframe string `json:"timeframe,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
}

type GetSignalParam struct {
	Status        *SignalStatus
	CreatedBefore *time.Time
	Limit         *int
}

func (s *Signal) SetMetadata(meta SignalMetadata) error {
	if meta == (SignalMetadata{}) {
		s.Metadata = nil
		return nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	s.Metadata = datatypes.JSON(raw)
	return nil
}

func (s *Signal) GetMetadata() SignalMetadata {
	var meta SignalMetadata
	if len(s.Metadata) == 0 {
		return meta
	}
	_ = json.Unmarshal(s.Metadata, &meta)
	return meta
}
