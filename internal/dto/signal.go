package dto

import "signals-service/internal/model"

// SignalResponse is the public JSON form of a stored signal.
type SignalResponse struct {
	ID              string  `json:"id"`
	Timestamp       string  `json:"timestamp"`
	Asset           string  `json:"asset"`
	SignalType      string  `json:"signal_type"`
	EntryPrice      float64 `json:"entry_price"`
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	RRRatio         float64 `json:"rr_ratio"`
	ConfidenceScore int     `json:"confidence_score"`
	Status          string  `json:"status"`
	Timeframe       string  `json:"timeframe,omitempty"`
	Strategy        string  `json:"strategy,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

func NewSignalResponse(s model.Signal) SignalResponse {
	meta := s.GetMetadata()
	return SignalResponse{
		ID:              s.ID,
		Timestamp:       s.Timestamp,
		Asset:           s.Asset,
		SignalType:      s.SignalType,
		EntryPrice:      s.EntryPrice,
		StopLoss:        s.StopLoss,
		TakeProfit:      s.TakeProfit,
		RRRatio:         s.RRRatio,
		ConfidenceScore: s.ConfidenceScore,
		Status:          string(s.Status),
		Timeframe:       meta.Timeframe,
		Strategy:        meta.Strategy,
		Reason:          s.Reason,
	}
}

func NewSignalResponses(signals []model.Signal) []SignalResponse {
	out := make([]SignalResponse, 0, len(signals))
	for _, s := range signals {
		out = append(out, NewSignalResponse(s))
	}
	return out
}

type SignalListResponse struct {
	Count   int              `json:"count"`
	Signals []SignalResponse `json:"signals"`
}

// IngestAcceptedResponse is returned for every stored (or de-duplicated) signal.
type IngestAcceptedResponse struct {
	Status         string   `json:"status"`
	SignalID       string   `json:"signal_id"`
	ApprovalStatus string   `json:"approval_status"`
	Message        string   `json:"message"`
	Warnings       []string `json:"warnings,omitempty"`
	Duplicate      bool     `json:"duplicate,omitempty"`
}

type IngestRejectedResponse struct {
	Status string   `json:"status"`
	Reason string   `json:"reason"`
	Errors []string `json:"errors"`
}

type ReviewResponse struct {
	Status   string `json:"status"`
	SignalID string `json:"signal_id"`
}

type RejectResponse struct {
	Status   string  `json:"status"`
	SignalID string  `json:"signal_id"`
	Reason   *string `json:"reason"`
}

type ListSignalsRequest struct {
	Status string `query:"status"`
	Limit  *int   `query:"limit" validate:"omitempty,gte=0"`
}

type RejectSignalRequest struct {
	ID     string  `param:"id" validate:"required"`
	Reason *string `query:"reason" validate:"omitempty,max=500"`
}

type WatchlistResponse struct {
	ApprovedAssets []string `json:"approved_assets"`
	Count          int      `json:"count"`
}

type StatsResponse struct {
	TotalSignals       int  `json:"total_signals"`
	Approved           int  `json:"approved"`
	Pending            int  `json:"pending"`
	Rejected           int  `json:"rejected"`
	TelegramConfigured bool `json:"telegram_configured"`
}

type HealthResponse struct {
	Status             string `json:"status"`
	Timestamp          string `json:"timestamp"`
	Version            string `json:"version"`
	TelegramConfigured bool   `json:"telegram_configured"`
}

type RootResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

// SignalCounts is the per-status breakdown of the store.
type SignalCounts struct {
	Total    int
	Approved int
	Pending  int
	Rejected int
}
