package service

import (
	"errors"
	"fmt"
	"signals-service/config"
	"signals-service/internal/helper"
	"signals-service/internal/model"
	"signals-service/pkg/utils"
	"sort"
	"strings"
)

// ErrInvalidPayload marks an ingest body that could not be read as a signal at all.
var ErrInvalidPayload = errors.New("invalid signal payload")

var requiredFields = []string{"asset", "signal_type", "entry_price", "stop_loss", "take_profit", "rr_ratio", "confidence_score"}

// ValidationError carries every rule a payload broke.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// SignalInput is a payload that passed validation, normalised.
type SignalInput struct {
	Asset           string
	SignalType      string
	EntryPrice      float64
	StopLoss        float64
	TakeProfit      float64
	RRRatio         float64
	ConfidenceScore int
	Timeframe       string
	Strategy        string
	Warnings        []string
}

// SignalProcessor applies the risk rules. It holds no per-call state and is
// safe to share between requests.
type SignalProcessor struct {
	risk      config.Risk
	watchlist map[string]struct{}
}

func NewSignalProcessor(risk config.Risk) *SignalProcessor {
	watchlist := make(map[string]struct{}, len(risk.ApprovedAssets))
	for _, asset := range risk.ApprovedAssets {
		watchlist[strings.ToUpper(asset)] = struct{}{}
	}
	return &SignalProcessor{risk: risk, watchlist: watchlist}
}

// Watchlist returns the approved assets sorted alphabetically.
func (p *SignalProcessor) Watchlist() []string {
	out := make([]string, 0, len(p.watchlist))
	for asset := range p.watchlist {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}

// Validate checks a canonical payload. Missing fields are reported on their
// own; otherwise every rule runs and all failures are collected.
func (p *SignalProcessor) Validate(payload map[string]interface{}) (*SignalInput, error) {
	var errs, warnings []string
	for _, field := range requiredFields {
		if _, ok := payload[field]; !ok {
			errs = append(errs, fmt.Sprintf("Missing required field: %s", field))
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs, Warnings: []string{}}
	}

	in := &SignalInput{
		Asset:      strings.ToUpper(helper.ToString(payload["asset"])),
		SignalType: strings.ToUpper(helper.ToString(payload["signal_type"])),
		Timeframe:  helper.ToString(payload["timeframe"]),
		Strategy:   helper.ToString(payload["strategy"]),
	}

	if _, ok := p.watchlist[in.Asset]; !ok {
		errs = append(errs, fmt.Sprintf("Asset '%s' not in approved watchlist", in.Asset))
	}
	if in.SignalType != model.SignalTypeLong && in.SignalType != model.SignalTypeShort {
		errs = append(errs, fmt.Sprintf("signal_type must be LONG or SHORT, got '%s'", in.SignalType))
	}

	errs = append(errs, p.validatePrices(in, payload)...)

	rr, err := helper.ToFloat(payload["rr_ratio"])
	if err != nil {
		errs = append(errs, "RR ratio must be numeric")
	} else {
		in.RRRatio = rr
		if rr < p.risk.RRRatioMin {
			warnings = append(warnings, fmt.Sprintf("RR ratio %s below minimum %s", utils.FormatFloat(rr), utils.FormatFloat(p.risk.RRRatioMin)))
		} else if p.risk.RRRatioMax > 0 && rr > p.risk.RRRatioMax {
			warnings = append(warnings, fmt.Sprintf("RR ratio %s above maximum %s", utils.FormatFloat(rr), utils.FormatFloat(p.risk.RRRatioMax)))
		}
	}

	confidence, err := helper.ToInt(payload["confidence_score"])
	if err != nil {
		errs = append(errs, "Confidence score must be integer")
	} else {
		in.ConfidenceScore = confidence
		if confidence < 0 || confidence > 10 {
			errs = append(errs, fmt.Sprintf("Confidence score must be 0-10, got %s", helper.IntegerString(payload["confidence_score"])))
		}
	}

	if warnings == nil {
		warnings = []string{}
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs, Warnings: warnings}
	}
	in.Warnings = warnings
	return in, nil
}

func (p *SignalProcessor) validatePrices(in *SignalInput, payload map[string]interface{}) []string {
	entry, errEntry := helper.ToFloat(payload["entry_price"])
	stop, errStop := helper.ToFloat(payload["stop_loss"])
	target, errTarget := helper.ToFloat(payload["take_profit"])
	if errEntry != nil || errStop != nil || errTarget != nil {
		return []string{"Prices must be numeric"}
	}
	in.EntryPrice, in.StopLoss, in.TakeProfit = entry, stop, target

	e, s, t := utils.FormatFloat(entry), utils.FormatFloat(stop), utils.FormatFloat(target)
	var errs []string
	switch in.SignalType {
	case model.SignalTypeLong:
		if entry >= target {
			errs = append(errs, fmt.Sprintf("LONG: entry (%s) must be < target (%s)", e, t))
		}
		if entry <= stop {
			errs = append(errs, fmt.Sprintf("LONG: entry (%s) must be > stop (%s)", e, s))
		}
	case model.SignalTypeShort:
		if entry <= target {
			errs = append(errs, fmt.Sprintf("SHORT: entry (%s) must be > target (%s)", e, t))
		}
		if entry >= stop {
			errs = append(errs, fmt.Sprintf("SHORT: entry (%s) must be < stop (%s)", e, s))
		}
	}
	return errs
}

// DetermineStatus decides the initial approval status of a valid signal.
func (p *SignalProcessor) DetermineStatus(confidence int, rr float64) model.SignalStatus {
	switch {
	case confidence >= p.risk.ConfidenceAutoApprove && rr >= p.risk.AutoApproveRR:
		return model.SignalStatusApproved
	case confidence >= p.risk.ConfidencePending:
		return model.SignalStatusPending
	default:
		return model.SignalStatusRejected
	}
}

// IsPineScriptPayload reports whether the body uses the chart alert shape
// (symbol/side/entry/stop/tp1/score) instead of the canonical one.
func IsPineScriptPayload(payload map[string]interface{}) bool {
	_, hasSymbol := payload["symbol"]
	_, hasAsset := payload["asset"]
	return hasSymbol && !hasAsset
}

// TranslatePineScript maps a chart alert body onto the canonical fields and
// derives the reward/risk ratio from entry, stop and the first target.
func TranslatePineScript(payload map[string]interface{}, defaultStrategy string) (map[string]interface{}, error) {
	number := func(key string) (float64, error) {
		v, ok := payload[key]
		if !ok {
			return 0, nil
		}
		f, err := helper.ToFloat(v)
		if err != nil {
			return 0, fmt.Errorf("%w: field %s must be numeric", ErrInvalidPayload, key)
		}
		return f, nil
	}

	entry, err := number("entry")
	if err != nil {
		return nil, err
	}
	stop, err := number("stop")
	if err != nil {
		return nil, err
	}
	tp1, err := number("tp1")
	if err != nil {
		return nil, err
	}

	score := 0
	if v, ok := payload["score"]; ok {
		if score, err = helper.ToInt(v); err != nil {
			return nil, fmt.Errorf("%w: field score must be an integer", ErrInvalidPayload)
		}
	}

	side := model.SignalTypeLong
	if v, ok := payload["side"]; ok {
		side = strings.ToUpper(helper.ToString(v))
	}

	risk := 1.0
	if entry != 0 && stop != 0 {
		risk = abs(entry - stop)
	}
	reward := 0.0
	if tp1 != 0 && entry != 0 {
		reward = abs(tp1 - entry)
	}
	rr := 0.0
	if risk > 0 {
		rr = helper.Round(reward/risk, 2)
	}

	strategy := defaultStrategy
	if v, ok := payload["strategy"]; ok {
		strategy = helper.ToString(v)
	}

	return map[string]interface{}{
		"asset":            stripExchange(helper.ToString(payload["symbol"])),
		"signal_type":      side,
		"entry_price":      entry,
		"stop_loss":        stop,
		"take_profit":      tp1,
		"rr_ratio":         rr,
		"confidence_score": score,
		"timeframe":        helper.ToString(payload["timeframe"]),
		"strategy":         strategy,
	}, nil
}

// stripExchange turns "BINANCE:BTCUSDT" into "BTCUSDT".
func stripExchange(symbol string) string {
	if i := strings.LastIndex(symbol, ":"); i >= 0 {
		return symbol[i+1:]
	}
	return symbol
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
