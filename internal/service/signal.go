package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"signals-service/config"
	"signals-service/internal/dto"
	"signals-service/internal/model"
	"signals-service/internal/repository"
	"signals-service/pkg/cache"
	"signals-service/pkg/common"
	"signals-service/pkg/logger"
	"signals-service/pkg/metrics"
	"signals-service/pkg/telegram"
	"signals-service/pkg/utils"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/telebot.v3"
)

const maxIDAttempts = 5

var (
	ErrSignalNotFound   = errors.New("signal not found")
	ErrSignalNotPending = errors.New("signal is not pending")
)

// ReviewSource tells where a manual review came from.
type ReviewSource string

const (
	ReviewSourceHTTP     ReviewSource = "http"
	ReviewSourceTelegram ReviewSource = "telegram"
	ReviewSourceSystem   ReviewSource = "system"
)

// Reviewer identifies who approved or rejected a signal.
type Reviewer struct {
	Name   string
	Source ReviewSource
}

// Notifier posts messages to the signals channel.
type Notifier interface {
	Configured() bool
	SendChannel(ctx context.Context, message string, opts ...interface{}) (*telebot.Message, error)
}

// IngestResult describes a stored, or de-duplicated, signal.
type IngestResult struct {
	Signal    *model.Signal
	Warnings  []string
	Duplicate bool
}

type SignalService interface {
	Ingest(ctx context.Context, payload map[string]interface{}) (*IngestResult, error)
	Approve(ctx context.Context, id string, by Reviewer) (*model.Signal, error)
	Reject(ctx context.Context, id string, reason string, by Reviewer) (*model.Signal, error)
	Get(ctx context.Context, id string) (*model.Signal, error)
	// List returns the number of matching signals and at most limit of them.
	// A negative limit means no limit.
	List(ctx context.Context, status *model.SignalStatus, limit int) (int, []model.Signal, error)
	Stats(ctx context.Context) (dto.SignalCounts, error)
	Watchlist() []string
	TelegramConfigured() bool
	ExpirePending(ctx context.Context, cutoff time.Time, reason string) (int, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type signalService struct {
	cfg           *config.Config
	log           *logger.Logger
	processor     *SignalProcessor
	signalRepo    repository.SignalRepository
	journalRepo   repository.JournalRepository
	notifier      Notifier
	inmemoryCache cache.Cache
	metrics       *metrics.Metrics
	newID         func() string
}

func NewSignalService(
	cfg *config.Config,
	log *logger.Logger,
	signalRepo repository.SignalRepository,
	journalRepo repository.JournalRepository,
	notifier Notifier,
	inmemoryCache cache.Cache,
	m *metrics.Metrics,
) *signalService {
	return &signalService{
		cfg:           cfg,
		log:           log,
		processor:     NewSignalProcessor(cfg.Risk),
		signalRepo:    signalRepo,
		journalRepo:   journalRepo,
		notifier:      notifier,
		inmemoryCache: inmemoryCache,
		metrics:       m,
		newID:         NewSignalID,
	}
}

// NewSignalID returns "SIG-" followed by eight upper-case hex characters.
func NewSignalID() string {
	return "SIG-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *signalService) Ingest(ctx context.Context, payload map[string]interface{}) (*IngestResult, error) {
	if IsPineScriptPayload(payload) {
		translated, err := TranslatePineScript(payload, s.cfg.Ingest.DefaultStrategy)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to translate chart alert payload", logger.ErrorField(err))
			s.metrics.SignalsRejected.WithLabelValues("invalid_payload").Inc()
			return nil, err
		}
		payload = translated
	}

	input, err := s.processor.Validate(payload)
	if err != nil {
		s.log.InfoContext(ctx, "Signal failed validation", logger.ErrorField(err))
		s.metrics.SignalsRejected.WithLabelValues("validation_failed").Inc()
		return nil, err
	}

	status := s.processor.DetermineStatus(input.ConfidenceScore, input.RRRatio)
	signalID := s.newID()

	dedupeKey := ""
	if s.cfg.Ingest.DedupeWindow > 0 {
		dedupeKey = fmt.Sprintf(common.KEY_INGEST_DEDUPE, fingerprint(input))
		if !s.inmemoryCache.Add(dedupeKey, signalID, s.cfg.Ingest.DedupeWindow) {
			if existing := s.findDuplicate(ctx, dedupeKey, input, status); existing != nil {
				s.log.InfoContext(ctx, "Duplicate signal ignored", logger.StringField("signal_id", existing.ID))
				s.metrics.SignalsRejected.WithLabelValues("duplicate").Inc()
				return &IngestResult{Signal: existing, Warnings: input.Warnings, Duplicate: true}, nil
			}
			// The earlier claim expired between Add and Get.
			s.inmemoryCache.Set(dedupeKey, signalID, s.cfg.Ingest.DedupeWindow)
		}
	}

	signal := newSignal(signalID, input, status)
	if err := signal.SetMetadata(model.SignalMetadata{Timeframe: input.Timeframe, Strategy: input.Strategy}); err != nil {
		return nil, fmt.Errorf("failed to encode signal metadata: %w", err)
	}

	if err := s.create(ctx, signal, dedupeKey); err != nil {
		if dedupeKey != "" {
			s.inmemoryCache.Delete(dedupeKey)
		}
		s.log.ErrorContextWithAlert(ctx, "Failed to store signal", logger.ErrorField(err), logger.StringField("signal_id", signal.ID))
		return nil, fmt.Errorf("failed to store signal: %w", err)
	}
	s.metrics.SignalsIngested.WithLabelValues(string(status)).Inc()

	s.log.InfoContext(ctx, "Signal stored",
		logger.StringField("signal_id", signal.ID),
		logger.StringField("asset", signal.Asset),
		logger.StringField("signal_type", signal.SignalType),
		logger.StringField("status", string(signal.Status)),
		logger.IntField("confidence_score", signal.ConfidenceScore),
		logger.FloatField("rr_ratio", signal.RRRatio),
	)

	if err := s.journalRepo.Append(ctx, dto.NewSignalResponse(*signal)); err != nil {
		s.log.WarnContext(ctx, "Failed to append signal to journal", logger.ErrorField(err), logger.StringField("path", s.journalRepo.Path()))
	}

	s.notifySignal(ctx, signal)

	return &IngestResult{Signal: signal, Warnings: input.Warnings}, nil
}

// create stores the signal, drawing a fresh id when the random one is taken.
func (s *signalService) create(ctx context.Context, signal *model.Signal, dedupeKey string) error {
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if attempt > 0 {
			s.log.WarnContext(ctx, "Signal id collision, retrying", logger.StringField("signal_id", signal.ID))
			signal.ID = s.newID()
			if dedupeKey != "" {
				s.inmemoryCache.Set(dedupeKey, signal.ID, s.cfg.Ingest.DedupeWindow)
			}
		}
		err = s.signalRepo.Create(ctx, signal)
		if !errors.Is(err, repository.ErrSignalExists) {
			return err
		}
	}
	return err
}

// findDuplicate resolves the id claimed under key. A claim whose signal
// is still being stored is reported from the input itself.
func (s *signalService) findDuplicate(ctx context.Context, key string, input *SignalInput, status model.SignalStatus) *model.Signal {
	id, ok := cache.GetFromCache[string](s.inmemoryCache, key)
	if !ok {
		return nil
	}
	existing, err := s.signalRepo.FindByID(ctx, id)
	if err != nil {
		return newSignal(id, input, status)
	}
	return existing
}

func newSignal(id string, input *SignalInput, status model.SignalStatus) *model.Signal {
	return &model.Signal{
		ID:              id,
		Timestamp:       utils.ISOTimestampZ(utils.TimeNowUTC()),
		Asset:           input.Asset,
		SignalType:      input.SignalType,
		EntryPrice:      input.EntryPrice,
		StopLoss:        input.StopLoss,
		TakeProfit:      input.TakeProfit,
		RRRatio:         input.RRRatio,
		ConfidenceScore: input.ConfidenceScore,
		Status:          status,
	}
}

func fingerprint(in *SignalInput) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d",
		in.Asset,
		in.SignalType,
		utils.FormatFloat(in.EntryPrice),
		utils.FormatFloat(in.StopLoss),
		utils.FormatFloat(in.TakeProfit),
		utils.FormatFloat(in.RRRatio),
		in.ConfidenceScore,
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *signalService) notifySignal(ctx context.Context, signal *model.Signal) {
	if !s.notifier.Configured() {
		s.metrics.TelegramMessages.WithLabelValues("skipped").Inc()
	}

	opts := []interface{}{}
	if signal.Status == model.SignalStatusPending && s.cfg.Telegram.WebhookURL != "" {
		opts = append(opts, telegram.ReviewMarkup(signal.ID))
	}

	message := telegram.FormatSignalMessage(ToSignalMessage(signal))
	if _, err := s.notifier.SendChannel(ctx, message, opts...); err != nil {
		if !errors.Is(err, telegram.ErrNotConfigured) {
			s.metrics.TelegramMessages.WithLabelValues("failed").Inc()
			s.log.WarnContext(ctx, "Failed to notify signal", logger.ErrorField(err), logger.StringField("signal_id", signal.ID))
		}
		return
	}
	s.metrics.TelegramMessages.WithLabelValues("sent").Inc()
}

// ToSignalMessage maps a stored signal onto the channel post fields.
func ToSignalMessage(signal *model.Signal) telegram.SignalMessage {
	return telegram.SignalMessage{
		ID:              signal.ID,
		Timestamp:       signal.Timestamp,
		Asset:           signal.Asset,
		SignalType:      signal.SignalType,
		Status:          string(signal.Status),
		EntryPrice:      signal.EntryPrice,
		StopLoss:        signal.StopLoss,
		TakeProfit:      signal.TakeProfit,
		RRRatio:         signal.RRRatio,
		ConfidenceScore: signal.ConfidenceScore,
	}
}

func (s *signalService) Approve(ctx context.Context, id string, by Reviewer) (*model.Signal, error) {
	return s.review(ctx, id, model.SignalStatusApproved, "", by)
}

func (s *signalService) Reject(ctx context.Context, id string, reason string, by Reviewer) (*model.Signal, error) {
	return s.review(ctx, id, model.SignalStatusRejected, reason, by)
}

func (s *signalService) review(ctx context.Context, id string, to model.SignalStatus, reason string, by Reviewer) (*model.Signal, error) {
	signal, err := s.signalRepo.TransitionStatus(ctx, id, model.SignalStatusPending, to, reason)
	switch {
	case errors.Is(err, repository.ErrSignalNotFound):
		return nil, fmt.Errorf("%w: %s", ErrSignalNotFound, id)
	case errors.Is(err, repository.ErrStatusConflict):
		return nil, fmt.Errorf("%w: %s", ErrSignalNotPending, id)
	case err != nil:
		s.log.ErrorContext(ctx, "Failed to update signal status", logger.ErrorField(err), logger.StringField("signal_id", id))
		return nil, fmt.Errorf("failed to update signal status: %w", err)
	}

	s.metrics.SignalsReviewed.WithLabelValues(string(to)).Inc()
	s.log.InfoContext(ctx, "Signal reviewed",
		logger.StringField("signal_id", id),
		logger.StringField("status", string(to)),
		logger.StringField("reviewer", by.Name),
		logger.StringField("source", string(by.Source)),
	)

	// Telegram reviews edit the original post instead.
	if by.Source != ReviewSourceTelegram && s.notifier.Configured() {
		message := telegram.FormatReviewMessage(id, string(to), reason, by.Name)
		if _, err := s.notifier.SendChannel(ctx, message); err != nil {
			s.metrics.TelegramMessages.WithLabelValues("failed").Inc()
			s.log.WarnContext(ctx, "Failed to notify review", logger.ErrorField(err), logger.StringField("signal_id", id))
		} else {
			s.metrics.TelegramMessages.WithLabelValues("sent").Inc()
		}
	}
	return signal, nil
}

func (s *signalService) Get(ctx context.Context, id string) (*model.Signal, error) {
	signal, err := s.signalRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrSignalNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSignalNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find signal: %w", err)
	}
	return signal, nil
}

func (s *signalService) List(ctx context.Context, status *model.SignalStatus, limit int) (int, []model.Signal, error) {
	counts, err := s.signalRepo.CountByStatus(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to count signals: %w", err)
	}

	total := 0
	if status != nil {
		total = int(counts[*status])
	} else {
		for _, c := range counts {
			total += int(c)
		}
	}

	param := model.GetSignalParam{Status: status}
	if limit >= 0 {
		param.Limit = utils.ToPointer(limit)
	}
	signals, err := s.signalRepo.Get(ctx, param)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get signals: %w", err)
	}
	return total, signals, nil
}

func (s *signalService) Stats(ctx context.Context) (dto.SignalCounts, error) {
	counts, err := s.signalRepo.CountByStatus(ctx)
	if err != nil {
		return dto.SignalCounts{}, fmt.Errorf("failed to count signals: %w", err)
	}
	out := dto.SignalCounts{
		Approved: int(counts[model.SignalStatusApproved]),
		Pending:  int(counts[model.SignalStatusPending]),
		Rejected: int(counts[model.SignalStatusRejected]),
	}
	for _, c := range counts {
		out.Total += int(c)
	}
	return out, nil
}

func (s *signalService) Watchlist() []string {
	return s.processor.Watchlist()
}

func (s *signalService) TelegramConfigured() bool {
	return s.notifier.Configured()
}

func (s *signalService) ExpirePending(ctx context.Context, cutoff time.Time, reason string) (int, error) {
	pending, err := s.signalRepo.Get(ctx, model.GetSignalParam{
		Status:        utils.ToPointer(model.SignalStatusPending),
		CreatedBefore: utils.ToPointer(cutoff),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get pending signals: %w", err)
	}

	expired := 0
	for _, signal := range pending {
		if !utils.ShouldContinue(ctx, s.log) {
			return expired, ctx.Err()
		}
		_, err := s.review(ctx, signal.ID, model.SignalStatusRejected, reason, Reviewer{Name: "scheduler", Source: ReviewSourceSystem})
		if errors.Is(err, ErrSignalNotPending) || errors.Is(err, ErrSignalNotFound) {
			continue
		}
		if err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (s *signalService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.signalRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete signals older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return deleted, nil
}
