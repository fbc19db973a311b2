package repository

import (
	"context"
	"fmt"
	"signals-service/internal/model"
	"sync"
	"time"
)

// memorySignalRepository keeps signals for the lifetime of the process.
// Hosts with an ephemeral disk run with this store.
type memorySignalRepository struct {
	mu      sync.RWMutex
	signals map[string]*model.Signal
	order   []string
	now     func() time.Time
}

func NewMemorySignalRepository() SignalRepository {
	return &memorySignalRepository{
		signals: make(map[string]*model.Signal),
		now:     time.Now,
	}
}

func (r *memorySignalRepository) Create(ctx context.Context, signal *model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.signals[signal.ID]; exists {
		return fmt.Errorf("%w: %s", ErrSignalExists, signal.ID)
	}
	now := r.now().UTC()
	if signal.CreatedAt.IsZero() {
		signal.CreatedAt = now
	}
	signal.UpdatedAt = now

	stored := *signal
	r.signals[signal.ID] = &stored
	r.order = append(r.order, signal.ID)
	return nil
}

func (r *memorySignalRepository) FindByID(ctx context.Context, id string) (*model.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	signal, ok := r.signals[id]
	if !ok {
		return nil, ErrSignalNotFound
	}
	out := *signal
	return &out, nil
}

func (r *memorySignalRepository) Get(ctx context.Context, param model.GetSignalParam) ([]model.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Signal{}
	for _, id := range r.order {
		if param.Limit != nil && len(out) >= *param.Limit {
			break
		}
		signal := r.signals[id]
		if param.Status != nil && signal.Status != *param.Status {
			continue
		}
		if param.CreatedBefore != nil && !signal.CreatedAt.Before(*param.CreatedBefore) {
			continue
		}
		out = append(out, *signal)
	}
	return out, nil
}

func (r *memorySignalRepository) CountByStatus(ctx context.Context) (map[model.SignalStatus]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.SignalStatus]int64)
	for _, signal := range r.signals {
		counts[signal.Status]++
	}
	return counts, nil
}

func (r *memorySignalRepository) TransitionStatus(ctx context.Context, id string, from, to model.SignalStatus, reason string) (*model.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	signal, ok := r.signals[id]
	if !ok {
		return nil, ErrSignalNotFound
	}
	if signal.Status != from {
		return nil, ErrStatusConflict
	}
	signal.Status = to
	signal.Reason = reason
	signal.UpdatedAt = r.now().UTC()

	out := *signal
	return &out, nil
}

func (r *memorySignalRepository) DeleteOlderThan(ctx context.Context, date time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	kept := r.order[:0]
	for _, id := range r.order {
		if r.signals[id].CreatedAt.Before(date) {
			delete(r.signals, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return deleted, nil
}
