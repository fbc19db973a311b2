package repository

import (
	"context"
	"errors"
	"signals-service/internal/model"
	"time"
)

var (
	ErrSignalNotFound = errors.New("signal not found")
	ErrSignalExists   = errors.New("signal already exists")
	// ErrStatusConflict means the signal exists but is not in the expected status.
	ErrStatusConflict = errors.New("signal status conflict")
)

type SignalRepository interface {
	Create(ctx context.Context, signal *model.Signal) error
	FindByID(ctx context.Context, id string) (*model.Signal, error)
	// Get returns signals in creation order.
	Get(ctx context.Context, param model.GetSignalParam) ([]model.Signal, error)
	CountByStatus(ctx context.Context) (map[model.SignalStatus]int64, error)
	// TransitionStatus moves a signal from one status to another atomically.
	TransitionStatus(ctx context.Context, id string, from, to model.SignalStatus, reason string) (*model.Signal, error)
	DeleteOlderThan(ctx context.Context, date time.Time) (int64, error)
}
