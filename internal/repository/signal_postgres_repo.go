package repository

import (
	"context"
	"errors"
	"fmt"
	"signals-service/internal/model"
	"signals-service/pkg/utils"
	"time"

	"gorm.io/gorm"
)

type postgresSignalRepository struct {
	db *gorm.DB
}

func NewPostgresSignalRepository(db *gorm.DB) SignalRepository {
	return &postgresSignalRepository{db: db}
}

func (r *postgresSignalRepository) Create(ctx context.Context, signal *model.Signal) error {
	err := r.db.WithContext(ctx).Create(signal).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrSignalExists, signal.ID)
	}
	return err
}

func (r *postgresSignalRepository) FindByID(ctx context.Context, id string) (*model.Signal, error) {
	var signal model.Signal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&signal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSignalNotFound
		}
		return nil, err
	}
	return &signal, nil
}

func (r *postgresSignalRepository) Get(ctx context.Context, param model.GetSignalParam) ([]model.Signal, error) {
	opts := []utils.DBOption{}
	if param.Status != nil {
		opts = append(opts, utils.WithWhere("status = ?", *param.Status))
	}
	if param.CreatedBefore != nil {
		opts = append(opts, utils.WithWhere("created_at < ?", *param.CreatedBefore))
	}
	if param.Limit != nil {
		opts = append(opts, utils.WithLimit(*param.Limit))
	}

	var signals []model.Signal
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Order("created_at ASC, id ASC").
		Find(&signals).Error
	if err != nil {
		return nil, err
	}
	return signals, nil
}

func (r *postgresSignalRepository) CountByStatus(ctx context.Context) (map[model.SignalStatus]int64, error) {
	var rows []struct {
		Status model.SignalStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Signal{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.SignalStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *postgresSignalRepository) TransitionStatus(ctx context.Context, id string, from, to model.SignalStatus, reason string) (*model.Signal, error) {
	var signal model.Signal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Signal{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]interface{}{"status": to, "reason": reason})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := tx.Where("id = ?", id).First(&signal).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrSignalNotFound
				}
				return err
			}
			return ErrStatusConflict
		}
		return tx.Where("id = ?", id).First(&signal).Error
	})
	if err != nil {
		return nil, err
	}
	return &signal, nil
}

func (r *postgresSignalRepository) DeleteOlderThan(ctx context.Context, date time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", date).Delete(&model.Signal{})
	return result.RowsAffected, result.Error
}
