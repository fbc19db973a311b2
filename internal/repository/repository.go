package repository

import (
	"fmt"
	"signals-service/config"
	"signals-service/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	SignalRepo  SignalRepository
	JournalRepo JournalRepository
}

// NewRepository picks the signal store from cfg.Storage.Driver. db may be
// nil for the memory driver.
func NewRepository(cfg *config.Config, db *gorm.DB, log *logger.Logger) (*Repository, error) {
	var signalRepo SignalRepository
	switch cfg.Storage.Driver {
	case "memory":
		signalRepo = NewMemorySignalRepository()
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("storage driver postgres requires a database connection")
		}
		signalRepo = NewPostgresSignalRepository(db)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	log.Info("Signal store ready", logger.StringField("driver", cfg.Storage.Driver))
	return &Repository{
		SignalRepo:  signalRepo,
		JournalRepo: NewJournalRepository(cfg.Journal),
	}, nil
}
