package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"signals-service/config"
	"signals-service/internal/dto"
	"sync"
)

// JournalRepository keeps an append-only JSON array of ingested signals
// on disk, trimmed to the newest entries.
type JournalRepository interface {
	Append(ctx context.Context, record dto.SignalResponse) error
	ReadAll(ctx context.Context) ([]dto.SignalResponse, error)
	Path() string
}

type fileJournalRepository struct {
	mu         sync.Mutex
	path       string
	maxEntries int
}

func NewJournalRepository(cfg config.Journal) JournalRepository {
	name := cfg.FileName
	if name == "" {
		name = "signals-log.json"
	}
	return &fileJournalRepository{
		path:       filepath.Join(cfg.DataDir, name),
		maxEntries: cfg.MaxEntries,
	}
}

func (r *fileJournalRepository) Path() string {
	return r.path
}

func (r *fileJournalRepository) Append(ctx context.Context, record dto.SignalResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.read()
	if err != nil {
		return err
	}
	entries = append(entries, record)
	if r.maxEntries > 0 && len(entries) > r.maxEntries {
		entries = entries[len(entries)-r.maxEntries:]
	}

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode journal: %w", err)
	}
	if err := r.write(raw); err != nil {
		return fmt.Errorf("failed to write journal %s: %w", r.path, err)
	}
	return nil
}

// write replaces the journal through a rename so a crash never leaves a
// half-written file behind.
func (r *fileJournalRepository) write(raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}

func (r *fileJournalRepository) ReadAll(ctx context.Context) ([]dto.SignalResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

func (r *fileJournalRepository) read() ([]dto.SignalResponse, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []dto.SignalResponse{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", r.path, err)
	}

	var entries []dto.SignalResponse
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode journal %s: %w", r.path, err)
	}
	return entries, nil
}
