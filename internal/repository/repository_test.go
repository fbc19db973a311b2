package repository

import (
	"context"
	"os"
	"path/filepath"
	"signals-service/config"
	"signals-service/internal/dto"
	"signals-service/internal/model"
	"signals-service/pkg/logger"
	"signals-service/pkg/utils"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSignal(id string, status model.SignalStatus, createdAt time.Time) *model.Signal {
	return &model.Signal{
		ID:              id,
		Asset:           "BTC",
		SignalType:      model.SignalTypeLong,
		EntryPrice:      100,
		StopLoss:        90,
		TakeProfit:      130,
		RRRatio:         3,
		ConfidenceScore: 7,
		Status:          status,
		CreatedAt:       createdAt,
	}
}

func TestMemorySignalRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySignalRepository()

	require.NoError(t, repo.Create(ctx, newSignal("SIG-1", model.SignalStatusPending, time.Time{})))
	assert.ErrorIs(t, repo.Create(ctx, newSignal("SIG-1", model.SignalStatusPending, time.Time{})), ErrSignalExists, "duplicate ids are refused")

	got, err := repo.FindByID(ctx, "SIG-1")
	require.NoError(t, err)
	assert.Equal(t, model.SignalStatusPending, got.Status)
	assert.False(t, got.CreatedAt.IsZero())

	got.Status = model.SignalStatusApproved
	again, _ := repo.FindByID(ctx, "SIG-1")
	assert.Equal(t, model.SignalStatusPending, again.Status, "callers get copies")

	_, err = repo.FindByID(ctx, "SIG-404")
	assert.ErrorIs(t, err, ErrSignalNotFound)
}

func TestMemorySignalRepository_GetKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySignalRepository()
	for _, s := range []*model.Signal{
		newSignal("SIG-C", model.SignalStatusPending, time.Time{}),
		newSignal("SIG-A", model.SignalStatusApproved, time.Time{}),
		newSignal("SIG-B", model.SignalStatusPending, time.Time{}),
	} {
		require.NoError(t, repo.Create(ctx, s))
	}

	all, err := repo.Get(ctx, model.GetSignalParam{})
	require.NoError(t, err)
	assert.Equal(t, []string{"SIG-C", "SIG-A", "SIG-B"}, ids(all))

	pending, _ := repo.Get(ctx, model.GetSignalParam{Status: utils.ToPointer(model.SignalStatusPending)})
	assert.Equal(t, []string{"SIG-C", "SIG-B"}, ids(pending))

	limited, _ := repo.Get(ctx, model.GetSignalParam{Limit: utils.ToPointer(2)})
	assert.Equal(t, []string{"SIG-C", "SIG-A"}, ids(limited))

	none, _ := repo.Get(ctx, model.GetSignalParam{Limit: utils.ToPointer(0)})
	assert.Empty(t, none)

	counts, _ := repo.CountByStatus(ctx)
	assert.Equal(t, int64(2), counts[model.SignalStatusPending])
	assert.Equal(t, int64(1), counts[model.SignalStatusApproved])
}

func TestMemorySignalRepository_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySignalRepository()
	require.NoError(t, repo.Create(ctx, newSignal("SIG-1", model.SignalStatusPending, time.Time{})))

	updated, err := repo.TransitionStatus(ctx, "SIG-1", model.SignalStatusPending, model.SignalStatusRejected, "late")
	require.NoError(t, err)
	assert.Equal(t, model.SignalStatusRejected, updated.Status)
	assert.Equal(t, "late", updated.Reason)

	_, err = repo.TransitionStatus(ctx, "SIG-1", model.SignalStatusPending, model.SignalStatusApproved, "")
	assert.ErrorIs(t, err, ErrStatusConflict)

	_, err = repo.TransitionStatus(ctx, "SIG-2", model.SignalStatusPending, model.SignalStatusApproved, "")
	assert.ErrorIs(t, err, ErrSignalNotFound)
}

func TestMemorySignalRepository_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySignalRepository()
	require.NoError(t, repo.Create(ctx, newSignal("SIG-1", model.SignalStatusPending, time.Time{})))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		to := model.SignalStatusApproved
		if i%2 == 0 {
			to = model.SignalStatusRejected
		}
		go func(to model.SignalStatus) {
			defer wg.Done()
			if _, err := repo.TransitionStatus(ctx, "SIG-1", model.SignalStatusPending, to, ""); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(to)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestMemorySignalRepository_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySignalRepository()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, newSignal("SIG-OLD", model.SignalStatusApproved, now.AddDate(0, 0, -40))))
	require.NoError(t, repo.Create(ctx, newSignal("SIG-NEW", model.SignalStatusApproved, now)))

	deleted, err := repo.DeleteOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	all, _ := repo.Get(ctx, model.GetSignalParam{})
	assert.Equal(t, []string{"SIG-NEW"}, ids(all))
}

func TestJournalRepository_AppendTrimsToNewest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	journal := NewJournalRepository(config.Journal{DataDir: dir, FileName: "signals-log.json", MaxEntries: 3})

	for _, id := range []string{"SIG-1", "SIG-2", "SIG-3", "SIG-4", "SIG-5"} {
		require.NoError(t, journal.Append(ctx, dto.SignalResponse{ID: id, Status: "PENDING"}))
	}

	entries, err := journal.ReadAll(ctx)
	require.NoError(t, err)
	got := []string{}
	for _, e := range entries {
		got = append(got, e.ID)
	}
	assert.Equal(t, []string{"SIG-3", "SIG-4", "SIG-5"}, got)

	raw, err := os.ReadFile(filepath.Join(dir, "signals-log.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {\n    \"id\": \"SIG-3\"")

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1, "temporary files are renamed away")
	assert.Equal(t, "signals-log.json", files[0].Name())
}

func TestJournalRepository_MissingDirKeepsNoPartialFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	journal := NewJournalRepository(config.Journal{DataDir: dir, MaxEntries: 10})

	err := journal.Append(context.Background(), dto.SignalResponse{ID: "SIG-1"})
	assert.Error(t, err)
	_, statErr := os.Stat(journal.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestJournalRepository_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signals-log.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	journal := NewJournalRepository(config.Journal{DataDir: dir, MaxEntries: 10})
	assert.Equal(t, path, journal.Path())
	assert.Error(t, journal.Append(context.Background(), dto.SignalResponse{ID: "SIG-1"}))
}

func TestNewRepository(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.DataDir = t.TempDir()

	repo, err := NewRepository(cfg, nil, logger.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, repo.SignalRepo)
	assert.NotNil(t, repo.JournalRepo)

	cfg.Storage.Driver = "postgres"
	_, err = NewRepository(cfg, nil, logger.NewNop())
	assert.Error(t, err)
}

func ids(signals []model.Signal) []string {
	out := []string{}
	for _, s := range signals {
		out = append(out, s.ID)
	}
	return out
}
