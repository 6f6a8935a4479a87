package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"top100/internal/models"
	"top100/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSweepStore struct {
	uploads []models.Upload
	deleted []uuid.UUID
	listErr error
	grace   time.Duration
}

func (f *fakeSweepStore) ListSweepableUploads(_ context.Context, grace time.Duration, _ int) ([]models.Upload, error) {
	f.grace = grace
	return f.uploads, f.listErr
}

func (f *fakeSweepStore) DeleteUpload(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeObjects struct {
	deleted []string
	errs    map[string]error
}

func (f *fakeObjects) Put(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	if err := f.errs[key]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func TestOrphanSweeper_Run(t *testing.T) {
	ok := models.Upload{ID: uuid.New(), ObjectKey: "avatars/a.png"}
	gone := models.Upload{ID: uuid.New(), ObjectKey: "avatars/gone.png"}
	stuck := models.Upload{ID: uuid.New(), ObjectKey: "avatars/stuck.png"}

	store := &fakeSweepStore{uploads: []models.Upload{ok, gone, stuck}}
	objects := &fakeObjects{errs: map[string]error{
		gone.ObjectKey:  storage.ErrNotFound,
		stuck.ObjectKey: errors.New("permission denied"),
	}}

	sweeper := NewOrphanSweeper(store, objects, 24*time.Hour, discard)
	n, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, 24*time.Hour, store.grace)
	assert.Equal(t, []uuid.UUID{ok.ID, gone.ID}, store.deleted)
	assert.Equal(t, []string{ok.ObjectKey}, objects.deleted)
}

func TestOrphanSweeper_ListError(t *testing.T) {
	store := &fakeSweepStore{listErr: errors.New("db down")}
	sweeper := NewOrphanSweeper(store, &fakeObjects{}, time.Hour, discard)

	_, err := sweeper.Run(context.Background())
	assert.Error(t, err)
}

func TestScheduler_AddSweeper(t *testing.T) {
	s := NewScheduler(discard)
	sweeper := NewOrphanSweeper(&fakeSweepStore{}, &fakeObjects{}, time.Hour, discard)

	assert.NoError(t, s.AddSweeper("0 */30 * * * *", sweeper, time.Minute))
	assert.Error(t, s.AddSweeper("not a schedule", sweeper, time.Minute))

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
