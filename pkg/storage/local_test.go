package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	brandID := uuid.New()
	info, err := s.Save(ctx, brandID, KindUpload, "../google ads.csv", "text/csv", strings.NewReader("Campaign,Impr.\nA,1"))
	require.NoError(t, err)
	assert.Equal(t, int64(18), info.Size)
	assert.Equal(t, KindUpload, info.Kind)
	assert.NotContains(t, info.Path, "/")

	rc, got, err := s.Open(ctx, brandID, info.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "Campaign,Impr.\nA,1", string(body))
	assert.Equal(t, "../google ads.csv", got.Name)

	files, err := s.List(ctx, brandID)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	require.NoError(t, s.Delete(ctx, brandID, info.ID))
	_, _, err = s.Open(ctx, brandID, info.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)

	files, err = s.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLocalStorage_Purge(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	brandA, brandB := uuid.New(), uuid.New()

	s.now = func() time.Time { return base.AddDate(0, 0, -40) }
	_, err = s.Save(ctx, brandA, KindUpload, "old.csv", "text/csv", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.Save(ctx, brandB, KindExport, "old.xlsx", "application/octet-stream", strings.NewReader("y"))
	require.NoError(t, err)

	s.now = func() time.Time { return base }
	fresh, err := s.Save(ctx, brandA, KindUpload, "new.csv", "text/csv", strings.NewReader("z"))
	require.NoError(t, err)

	removed, err := s.Purge(ctx, base.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	files, err := s.List(ctx, brandA)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, fresh.ID, files[0].ID)
}
