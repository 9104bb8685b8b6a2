package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/skillmatch-auth/internal/domain"
)

func TestFileStore_SaveGetDelete(t *testing.T) {
	files := newTestDB(t).FileStore()
	ctx := context.Background()

	data := []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, files.Save(ctx, "photos/a.png", "image/png", data))

	got, contentType, err := files.Get(ctx, "photos/a.png")
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, "image/png", contentType)

	require.NoError(t, files.Delete(ctx, "photos/a.png"))

	_, _, err = files.Get(ctx, "photos/a.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	files := newTestDB(t).FileStore()
	ctx := context.Background()

	require.NoError(t, files.Save(ctx, "k", "image/png", []byte("one")))
	require.NoError(t, files.Save(ctx, "k", "image/jpeg", []byte("two")))

	got, contentType, err := files.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestFileStore_DeleteMissingIsNoop(t *testing.T) {
	files := newTestDB(t).FileStore()
	assert.NoError(t, files.Delete(context.Background(), "missing"))
}
