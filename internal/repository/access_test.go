package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehubot/mehu/internal/model"
)

func TestAccessRecord_Idempotent(t *testing.T) {
	database := newTestDB(t)
	media := NewMediaRepository(database)
	access := NewAccessRepository(database)

	id, _, err := media.Upsert("F1", model.MediaKindPhoto)
	require.NoError(t, err)

	require.NoError(t, access.Record(id, 100, model.OwnerKindUser))
	require.NoError(t, access.Record(id, 100, model.OwnerKindUser))
	require.NoError(t, access.Record(id, -500, model.OwnerKindGroup))

	got, err := access.ByMedia(id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(100), got[0].OwnerID)
	assert.Equal(t, model.OwnerKindUser, got[0].OwnerKind)
	assert.Equal(t, int64(-500), got[1].OwnerID)
	assert.Equal(t, model.OwnerKindGroup, got[1].OwnerKind)
}

func TestAccessRecord_OwnerKindImmutable(t *testing.T) {
	database := newTestDB(t)
	media := NewMediaRepository(database)
	access := NewAccessRepository(database)

	id, _, err := media.Upsert("F1", model.MediaKindPhoto)
	require.NoError(t, err)

	require.NoError(t, access.Record(id, 100, model.OwnerKindUser))
	require.NoError(t, access.Record(id, 100, model.OwnerKindGroup))

	got, err := access.ByMedia(id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.OwnerKindUser, got[0].OwnerKind)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("disk I/O error")))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: media.file_id, media.media_type (2067)")))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", errors.New(`ERROR: duplicate key value violates unique constraint "media_file_id_media_type_key"`))))
}
