package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/mehubot/mehu/internal/model"
)

type MediaRepository interface {
	Upsert(fileID string, kind model.MediaKind) (id int64, created bool, err error)
	ByID(id int64) (*model.Media, error)
	All() ([]*model.Media, error)
	ByTagPrefix(prefix string) ([]*model.Media, error)
}

type mediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) MediaRepository {
	return &mediaRepository{db: db}
}

// Upsert returns the surrogate id for (fileID, kind), inserting the row on first sight.
// created is true only when this call inserted it.
func (r *mediaRepository) Upsert(fileID string, kind model.MediaKind) (int64, bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.Get(&id, `SELECT id FROM media WHERE file_id = $1 AND media_type = $2`, fileID, kind)
	if err == nil {
		return id, false, tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("failed to read media: %w", err)
	}

	err = tx.Get(&id, `INSERT INTO media (file_id, media_type) VALUES ($1, $2) RETURNING id`, fileID, kind)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, false, fmt.Errorf("%w: media (%s, %s): %v", ErrConstraintViolation, fileID, kind, err)
		}
		return 0, false, fmt.Errorf("failed to insert media: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, false, fmt.Errorf("failed to commit media: %w", err)
	}

	slog.Info("media inserted", "media_id", id, "file_id", fileID, "kind", kind.String())
	return id, true, nil
}

func (r *mediaRepository) ByID(id int64) (*model.Media, error) {
	media := &model.Media{}
	query := `SELECT id, file_id, media_type FROM media WHERE id = $1`

	err := r.db.Get(media, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, err
	}

	return media, nil
}

// All returns every tagged media item, highest aggregate counter first.
func (r *mediaRepository) All() ([]*model.Media, error) {
	var media []*model.Media
	query := `SELECT m.id, m.file_id, m.media_type
	          FROM media m
	          JOIN tag t ON t.media_id = m.id
	          GROUP BY m.id, m.file_id, m.media_type
	          ORDER BY SUM(t.counter) DESC, m.id ASC`

	err := r.db.Select(&media, query)
	if err != nil {
		return nil, err
	}

	return media, nil
}

// ByTagPrefix is All restricted to media with at least one tag starting with prefix.
// The match is case-sensitive; tags are stored lower-cased.
func (r *mediaRepository) ByTagPrefix(prefix string) ([]*model.Media, error) {
	var media []*model.Media
	query := `SELECT m.id, m.file_id, m.media_type
	          FROM media m
	          JOIN tag t ON t.media_id = m.id
	          GROUP BY m.id, m.file_id, m.media_type
	          HAVING SUM(CASE WHEN substr(t.tag, 1, length(CAST($1 AS TEXT))) = CAST($1 AS TEXT) THEN 1 ELSE 0 END) > 0
	          ORDER BY SUM(t.counter) DESC, m.id ASC`

	err := r.db.Select(&media, query, prefix)
	if err != nil {
		return nil, err
	}

	return media, nil
}
