package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/mehubot/mehu/internal/model"
)

type TagRepository interface {
	Upsert(mediaID int64, text string) (int64, error)
	BumpCounter(mediaID int64, prefix string) (int64, error)
	ByMedia(mediaID int64) ([]*model.Tag, error)
}

type tagRepository struct {
	db *sqlx.DB
}

func NewTagRepository(db *sqlx.DB) TagRepository {
	return &tagRepository{db: db}
}

// Upsert lower-cases text before both the lookup and the insert and returns the tag row id.
// The counter is never touched here.
func (r *tagRepository) Upsert(mediaID int64, text string) (int64, error) {
	tag := model.NormalizeTag(text)
	if tag == "" {
		return 0, ErrEmptyTag
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.Get(&id, `SELECT id FROM tag WHERE media_id = $1 AND tag = $2`, mediaID, tag)
	if err == nil {
		return id, tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to read tag: %w", err)
	}

	err = tx.Get(&id, `INSERT INTO tag (media_id, tag) VALUES ($1, $2) RETURNING id`, mediaID, tag)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: tag (%d, %s): %v", ErrConstraintViolation, mediaID, tag, err)
		}
		return 0, fmt.Errorf("failed to insert tag: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("failed to commit tag: %w", err)
	}

	slog.Debug("tag inserted", "media_id", mediaID, "tag", tag)
	return id, nil
}

// BumpCounter increments every tag on mediaID that starts with prefix (case-sensitive)
// and returns how many rows were bumped.
func (r *tagRepository) BumpCounter(mediaID int64, prefix string) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE tag SET counter = counter + 1
	          WHERE media_id = $1 AND substr(tag, 1, length(CAST($2 AS TEXT))) = CAST($2 AS TEXT)`

	res, err := tx.Exec(query, mediaID, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to bump tag counter: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return n, tx.Commit()
}

func (r *tagRepository) ByMedia(mediaID int64) ([]*model.Tag, error) {
	var tags []*model.Tag
	query := `SELECT id, media_id, tag, counter FROM tag WHERE media_id = $1 ORDER BY id ASC`

	err := r.db.Select(&tags, query, mediaID)
	if err != nil {
		return nil, err
	}

	return tags, nil
}
