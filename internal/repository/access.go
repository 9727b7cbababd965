package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/mehubot/mehu/internal/model"
)

type AccessRepository interface {
	Record(mediaID, ownerID int64, kind model.OwnerKind) error
	ByMedia(mediaID int64) ([]*model.Access, error)
}

type accessRepository struct {
	db *sqlx.DB
}

func NewAccessRepository(db *sqlx.DB) AccessRepository {
	return &accessRepository{db: db}
}

// Record grants ownerID access to mediaID once. The first recorded owner kind wins.
func (r *accessRepository) Record(mediaID, ownerID int64, kind model.OwnerKind) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing model.OwnerKind
	err = tx.Get(&existing, `SELECT owner_kind FROM access WHERE media_id = $1 AND owner_id = $2`, mediaID, ownerID)
	if err == nil {
		if existing != kind {
			slog.Warn("access owner kind is immutable, keeping original",
				"media_id", mediaID, "owner_id", ownerID, "kind", existing.String(), "requested", kind.String())
		}
		return tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read access: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO access (media_id, owner_id, owner_kind) VALUES ($1, $2, $3)`, mediaID, ownerID, kind)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: access (%d, %d): %v", ErrConstraintViolation, mediaID, ownerID, err)
		}
		return fmt.Errorf("failed to insert access: %w", err)
	}

	return tx.Commit()
}

func (r *accessRepository) ByMedia(mediaID int64) ([]*model.Access, error) {
	var rows []*model.Access
	query := `SELECT id, media_id, owner_id, owner_kind FROM access WHERE media_id = $1 ORDER BY id ASC`

	err := r.db.Select(&rows, query, mediaID)
	if err != nil {
		return nil, err
	}

	return rows, nil
}
