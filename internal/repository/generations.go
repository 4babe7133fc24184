package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/DivyanshuTiwari-1/makeupai/internal/model"
)

type GenerationsRepository interface {
	Insert(ctx context.Context, g model.Generation) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Generation, error)
}

type GenerationsRepositoryImpl struct {
	db *sqlx.DB
}

func NewGenerationsRepository(db *sqlx.DB) *GenerationsRepositoryImpl {
	return &GenerationsRepositoryImpl{db: db}
}

var _ GenerationsRepository = (*GenerationsRepositoryImpl)(nil)

func (r *GenerationsRepositoryImpl) Insert(ctx context.Context, g model.Generation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO generations (id, user_id, style, image_url, breakdown, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())
	`, g.ID, g.UserID, g.Style, g.ImageURL, g.Breakdown)
	return err
}

func (r *GenerationsRepositoryImpl) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Generation, error) {
	rows := []model.Generation{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, style, image_url, breakdown, created_at
		  FROM generations
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
