package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/sellerhub/internal/model"
)

// ReviewRepo provides data access to the reviews table.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a ReviewRepo bound to db.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts rv and populates its ID and CreatedAt.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (user_id, reviewer_name, comment, rating, image_path) VALUES (?,?,?,?,?)",
		rv.UserID, rv.ReviewerName, rv.Comment, rv.Rating, rv.ImagePath)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM reviews WHERE id = ?", rv.ID).Scan(&rv.CreatedAt)
}

// GetByID fetches a review regardless of owner.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	const q = "SELECT id, user_id, reviewer_name, comment, rating, image_path, created_at FROM reviews WHERE id = ?"
	return scanReview(r.db.QueryRowContext(ctx, q, id))
}

// ListByUser returns the reviews written by userID, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	const q = "SELECT id, user_id, reviewer_name, comment, rating, image_path, created_at FROM reviews WHERE user_id = ? ORDER BY id DESC"
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// DeleteOwned removes a review after checking that ownerID wrote it and
// returns the removed row.
func (r *ReviewRepo) DeleteOwned(ctx context.Context, id, ownerID uint64) (model.Review, error) {
	rv, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	if rv.UserID != ownerID {
		return model.Review{}, ErrForbidden
	}
	if _, err = r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ? AND user_id = ?", id, ownerID); err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func scanReview(s rowScanner) (model.Review, error) {
	var (
		out       model.Review
		comment   sql.NullString
		imagePath sql.NullString
	)
	err := s.Scan(&out.ID, &out.UserID, &out.ReviewerName, &comment, &out.Rating, &imagePath, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	out.Comment = nullString(comment)
	out.ImagePath = nullString(imagePath)
	return out, nil
}
