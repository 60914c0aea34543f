package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/sellerhub/internal/model"
)

// SellerRepo encapsulates all database queries related to seller profiles.
type SellerRepo struct {
	db *sql.DB
}

// NewSellerRepo constructs a SellerRepo with the provided DB handle.
func NewSellerRepo(db *sql.DB) *SellerRepo { return &SellerRepo{db: db} }

// Create inserts s and populates its ID and CreatedAt.
func (r *SellerRepo) Create(ctx context.Context, s *model.Seller) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO sellers (user_id, name, email, gross_sale, earning, image_path) VALUES (?,?,?,?,?,?)",
		s.UserID, s.Name, s.Email, s.GrossSale, s.Earning, s.ImagePath)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM sellers WHERE id = ?", s.ID).Scan(&s.CreatedAt)
}

// GetByID fetches a seller regardless of owner.
func (r *SellerRepo) GetByID(ctx context.Context, id uint64) (model.Seller, error) {
	const q = "SELECT id, user_id, name, email, gross_sale, earning, image_path, created_at FROM sellers WHERE id = ?"
	return scanSeller(r.db.QueryRowContext(ctx, q, id))
}

// ListByUser returns the sellers owned by userID, newest first.
func (r *SellerRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Seller, error) {
	const q = "SELECT id, user_id, name, email, gross_sale, earning, image_path, created_at FROM sellers WHERE user_id = ? ORDER BY id DESC"
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Seller{}
	for rows.Next() {
		s, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteOwned removes a seller after checking that ownerID owns it and
// returns the removed row. Returns ErrNotFound or ErrForbidden accordingly.
func (r *SellerRepo) DeleteOwned(ctx context.Context, id, ownerID uint64) (model.Seller, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Seller{}, err
	}
	if s.UserID != ownerID {
		return model.Seller{}, ErrForbidden
	}
	if _, err = r.db.ExecContext(ctx, "DELETE FROM sellers WHERE id = ? AND user_id = ?", id, ownerID); err != nil {
		return model.Seller{}, err
	}
	return s, nil
}

func scanSeller(s rowScanner) (model.Seller, error) {
	var (
		out       model.Seller
		email     sql.NullString
		grossSale sql.NullFloat64
		earning   sql.NullFloat64
		imagePath sql.NullString
	)
	err := s.Scan(&out.ID, &out.UserID, &out.Name, &email, &grossSale, &earning, &imagePath, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Seller{}, ErrNotFound
	}
	if err != nil {
		return model.Seller{}, err
	}
	out.Email = nullString(email)
	out.GrossSale = nullFloat32(grossSale)
	out.Earning = nullFloat32(earning)
	out.ImagePath = nullString(imagePath)
	return out, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat32(v sql.NullFloat64) *float32 {
	if !v.Valid {
		return nil
	}
	f := float32(v.Float64)
	return &f
}
