package model

import "time"

// Review is a product review written by a user (reviews.user_id).
type Review struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"userId"`
	ReviewerName string    `json:"reviewerName"`
	Comment      *string   `json:"comment"`
	Rating       int       `json:"rating"`
	ImagePath    *string   `json:"imagePath"`
	CreatedAt    time.Time `json:"createdAt"`
}
