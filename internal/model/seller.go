package model

import "time"

// Seller is a seller profile owned by a user (sellers.user_id).
type Seller struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"userId"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	GrossSale *float32  `json:"grossSale"`
	Earning   *float32  `json:"earning"`
	ImagePath *string   `json:"imagePath"`
	CreatedAt time.Time `json:"createdAt"`
}
