package model

import "time"

// Snack is a concession item that can be added to an order.
type Snack struct {
	ID          uint64    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	PriceCents  int64     `db:"price_cents" json:"priceCents"`
	ImageURL    string    `db:"image_url" json:"imageUrl"`
	IsAvailable bool      `db:"is_available" json:"isAvailable"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
