package model

import "time"

// Review is a single customer review attached to a product.
type Review struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment"`
	UserID    string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product mirrors the product resource served by the store API.
type Product struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	Image        string     `json:"image"`
	Images       []string   `json:"images"`
	Brand        string     `json:"brand"`
	Category     string     `json:"category"`
	Description  string     `json:"description"`
	Price        int64      `json:"price"`
	CountInStock int        `json:"countInStock"`
	Rating       float64    `json:"rating"`
	NumReviews   int        `json:"numReviews"`
	Reviews      []Review   `json:"reviews"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// ReviewDraft is the payload for submitting a new product review.
type ReviewDraft struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}
