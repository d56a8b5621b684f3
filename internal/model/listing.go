package model

import (
	"time"

	"github.com/google/uuid"
)

type ListingStatus string

const (
	ListingStatusActive ListingStatus = "active"
	ListingStatusSold   ListingStatus = "sold"
	ListingStatusClosed ListingStatus = "closed"
)

type Listing struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	SellerID    uuid.UUID     `db:"seller_id" json:"seller_id"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	Category    string        `db:"category" json:"category"`
	PriceCents  int64         `db:"price_cents" json:"price_cents"`
	Status      ListingStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}
