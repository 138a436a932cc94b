package post

import (
	"time"

	"github.com/google/uuid"
)

// Post is a company listing post. Sponsored posts stay promoted until
// ExpiryDate.
type Post struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CompanyID   uuid.UUID  `db:"company_id" json:"company_id"`
	Title       string     `db:"title" json:"title"`
	Body        string     `db:"body" json:"body"`
	IsSponsored bool       `db:"is_sponsored" json:"is_sponsored"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IsPromoted reports whether the sponsorship is still running at now
func (p *Post) IsPromoted(now time.Time) bool {
	return p.IsSponsored && p.ExpiryDate != nil && !p.ExpiryDate.Before(now)
}

// CreateSponsoredInput is what a company submits to buy a sponsored post
type CreateSponsoredInput struct {
	CompanyID           uuid.UUID
	Title               string
	Body                string
	SponsorDurationDays *int
	UserID              *uuid.UUID
}

// SponsoredResult is returned once the post and its payment committed
type SponsoredResult struct {
	Post             *Post
	CreditsDeducted  int
	RemainingBalance int
	ExpiryDate       time.Time
}
