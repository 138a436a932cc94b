package post

import "time"

// CreateSponsoredRequest for POST /api/v1/companies/{id}/posts/sponsored
type CreateSponsoredRequest struct {
	Title               string `json:"title" validate:"required,notblank,max=200"`
	Body                string `json:"body" validate:"max=10000"`
	SponsorDurationDays *int   `json:"sponsor_duration_days,omitempty" validate:"omitempty,min=1,max=365"`
}

// PostResponse represents a post in API responses
type PostResponse struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	IsSponsored bool       `json:"is_sponsored"`
	IsPromoted  bool       `json:"is_promoted"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func PostResponseFromEntity(p *Post, now time.Time) *PostResponse {
	return &PostResponse{
		ID:          p.ID.String(),
		CompanyID:   p.CompanyID.String(),
		Title:       p.Title,
		Body:        p.Body,
		IsSponsored: p.IsSponsored,
		IsPromoted:  p.IsPromoted(now),
		ExpiryDate:  p.ExpiryDate,
		CreatedAt:   p.CreatedAt,
	}
}

// SponsoredResponse for a completed sponsored post purchase
type SponsoredResponse struct {
	Post             *PostResponse `json:"post"`
	CreditsDeducted  int           `json:"credits_deducted"`
	RemainingBalance int           `json:"remaining_balance"`
	ExpiryDate       time.Time     `json:"expiry_date"`
}
