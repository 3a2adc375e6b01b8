package types

import (
	"time"

	"github.com/google/uuid"
)

type BannerAd struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"userId"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	StartDate      string    `json:"startDate"`
	TargetURL      string    `json:"targetUrl"`
	BannerDuration int       `json:"bannerDuration"`
	Cost           float64   `json:"cost"`
	Location       string    `json:"location"`
	ImageURL       string    `json:"imageUrl"`
	IsPaid         bool      `json:"isPaid"`
	ValidUntil     time.Time `json:"validUntil"`
	CreatedAt      time.Time `json:"createdAt"`
}

// BannerRequest carries the multipart form fields of a banner upload.
type BannerRequest struct {
	Title          string  `validate:"required,max=200"`
	Description    string  `validate:"max=2000"`
	StartDate      string  `validate:"omitempty,datetime=2006-01-02"`
	TargetURL      string  `validate:"omitempty,url"`
	BannerDuration int     `validate:"required,min=1,max=365"`
	Cost           float64 `validate:"min=0"`
	Location       string  `validate:"max=200"`
}

// UpdateBannerRequest holds the fields present in an update form. Nil means unchanged.
type UpdateBannerRequest struct {
	Title          *string  `validate:"omitempty,max=200"`
	Description    *string  `validate:"omitempty,max=2000"`
	StartDate      *string  `validate:"omitempty,datetime=2006-01-02"`
	TargetURL      *string  `validate:"omitempty,url"`
	BannerDuration *int     `validate:"omitempty,min=1,max=365"`
	Cost           *float64 `validate:"omitempty,min=0"`
	Location       *string  `validate:"omitempty,max=200"`
}

type BannerFilter struct {
	Page     int
	PageSize int
	IsPaid   *bool
}

type BannerPage struct {
	TotalCount int64      `json:"totalCount"`
	BannerData []BannerAd `json:"bannerData"`
}
