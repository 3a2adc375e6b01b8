package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	ProfilePicture  *string   `json:"profilePicture,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UpdateUserParams holds the mutable profile fields. Nil means unchanged.
type UpdateUserParams struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,password"`
}

type HotelRef struct {
	HotelID uuid.UUID `json:"hotelId"`
}

// UserActivity lists the hotels a user has interacted with.
type UserActivity struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Clicks    []HotelRef `json:"clicks"`
	Bookmarks []HotelRef `json:"bookmarks"`
}
