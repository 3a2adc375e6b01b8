package types

import (
	"time"

	"github.com/google/uuid"
)

// Amenities are the feature flags stored on the hotels table.
type Amenities struct {
	Cozy      bool `json:"cozy"`
	NiceView  bool `json:"niceView"`
	Parking   bool `json:"parking"`
	Pool      bool `json:"pool"`
	Spa       bool `json:"spa"`
	Gym       bool `json:"gym"`
	Breakfast bool `json:"breakfast"`
	Aesthetic bool `json:"aesthetic"`
	Laundry   bool `json:"laundry"`
	Wifi      bool `json:"wifi"`
}

type HotelDetail struct {
	ID          uuid.UUID  `json:"id"`
	HotelID     uuid.UUID  `json:"hotelId"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Rating      float64    `json:"rating"`
	Price       float64    `json:"price"`
	ImageURL    string     `json:"imageUrl"`
	Description string     `json:"description"`
	Hotel       *Amenities `json:"hotel,omitempty"`
}

// HotelInteraction is a click or a bookmark.
type HotelInteraction struct {
	UserID    uuid.UUID `json:"userId"`
	HotelID   uuid.UUID `json:"hotelId"`
	CreatedAt time.Time `json:"createdAt"`
}

type NearbyHotelRequest struct {
	Address string `json:"address" validate:"required"`
}

// Position is a geographic coordinate as returned by the geocoder.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PlaceCategory struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

// NearbyPlace is one discovery result, passed through to the client.
type NearbyPlace struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Address    map[string]any  `json:"address,omitempty"`
	Position   Position        `json:"position"`
	Distance   int             `json:"distance,omitempty"`
	Categories []PlaceCategory `json:"categories"`
}
