package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Plan struct {
	ID              uuid.UUID    `json:"id"`
	UserID          uuid.UUID    `json:"userId"`
	Name            string       `json:"name"`
	City            string       `json:"city"`
	StartDate       time.Time    `json:"startDate"`
	EndDate         time.Time    `json:"endDate"`
	TravelCompanion string       `json:"travelCompanion"`
	Budget          float64      `json:"budget"`
	TravelTheme     string       `json:"travelTheme"`
	CreatedAt       time.Time    `json:"createdAt"`
	PlanDetails     []PlanDetail `json:"planDetails,omitempty"`
}

// PlanDetail is one calendar day of a plan.
type PlanDetail struct {
	ID         uuid.UUID   `json:"id"`
	PlanID     uuid.UUID   `json:"planId"`
	Day        int         `json:"day"`
	Date       time.Time   `json:"date"`
	Activities []Activity  `json:"activities"`
	Hotels     []HotelPlan `json:"hotel"`
}

type Activity struct {
	ID            uuid.UUID    `json:"id"`
	PlanDetailID  uuid.UUID    `json:"planDetailId"`
	DestinationID *uuid.UUID   `json:"destinationId,omitempty"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Location      string       `json:"location"`
	Cost          float64      `json:"cost"`
	CreatedAt     time.Time    `json:"createdAt"`
	Destination   *Destination `json:"destination,omitempty"`
}

type Destination struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Time        string    `json:"time"`
	Cost        string    `json:"cost"`
	CategoryID  uuid.UUID `json:"categoryId"`
}

type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type HotelPlan struct {
	ID            uuid.UUID    `json:"id"`
	PlanDetailID  uuid.UUID    `json:"planDetailId"`
	HotelDetailID uuid.UUID    `json:"hotelDetailId"`
	CreatedAt     time.Time    `json:"createdAt"`
	HotelDetail   *HotelDetail `json:"hotelDetail,omitempty"`
}

type CreatePlanRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	City            string  `json:"city" validate:"required,max=100"`
	StartDate       string  `json:"startDate" validate:"required"`
	EndDate         string  `json:"endDate" validate:"required"`
	TravelCompanion string  `json:"travelCompanion" validate:"required,max=100"`
	Budget          float64 `json:"budget" validate:"min=0"`
	TravelTheme     string  `json:"travelTheme" validate:"required,max=100"`
}

type CreateActivityRequest struct {
	Name        string         `json:"name" validate:"required,max=200"`
	Location    string         `json:"location" validate:"max=300"`
	Cost        NumberOrString `json:"cost"`
	Description string         `json:"description" validate:"max=2000"`
}

type AddHotelRequest struct {
	HotelDetailID uuid.UUID `json:"hotelDetailId" validate:"required"`
}

type BotRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// ItineraryRequest is the payload sent to the itinerary endpoint of the ML service.
type ItineraryRequest struct {
	City            string `json:"city"`
	TravelCompanion string `json:"travelCompanion"`
	Budget          string `json:"budget"`
	Duration        int    `json:"duration"`
	TravelTheme     string `json:"travelTheme"`
}

// ItineraryPlace is one place descriptor for a generated day.
type ItineraryPlace struct {
	PlaceName   string         `json:"place_name"`
	Description string         `json:"description"`
	Time        string         `json:"time"`
	Cost        NumberOrString `json:"cost"`
	Category    string         `json:"category"`
	Address     string         `json:"address"`
}

// ItineraryResult holds the decoded days and the payload as received.
type ItineraryResult struct {
	Days map[string][]ItineraryPlace
	Raw  json.RawMessage
}

// NumberOrString accepts either a JSON number or a JSON string and keeps its text.
type NumberOrString string

func (n *NumberOrString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumberOrString(s)
	default:
		var f json.Number
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*n = NumberOrString(f.String())
	}
	return nil
}

// Float parses the value as a finite float64. An empty value is zero.
func (n NumberOrString) Float() (float64, error) {
	if n == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", string(n))
	}
	return f, nil
}
