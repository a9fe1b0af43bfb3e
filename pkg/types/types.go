package types

import (
	"time"
)

type SensorReading struct {
	ID               uint      `json:"id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	PlantProfileName string    `json:"plant_profile_name"`
	PH               float64   `json:"ph"`
	EC               float64   `json:"ec"`
	WaterTemperature float64   `json:"water_temperature"`
	PHAbove          bool      `json:"ph_above"`
	PHBelow          bool      `json:"ph_below"`
	ECAbove          bool      `json:"ec_above"`
	ECBelow          bool      `json:"ec_below"`
}

type PlantProfile struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	PHMin    float64 `json:"ph_min"`
	PHMax    float64 `json:"ph_max"`
	ECMin    float64 `json:"ec_min"`
	ECMax    float64 `json:"ec_max"`
	ImageURL string  `json:"image_url,omitempty"`
}

const (
	RoleAdmin string = "admin"
	RoleUser  string = "user"
)

type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type SystemConfig struct {
	SelectedPlantID uint `json:"selected_plant_id"`
}

// AlertState holds the threshold flags of the last committed reading.
type AlertState struct {
	PHAbove bool `json:"ph_above"`
	PHBelow bool `json:"ph_below"`
	ECAbove bool `json:"ec_above"`
	ECBelow bool `json:"ec_below"`
}

type Collection[T any] struct {
	Data       []T    `json:"data"`
	Count      uint64 `json:"count"`
	Offset     uint64 `json:"offset"`
	Limit      uint64 `json:"limit"`
	TotalCount uint64 `json:"totalCount"`
}
