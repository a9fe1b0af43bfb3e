package database

import (
	"time"

	"github.com/diwise/hydroponic-monitor/pkg/types"
)

type SensorData struct {
	ID               uint      `gorm:"primaryKey"`
	CreatedAt        time.Time `gorm:"column:created_at;index"`
	PlantProfileName string    `gorm:"column:plant_profile_name;index"`
	PH               float64   `gorm:"column:ph"`
	EC               float64   `gorm:"column:ec"`
	WaterTemperature float64   `gorm:"column:water_temperature"`
	PHAbove          bool      `gorm:"column:ph_above"`
	PHBelow          bool      `gorm:"column:ph_below"`
	ECAbove          bool      `gorm:"column:ec_above"`
	ECBelow          bool      `gorm:"column:ec_below"`
}

func (SensorData) TableName() string { return "sensor_data" }

type PlantProfile struct {
	ID       uint    `gorm:"primaryKey"`
	Name     string  `gorm:"column:name;uniqueIndex"`
	PHMin    float64 `gorm:"column:ph_min"`
	PHMax    float64 `gorm:"column:ph_max"`
	ECMin    float64 `gorm:"column:ec_min"`
	ECMax    float64 `gorm:"column:ec_max"`
	ImageURL string  `gorm:"column:image_url"`
}

func (PlantProfile) TableName() string { return "plant_profiles" }

type Profile struct {
	ID        string    `gorm:"primaryKey"`
	Email     string    `gorm:"column:email"`
	Role      string    `gorm:"column:role"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Profile) TableName() string { return "profiles" }

type SystemConfig struct {
	ID              uint `gorm:"primaryKey"`
	SelectedPlantID uint `gorm:"column:selected_plant_id"`
}

func (SystemConfig) TableName() string { return "system_config" }

func toReading(d SensorData) types.SensorReading {
	return types.SensorReading{
		ID:               d.ID,
		CreatedAt:        d.CreatedAt,
		PlantProfileName: d.PlantProfileName,
		PH:               d.PH,
		EC:               d.EC,
		WaterTemperature: d.WaterTemperature,
		PHAbove:          d.PHAbove,
		PHBelow:          d.PHBelow,
		ECAbove:          d.ECAbove,
		ECBelow:          d.ECBelow,
	}
}

func fromReading(r types.SensorReading) SensorData {
	return SensorData{
		ID:               r.ID,
		CreatedAt:        r.CreatedAt,
		PlantProfileName: r.PlantProfileName,
		PH:               r.PH,
		EC:               r.EC,
		WaterTemperature: r.WaterTemperature,
		PHAbove:          r.PHAbove,
		PHBelow:          r.PHBelow,
		ECAbove:          r.ECAbove,
		ECBelow:          r.ECBelow,
	}
}

func toPlantProfile(p PlantProfile) types.PlantProfile {
	return types.PlantProfile{
		ID:       p.ID,
		Name:     p.Name,
		PHMin:    p.PHMin,
		PHMax:    p.PHMax,
		ECMin:    p.ECMin,
		ECMax:    p.ECMax,
		ImageURL: p.ImageURL,
	}
}

func toUserProfile(p Profile) types.UserProfile {
	return types.UserProfile{
		ID:        p.ID,
		Email:     p.Email,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}
