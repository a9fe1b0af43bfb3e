package chatbot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/pkg/types"
)

const WelcomeText string = "Welcome to Hydroponic Monitoring Bot! This bot can show you the current values of Electrical Conductivity (EC), pH Level, Water Temperature and will send you alerts when any of the  pump is activated. Oh, and it can also show you the optimised level for all plant profiles."

type Store interface {
	LatestReading(ctx context.Context) (types.SensorReading, error)
	GetPlantProfiles(ctx context.Context) ([]types.PlantProfile, error)
}

// Responder produces the reply to a chat command without knowing anything about the chat transport.
type Responder struct {
	store Store
}

func NewResponder(store Store) *Responder {
	return &Responder{store: store}
}

// Respond returns the reply for command, given without the leading slash. Unknown
// commands return false and should be ignored.
func (r *Responder) Respond(ctx context.Context, command string) (string, bool) {
	switch strings.ToLower(command) {
	case "start":
		return WelcomeText, true
	case "ph":
		return r.latest(ctx, "Could not fetch pH value.", func(s types.SensorReading) string {
			return "Current pH value: " + number(s.PH)
		}), true
	case "ec":
		return r.latest(ctx, "Could not fetch EC value.", func(s types.SensorReading) string {
			return "Current EC value: " + number(s.EC)
		}), true
	case "temp":
		return r.latest(ctx, "Could not fetch water temperature.", func(s types.SensorReading) string {
			return "Current water temperature: " + number(s.WaterTemperature) + "°C"
		}), true
	case "plant":
		return r.plants(ctx), true
	default:
		return "", false
	}
}

func (r *Responder) latest(ctx context.Context, failure string, format func(types.SensorReading) string) string {
	reading, err := r.store.LatestReading(ctx)
	if err != nil {
		logger := logging.GetFromContext(ctx)
		logger.Warn().Err(err).Msg("failed to fetch latest reading")
		return failure
	}
	return format(reading)
}

func (r *Responder) plants(ctx context.Context) string {
	profiles, err := r.store.GetPlantProfiles(ctx)
	if err != nil || len(profiles) == 0 {
		return "Could not fetch plant profiles."
	}

	var b strings.Builder
	b.WriteString("Plant Profiles and Optimum Ranges:\n\n")

	for _, p := range profiles {
		fmt.Fprintf(&b, "🌱 %s\n", p.Name)
		fmt.Fprintf(&b, "  pH: %s - %s\n", number(p.PHMin), number(p.PHMax))
		fmt.Fprintf(&b, "  EC: %s - %s\n\n", number(p.ECMin), number(p.ECMax))
	}

	return b.String()
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
