package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/diwise/hydroponic-monitor/internal/pkg/application/statistics"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/samber/lo"
)

const (
	DefaultWindow   int           = 15
	DefaultPageSize int           = 20
	DefaultInterval time.Duration = 3 * time.Second
)

var ErrNotReady = fmt.Errorf("no plant selected or selected plant missing")

type Overview struct {
	Plant      types.PlantProfile                     `json:"plant"`
	Latest     *types.SensorReading                   `json:"latest,omitempty"`
	Window     int                                    `json:"window"`
	Readings   []types.SensorReading                  `json:"readings"`
	Stats      statistics.Summary                     `json:"stats"`
	OutOfRange map[statistics.Metric]statistics.Flags `json:"outOfRange"`
	Compliance Compliance                             `json:"profileCompliance"`
	Generated  time.Time                              `json:"generated"`
}

// Compliance compares the latest reading with the bounds of the plant's own profile.
type Compliance struct {
	PH bool `json:"ph"`
	EC bool `json:"ec"`
}

type OptimisedLevel struct {
	ID   uint    `json:"id"`
	Name string  `json:"name"`
	PH   float64 `json:"ph"`
	EC   float64 `json:"ec"`
}

//go:generate moq -rm -out dashboard_mock.go . Dashboard

type Dashboard interface {
	Overview(ctx context.Context, window int) (Overview, error)
	Readings(ctx context.Context, page, pageSize int) (types.Collection[types.SensorReading], error)
	OptimisedLevels(ctx context.Context) ([]OptimisedLevel, error)

	Refresh(ctx context.Context) error
	Snapshot() (Overview, bool)
}

type dashboard struct {
	store  database.Datastore
	window int

	mu       sync.RWMutex
	snapshot *Overview
}

func New(store database.Datastore, window int) Dashboard {
	return &dashboard{
		store:  store,
		window: window,
	}
}

// selectedPlant resolves the plant profile referenced by the system config row.
func (d *dashboard) selectedPlant(ctx context.Context) (types.PlantProfile, error) {
	plantID, err := d.store.SelectedPlantID(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return types.PlantProfile{}, ErrNotReady
		}
		return types.PlantProfile{}, err
	}

	plant, err := d.store.GetPlantProfile(ctx, plantID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return types.PlantProfile{}, ErrNotReady
		}
		return types.PlantProfile{}, err
	}

	return plant, nil
}

func (d *dashboard) Overview(ctx context.Context, window int) (Overview, error) {
	plant, err := d.selectedPlant(ctx)
	if err != nil {
		return Overview{}, err
	}

	conditions := []database.ConditionFunc{database.WithPlantProfileName(plant.Name)}
	if window > 0 {
		conditions = append(conditions, database.WithLimit(window))
	}

	result, err := d.store.QueryReadings(ctx, conditions...)
	if err != nil {
		return Overview{}, err
	}

	// newest first from the store, statistics want them oldest first
	readings := statistics.Window(lo.Reverse(result.Data), window)

	summary := statistics.Summarize(readings)

	o := Overview{
		Plant:      plant,
		Window:     window,
		Readings:   readings,
		Stats:      summary,
		OutOfRange: summary.OutOfRange(),
		Generated:  time.Now().UTC(),
	}

	if len(readings) > 0 {
		latest := readings[len(readings)-1]
		o.Latest = &latest
		o.Compliance = Compliance{
			PH: latest.PH >= plant.PHMin && latest.PH <= plant.PHMax,
			EC: latest.EC >= plant.ECMin && latest.EC <= plant.ECMax,
		}
	}

	return o, nil
}

// Readings pages through the readings of the selected plant, newest first.
func (d *dashboard) Readings(ctx context.Context, page, pageSize int) (types.Collection[types.SensorReading], error) {
	plant, err := d.selectedPlant(ctx)
	if err != nil {
		return types.Collection[types.SensorReading]{}, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return d.store.QueryReadings(ctx,
		database.WithPlantProfileName(plant.Name),
		database.WithOffset((page-1)*pageSize),
		database.WithLimit(pageSize),
	)
}

func (d *dashboard) OptimisedLevels(ctx context.Context) ([]OptimisedLevel, error) {
	plants, err := d.store.GetPlantProfiles(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Map(plants, func(p types.PlantProfile, _ int) OptimisedLevel {
		return OptimisedLevel{
			ID:   p.ID,
			Name: p.Name,
			PH:   midpoint(p.PHMin, p.PHMax),
			EC:   midpoint(p.ECMin, p.ECMax),
		}
	}), nil
}

func midpoint(min, max float64) float64 {
	return math.Round((min+max)/2*100) / 100
}

// Refresh recomputes the cached overview. On failure the previous snapshot is kept.
func (d *dashboard) Refresh(ctx context.Context) error {
	logger := logging.GetFromContext(ctx)

	o, err := d.Overview(ctx, d.window)
	if err != nil {
		if errors.Is(err, ErrNotReady) {
			logger.Debug().Msg("dashboard not ready, no plant selected")
		} else {
			logger.Error().Err(err).Msg("failed to refresh dashboard")
		}
		return err
	}

	d.mu.Lock()
	d.snapshot = &o
	d.mu.Unlock()

	return nil
}

func (d *dashboard) Snapshot() (Overview, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.snapshot == nil {
		return Overview{}, false
	}

	return *d.snapshot, true
}
