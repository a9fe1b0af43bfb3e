package plants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-monitor/pkg/types"
)

var ErrInvalidProfile = fmt.Errorf("invalid plant profile")
var ErrNotFound = fmt.Errorf("plant profile not found")
var ErrPlantNameTaken = fmt.Errorf("plant profile name already in use")

//go:generate moq -rm -out plants_mock.go . PlantManagement

type PlantManagement interface {
	List(ctx context.Context) ([]types.PlantProfile, error)
	Get(ctx context.Context, id uint) (types.PlantProfile, error)
	Create(ctx context.Context, p types.PlantProfile) (types.PlantProfile, error)
	Update(ctx context.Context, id uint, p types.PlantProfile) (types.PlantProfile, error)
	Delete(ctx context.Context, id uint) error
	Select(ctx context.Context, id uint) error
	Selected(ctx context.Context) (types.PlantProfile, error)
}

type plantManagement struct {
	store database.Datastore
}

func New(store database.Datastore) PlantManagement {
	return &plantManagement{
		store: store,
	}
}

func Validate(p types.PlantProfile) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.PHMin > p.PHMax {
		return fmt.Errorf("%w: ph min %v exceeds max %v", ErrInvalidProfile, p.PHMin, p.PHMax)
	}
	if p.ECMin > p.ECMax {
		return fmt.Errorf("%w: ec min %v exceeds max %v", ErrInvalidProfile, p.ECMin, p.ECMax)
	}
	if p.PHMin < 0 || p.PHMax > 14 {
		return fmt.Errorf("%w: ph must be within 0-14", ErrInvalidProfile)
	}
	if p.ECMin < 0 {
		return fmt.Errorf("%w: ec must not be negative", ErrInvalidProfile)
	}
	return nil
}

func (pm *plantManagement) List(ctx context.Context) ([]types.PlantProfile, error) {
	return pm.store.GetPlantProfiles(ctx)
}

func (pm *plantManagement) Get(ctx context.Context, id uint) (types.PlantProfile, error) {
	p, err := pm.store.GetPlantProfile(ctx, id)
	return p, mapErr(err)
}

func (pm *plantManagement) Create(ctx context.Context, p types.PlantProfile) (types.PlantProfile, error) {
	p.Name = strings.TrimSpace(p.Name)

	if err := Validate(p); err != nil {
		return types.PlantProfile{}, err
	}

	created, err := pm.store.CreatePlantProfile(ctx, p)
	if err != nil {
		return types.PlantProfile{}, mapErr(err)
	}

	logger := logging.GetFromContext(ctx)
	logger.Info().Uint("id", created.ID).Str("name", created.Name).Msg("plant profile created")

	return created, nil
}

func (pm *plantManagement) Update(ctx context.Context, id uint, p types.PlantProfile) (types.PlantProfile, error) {
	p.Name = strings.TrimSpace(p.Name)

	if err := Validate(p); err != nil {
		return types.PlantProfile{}, err
	}

	updated, err := pm.store.UpdatePlantProfile(ctx, id, p)
	if err != nil {
		return types.PlantProfile{}, mapErr(err)
	}

	return updated, nil
}

func (pm *plantManagement) Delete(ctx context.Context, id uint) error {
	err := pm.store.DeletePlantProfile(ctx, id)
	if err != nil {
		return mapErr(err)
	}

	logger := logging.GetFromContext(ctx)
	logger.Info().Uint("id", id).Msg("plant profile deleted")

	return nil
}

func (pm *plantManagement) Select(ctx context.Context, id uint) error {
	if _, err := pm.Get(ctx, id); err != nil {
		return err
	}

	err := pm.store.SelectPlant(ctx, id)
	if err != nil {
		return err
	}

	logger := logging.GetFromContext(ctx)
	logger.Info().Uint("id", id).Msg("active plant profile changed")

	return nil
}

func (pm *plantManagement) Selected(ctx context.Context) (types.PlantProfile, error) {
	id, err := pm.store.SelectedPlantID(ctx)
	if err != nil {
		return types.PlantProfile{}, mapErr(err)
	}
	return pm.Get(ctx, id)
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, database.ErrAlreadyExists):
		return ErrPlantNameTaken
	default:
		return err
	}
}
