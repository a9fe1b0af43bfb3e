package plants

import (
	"context"
	"errors"
	"testing"

	"github.com/diwise/hydroponic-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestValidate(t *testing.T) {
	is := is.New(t)

	valid := types.PlantProfile{Name: "Basil", PHMin: 5.5, PHMax: 6.5, ECMin: 1.0, ECMax: 1.6}
	is.NoErr(Validate(valid))

	invalid := []types.PlantProfile{
		{Name: " ", PHMin: 5.5, PHMax: 6.5, ECMin: 1.0, ECMax: 1.6},
		{Name: "Basil", PHMin: 7, PHMax: 6.5, ECMin: 1.0, ECMax: 1.6},
		{Name: "Basil", PHMin: 5.5, PHMax: 6.5, ECMin: 2.0, ECMax: 1.6},
		{Name: "Basil", PHMin: 5.5, PHMax: 15, ECMin: 1.0, ECMax: 1.6},
		{Name: "Basil", PHMin: -1, PHMax: 6.5, ECMin: 1.0, ECMax: 1.6},
	}

	for _, p := range invalid {
		is.True(errors.Is(Validate(p), ErrInvalidProfile))
	}
}

func TestCreateAndUpdate(t *testing.T) {
	is, ctx, pm := testSetup(t)

	created, err := pm.Create(ctx, types.PlantProfile{Name: " Basil ", PHMin: 5.5, PHMax: 6.5, ECMin: 1.0, ECMax: 1.6})
	is.NoErr(err)
	is.Equal(created.Name, "Basil")

	_, err = pm.Create(ctx, types.PlantProfile{Name: "Basil", PHMin: 5.5, PHMax: 6.5, ECMin: 1.0, ECMax: 1.6})
	is.True(errors.Is(err, ErrPlantNameTaken))

	created.PHMax = 6.8
	updated, err := pm.Update(ctx, created.ID, created)
	is.NoErr(err)
	is.Equal(updated.PHMax, 6.8)

	_, err = pm.Update(ctx, 999, created)
	is.True(errors.Is(err, ErrNotFound))

	created.PHMin = 9
	_, err = pm.Update(ctx, created.ID, created)
	is.True(errors.Is(err, ErrInvalidProfile))
}

func TestSelectAndDelete(t *testing.T) {
	is, ctx, pm := testSetup(t)

	_, err := pm.Selected(ctx)
	is.True(errors.Is(err, ErrNotFound))

	lettuce, err := pm.Create(ctx, types.PlantProfile{Name: "Lettuce", PHMin: 5.5, PHMax: 6.5, ECMin: 0.8, ECMax: 1.2})
	is.NoErr(err)

	is.True(errors.Is(pm.Select(ctx, 42), ErrNotFound))
	is.NoErr(pm.Select(ctx, lettuce.ID))

	selected, err := pm.Selected(ctx)
	is.NoErr(err)
	is.Equal(selected.Name, "Lettuce")

	is.NoErr(pm.Delete(ctx, lettuce.ID))
	is.True(errors.Is(pm.Delete(ctx, lettuce.ID), ErrNotFound))

	list, err := pm.List(ctx)
	is.NoErr(err)
	is.Equal(len(list), 0)
}

func testSetup(t *testing.T) (*is.I, context.Context, PlantManagement) {
	is := is.New(t)

	store, err := database.New(database.NewSQLiteConnector(zerolog.Nop()))
	is.NoErr(err)

	return is, context.Background(), New(store)
}
