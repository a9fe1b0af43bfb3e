package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

//go:generate moq -rm -out database_mock.go . Datastore

type Datastore interface {
	LatestReading(ctx context.Context) (types.SensorReading, error)
	LatestReadingForPlant(ctx context.Context, plantProfileName string) (types.SensorReading, error)
	QueryReadings(ctx context.Context, conditions ...ConditionFunc) (types.Collection[types.SensorReading], error)
	AddReading(ctx context.Context, reading types.SensorReading) error

	GetPlantProfiles(ctx context.Context) ([]types.PlantProfile, error)
	GetPlantProfile(ctx context.Context, id uint) (types.PlantProfile, error)
	CreatePlantProfile(ctx context.Context, p types.PlantProfile) (types.PlantProfile, error)
	UpdatePlantProfile(ctx context.Context, id uint, p types.PlantProfile) (types.PlantProfile, error)
	DeletePlantProfile(ctx context.Context, id uint) error

	GetProfiles(ctx context.Context) ([]types.UserProfile, error)
	GetProfile(ctx context.Context, id string) (types.UserProfile, error)
	CreateProfile(ctx context.Context, p types.UserProfile) error
	UpdateProfile(ctx context.Context, id, email, role string) error
	DeleteProfile(ctx context.Context, id string) error

	SelectedPlantID(ctx context.Context) (uint, error)
	SelectPlant(ctx context.Context, plantID uint) error
}

var ErrNotFound = fmt.Errorf("not found")
var ErrAlreadyExists = fmt.Errorf("already exists")
var ErrRepositoryError = fmt.Errorf("could not fetch data from repository")

type database struct {
	db *gorm.DB
}

func New(connect ConnectorFunc) (Datastore, error) {
	impl, _, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&SensorData{}, &PlantProfile{}, &Profile{}, &SystemConfig{})
	if err != nil {
		return nil, err
	}

	return &database{
		db: impl,
	}, nil
}

func (d *database) LatestReading(ctx context.Context) (types.SensorReading, error) {
	return d.latest(d.db.WithContext(ctx))
}

func (d *database) LatestReadingForPlant(ctx context.Context, plantProfileName string) (types.SensorReading, error) {
	return d.latest(d.db.WithContext(ctx).Where("plant_profile_name = ?", plantProfileName))
}

func (d *database) latest(query *gorm.DB) (types.SensorReading, error) {
	rows := []SensorData{}

	err := query.Order("created_at desc, id desc").Limit(1).Find(&rows).Error
	if err != nil {
		return types.SensorReading{}, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}
	if len(rows) == 0 {
		return types.SensorReading{}, ErrNotFound
	}

	return toReading(rows[0]), nil
}

func (d *database) QueryReadings(ctx context.Context, conditions ...ConditionFunc) (types.Collection[types.SensorReading], error) {
	c := newCondition(conditions...)

	filtered := func() *gorm.DB {
		query := d.db.WithContext(ctx).Model(&SensorData{})
		if c.PlantProfileName != "" {
			query = query.Where("plant_profile_name = ?", c.PlantProfileName)
		}
		return query
	}

	var total int64
	err := filtered().Count(&total).Error
	if err != nil {
		return types.Collection[types.SensorReading]{}, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}

	query := filtered()
	if c.ascending {
		query = query.Order("created_at asc, id asc")
	} else {
		query = query.Order("created_at desc, id desc")
	}

	result := types.Collection[types.SensorReading]{TotalCount: uint64(total)}

	if c.offset != nil {
		query = query.Offset(*c.offset)
		result.Offset = uint64(*c.offset)
	}
	if c.limit != nil {
		query = query.Limit(*c.limit)
		result.Limit = uint64(*c.limit)
	}

	rows := []SensorData{}
	err = query.Find(&rows).Error
	if err != nil {
		return types.Collection[types.SensorReading]{}, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}

	result.Data = lo.Map(rows, func(r SensorData, _ int) types.SensorReading { return toReading(r) })
	result.Count = uint64(len(result.Data))

	return result, nil
}

func (d *database) AddReading(ctx context.Context, reading types.SensorReading) error {
	row := fromReading(reading)
	row.ID = 0
	return d.db.WithContext(ctx).Create(&row).Error
}

func (d *database) GetPlantProfiles(ctx context.Context) ([]types.PlantProfile, error) {
	rows := []PlantProfile{}

	err := d.db.WithContext(ctx).Order("name asc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}

	return lo.Map(rows, func(p PlantProfile, _ int) types.PlantProfile { return toPlantProfile(p) }), nil
}

func (d *database) GetPlantProfile(ctx context.Context, id uint) (types.PlantProfile, error) {
	p := PlantProfile{}

	err := d.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.PlantProfile{}, ErrNotFound
		}
		return types.PlantProfile{}, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}

	return toPlantProfile(p), nil
}

func (d *database) nameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var count int64

	query := d.db.WithContext(ctx).Model(&PlantProfile{}).Where("name = ?", name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}

	err := query.Count(&count).Error
	return count > 0, err
}

func (d *database) CreatePlantProfile(ctx context.Context, p types.PlantProfile) (types.PlantProfile, error) {
	p.Name = strings.TrimSpace(p.Name)

	taken, err := d.nameTaken(ctx, p.Name, 0)
	if err != nil {
		return types.PlantProfile{}, err
	}
	if taken {
		return types.PlantProfile{}, fmt.Errorf("plant profile %s: %w", p.Name, ErrAlreadyExists)
	}

	row := PlantProfile{
		Name:     p.Name,
		PHMin:    p.PHMin,
		PHMax:    p.PHMax,
		ECMin:    p.ECMin,
		ECMax:    p.ECMax,
		ImageURL: p.ImageURL,
	}

	err = d.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		return types.PlantProfile{}, err
	}

	return toPlantProfile(row), nil
}

func (d *database) UpdatePlantProfile(ctx context.Context, id uint, p types.PlantProfile) (types.PlantProfile, error) {
	_, err := d.GetPlantProfile(ctx, id)
	if err != nil {
		return types.PlantProfile{}, err
	}

	name := strings.TrimSpace(p.Name)

	taken, err := d.nameTaken(ctx, name, id)
	if err != nil {
		return types.PlantProfile{}, err
	}
	if taken {
		return types.PlantProfile{}, fmt.Errorf("plant profile %s: %w", name, ErrAlreadyExists)
	}

	err = d.db.WithContext(ctx).Model(&PlantProfile{}).Where("id = ?", id).Updates(map[string]any{
		"name":      name,
		"ph_min":    p.PHMin,
		"ph_max":    p.PHMax,
		"ec_min":    p.ECMin,
		"ec_max":    p.ECMax,
		"image_url": p.ImageURL,
	}).Error
	if err != nil {
		return types.PlantProfile{}, err
	}

	return d.GetPlantProfile(ctx, id)
}

func (d *database) DeletePlantProfile(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&PlantProfile{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *database) GetProfiles(ctx context.Context) ([]types.UserProfile, error) {
	rows := []Profile{}

	err := d.db.WithContext(ctx).Order("created_at desc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}

	return lo.Map(rows, func(p Profile, _ int) types.UserProfile { return toUserProfile(p) }), nil
}

func (d *database) GetProfile(ctx context.Context, id string) (types.UserProfile, error) {
	p := Profile{}

	err := d.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.UserProfile{}, ErrNotFound
		}
		return types.UserProfile{}, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}

	return toUserProfile(p), nil
}

func (d *database) CreateProfile(ctx context.Context, p types.UserProfile) error {
	row := Profile{
		ID:        p.ID,
		Email:     p.Email,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
	return d.db.WithContext(ctx).Create(&row).Error
}

func (d *database) UpdateProfile(ctx context.Context, id, email, role string) error {
	result := d.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", id).Updates(map[string]any{
		"email": email,
		"role":  role,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *database) DeleteProfile(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Where("id = ?", id).Delete(&Profile{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *database) SelectedPlantID(ctx context.Context) (uint, error) {
	cfg := SystemConfig{}

	err := d.db.WithContext(ctx).Order("id asc").First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: %s", ErrRepositoryError, err.Error())
	}

	return cfg.SelectedPlantID, nil
}

func (d *database) SelectPlant(ctx context.Context, plantID uint) error {
	cfg := SystemConfig{}

	err := d.db.WithContext(ctx).Order("id asc").First(&cfg).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return d.db.WithContext(ctx).Create(&SystemConfig{SelectedPlantID: plantID}).Error
	}

	return d.db.WithContext(ctx).Model(&cfg).Update("selected_plant_id", plantID).Error
}
