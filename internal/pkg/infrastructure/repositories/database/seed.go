package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/rs/zerolog"
)

// SeedPlantProfiles loads plant profiles from a ; separated file with the header
// name;phMin;phMax;ecMin;ecMax;imageUrl. Profiles whose name already exists are left untouched.
func SeedPlantProfiles(ctx context.Context, log zerolog.Logger, ds Datastore, plantsFile io.Reader) error {
	r := csv.NewReader(plantsFile)
	r.Comma = ';'
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read csv data from file: %s", err.Error())
	}

	profiles := []types.PlantProfile{}
	seen := map[string]bool{}

	parse := func(name, field, value string) (float64, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse %s for plant %s: %s", field, name, err.Error())
		}
		return f, nil
	}

	for idx, row := range rows {
		if idx == 0 {
			// Skip the CSV header
			continue
		}

		if len(row) < 5 {
			return fmt.Errorf("too few fields on line %d in plants file", idx+1)
		}

		name := strings.TrimSpace(row[0])
		if seen[name] {
			return fmt.Errorf("duplicate plant name %s found on line %d in plants file", name, idx+1)
		}
		seen[name] = true

		p := types.PlantProfile{Name: name}

		if p.PHMin, err = parse(name, "phMin", row[1]); err != nil {
			return err
		}
		if p.PHMax, err = parse(name, "phMax", row[2]); err != nil {
			return err
		}
		if p.ECMin, err = parse(name, "ecMin", row[3]); err != nil {
			return err
		}
		if p.ECMax, err = parse(name, "ecMax", row[4]); err != nil {
			return err
		}
		if len(row) > 5 {
			p.ImageURL = strings.TrimSpace(row[5])
		}

		profiles = append(profiles, p)
	}

	created := 0

	for _, p := range profiles {
		_, err := ds.CreatePlantProfile(ctx, p)
		if errors.Is(err, ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return err
		}
		created++
	}

	log.Info().Msgf("seeded %d of %d plant profiles", created, len(profiles))

	return nil
}
