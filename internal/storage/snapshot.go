package storage

import (
	"encoding/json"
	"errors"

	"github.com/julianstephens/nutriscan/internal/constants"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/logger"
	"github.com/julianstephens/nutriscan/internal/models"
)

// LoadSnapshot reads meals and stats from p. Absent keys fall back to the
// sample meals and default stats; so do corrupt values, which are logged.
// Only a failing provider produces an error.
func LoadSnapshot(p Provider) (models.Snapshot, error) {
	snap := models.Snapshot{
		Meals: models.SampleMeals(),
		Stats: models.DefaultStats(),
	}

	raw, err := p.Get(constants.KeyMeals)
	switch {
	case errors.Is(err, nserrors.ErrKeyNotFound):
	case err != nil:
		return models.Snapshot{}, err
	default:
		meals, err := decodeMeals(raw)
		if err != nil {
			logger.Warn("Stored meals are corrupt, using defaults", "key", constants.KeyMeals, "error", err)
		} else {
			snap.Meals = meals
		}
	}

	raw, err = p.Get(constants.KeyStats)
	switch {
	case errors.Is(err, nserrors.ErrKeyNotFound):
	case err != nil:
		return models.Snapshot{}, err
	default:
		var stats models.UserStats
		if err := json.Unmarshal([]byte(raw), &stats); err != nil {
			logger.Warn("Stored stats are corrupt, using defaults", "key", constants.KeyStats, "error", err)
		} else {
			snap.Stats = stats
		}
	}

	return snap, nil
}

func decodeMeals(raw string) ([]models.Meal, error) {
	var meals []models.Meal
	if err := json.Unmarshal([]byte(raw), &meals); err != nil {
		return nil, err
	}
	for i := range meals {
		if err := meals[i].Validate(); err != nil {
			return nil, err
		}
	}
	if meals == nil {
		meals = []models.Meal{}
	}
	return meals, nil
}

// SaveSnapshot writes meals and stats atomically.
func SaveSnapshot(p Provider, snap models.Snapshot) error {
	meals := snap.Meals
	if meals == nil {
		meals = []models.Meal{}
	}
	mealsJSON, err := json.Marshal(meals)
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(snap.Stats)
	if err != nil {
		return err
	}
	return p.SetMany(map[string]string{
		constants.KeyMeals: string(mealsJSON),
		constants.KeyStats: string(statsJSON),
	})
}
