// Package diary holds the local meal list and running stats. Every mutation
// is persisted before it returns; a failed persist leaves memory unchanged.
package diary

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/nutriscan/internal/constants"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/models"
	"github.com/julianstephens/nutriscan/internal/storage"
)

// PersistFunc durably writes a full snapshot.
type PersistFunc func(models.Snapshot) error

type Store struct {
	mu      sync.Mutex
	meals   []models.Meal
	stats   models.UserStats
	persist PersistFunc
	now     func() time.Time
	lastID  int64
}

type Option func(*Store)

// WithClock replaces time.Now for id, bucket and meal type assignment.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds a store from an already loaded snapshot.
func New(snap models.Snapshot, persist PersistFunc, opts ...Option) *Store {
	s := &Store{
		meals:   cloneMeals(snap.Meals),
		stats:   snap.Stats,
		persist: persist,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, m := range s.meals {
		if id, err := strconv.ParseInt(m.ID, 10, 64); err == nil && id > s.lastID {
			s.lastID = id
		}
	}
	return s
}

// Open loads the snapshot from p and persists every mutation back to it.
func Open(p storage.Provider, opts ...Option) (*Store, error) {
	snap, err := storage.LoadSnapshot(p)
	if err != nil {
		return nil, fmt.Errorf("failed to load diary: %w", err)
	}
	return New(snap, func(snap models.Snapshot) error {
		return storage.SaveSnapshot(p, snap)
	}, opts...), nil
}

// AddMeal records a confirmed analysis as today's newest meal and adds its
// values to the running totals.
func (s *Store) AddMeal(result models.AnalysisResult, imageRef string) (models.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	meal := models.Meal{
		ID:        s.nextID(now),
		Name:      result.Name,
		Type:      models.MealTypeAt(now),
		TimeOfDay: now.Format(constants.TimeFormat),
		Calories:  result.Calories,
		Macros:    result.Macros,
		ImageRef:  imageRef,
		Insight:   result.Insight,
		DayBucket: now.Format(constants.DateFormat),
	}
	if err := meal.Validate(); err != nil {
		return models.Meal{}, err
	}

	prevMeals, prevStats, prevID := s.meals, s.stats, s.lastID
	s.lastID, _ = strconv.ParseInt(meal.ID, 10, 64)

	meals := make([]models.Meal, 0, len(s.meals)+1)
	meals = append(meals, meal)
	s.meals = append(meals, s.meals...)
	s.stats = applyDelta(s.stats, meal, 1)

	if err := s.save(); err != nil {
		s.meals, s.stats, s.lastID = prevMeals, prevStats, prevID
		return models.Meal{}, err
	}
	return meal, nil
}

// RemoveMeal deletes a meal and subtracts its values from the running
// totals, flooring each total at zero.
func (s *Store) RemoveMeal(id string) (models.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, m := range s.meals {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Meal{}, fmt.Errorf("%w: %s", nserrors.ErrNotFound, id)
	}

	removed := s.meals[idx]
	prevMeals, prevStats := s.meals, s.stats

	meals := make([]models.Meal, 0, len(s.meals)-1)
	meals = append(meals, s.meals[:idx]...)
	s.meals = append(meals, s.meals[idx+1:]...)
	s.stats = applyDelta(s.stats, removed, -1)

	if err := s.save(); err != nil {
		s.meals, s.stats = prevMeals, prevStats
		return models.Meal{}, err
	}
	return removed, nil
}

// ReplaceAll overwrites meals and stats wholesale.
func (s *Store) ReplaceAll(meals []models.Meal, stats models.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevMeals, prevStats := s.meals, s.stats
	s.meals = cloneMeals(meals)
	s.stats = stats

	if err := s.save(); err != nil {
		s.meals, s.stats = prevMeals, prevStats
		return err
	}
	return nil
}

// Snapshot returns a copy of the current state, newest meal first.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Snapshot{Meals: cloneMeals(s.meals), Stats: s.stats}
}

// Meal looks up a meal by id.
func (s *Store) Meal(id string) (models.Meal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.meals {
		if m.ID == id {
			return m, true
		}
	}
	return models.Meal{}, false
}

func (s *Store) save() error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist(models.Snapshot{Meals: cloneMeals(s.meals), Stats: s.stats}); err != nil {
		return fmt.Errorf("failed to persist diary: %w", err)
	}
	return nil
}

// nextID derives an id from the creation instant in milliseconds, bumped
// past the last issued id when two meals land in the same millisecond.
func (s *Store) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	return strconv.FormatInt(id, 10)
}

func applyDelta(stats models.UserStats, meal models.Meal, sign int64) models.UserStats {
	stats.Consumed = adjust(stats.Consumed, meal.Calories, sign)
	stats.Macros.Protein.Current = adjust(stats.Macros.Protein.Current, meal.Macros.Protein, sign)
	stats.Macros.Carbs.Current = adjust(stats.Macros.Carbs.Current, meal.Macros.Carbs, sign)
	stats.Macros.Fat.Current = adjust(stats.Macros.Fat.Current, meal.Macros.Fat, sign)
	return stats
}

func adjust(total, delta float64, sign int64) float64 {
	d := decimal.NewFromFloat(delta).Mul(decimal.NewFromInt(sign))
	out := decimal.NewFromFloat(total).Add(d)
	if out.IsNegative() {
		return 0
	}
	return out.InexactFloat64()
}

func cloneMeals(meals []models.Meal) []models.Meal {
	out := make([]models.Meal, len(meals))
	copy(out, meals)
	return out
}
