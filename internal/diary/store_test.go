package diary

import (
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/models"
	"github.com/julianstephens/nutriscan/internal/storage/sqlite"
)

var morning = time.Date(2026, 10, 16, 8, 30, 0, 0, time.Local)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newMemStore(t *testing.T, snap models.Snapshot, opts ...Option) (*Store, *[]models.Snapshot) {
	t.Helper()
	var saved []models.Snapshot
	s := New(snap, func(s models.Snapshot) error {
		saved = append(saved, s)
		return nil
	}, append([]Option{WithClock(fixedClock(morning))}, opts...)...)
	return s, &saved
}

func oatmeal() models.AnalysisResult {
	return models.AnalysisResult{
		Name:     "Oatmeal Bowl",
		Calories: 450,
		Macros:   models.MacroBreakdown{Protein: 15, Carbs: 65, Fat: 12},
		Insight:  "Good fiber",
	}
}

func TestAddMealOatmealScenario(t *testing.T) {
	s, saved := newMemStore(t, models.Snapshot{Meals: models.SampleMeals(), Stats: models.DefaultStats()})

	meal, err := s.AddMeal(oatmeal(), "img-1")
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, 1200.0, snap.Stats.Consumed)
	assert.Equal(t, 100.0, snap.Stats.Macros.Protein.Current)
	assert.Equal(t, 185.0, snap.Stats.Macros.Carbs.Current)
	assert.Equal(t, 57.0, snap.Stats.Macros.Fat.Current)
	require.Len(t, snap.Meals, 4)
	assert.Equal(t, meal, snap.Meals[0])

	assert.Equal(t, "Oatmeal Bowl", meal.Name)
	assert.Equal(t, models.MealBreakfast, meal.Type)
	assert.Equal(t, "08:30", meal.TimeOfDay)
	assert.Equal(t, "2026-10-16", meal.DayBucket)
	assert.Equal(t, "img-1", meal.ImageRef)
	assert.Equal(t, "Good fiber", meal.Insight)

	require.Len(t, *saved, 1)
	assert.Equal(t, snap, (*saved)[0])
}

func TestAddMealTypeByHour(t *testing.T) {
	tests := []struct {
		hour int
		want models.MealType
	}{
		{4, models.MealSnack},
		{5, models.MealBreakfast},
		{9, models.MealBreakfast},
		{10, models.MealLunch},
		{13, models.MealLunch},
		{14, models.MealSnack},
		{17, models.MealDinner},
		{20, models.MealDinner},
		{21, models.MealSnack},
	}
	for _, tt := range tests {
		at := time.Date(2026, 10, 16, tt.hour, 0, 0, 0, time.Local)
		s, _ := newMemStore(t, models.Snapshot{}, WithClock(fixedClock(at)))
		meal, err := s.AddMeal(oatmeal(), "")
		require.NoError(t, err)
		assert.Equal(t, tt.want, meal.Type, "hour %d", tt.hour)
	}
}

func TestAddMealIDsAreUniqueWithinOneInstant(t *testing.T) {
	s, _ := newMemStore(t, models.Snapshot{})

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		meal, err := s.AddMeal(oatmeal(), "")
		require.NoError(t, err)
		assert.False(t, seen[meal.ID], "duplicate id %s", meal.ID)
		seen[meal.ID] = true
	}
}

func TestAddMealIDsPastExistingIDs(t *testing.T) {
	future := morning.Add(time.Hour).UnixMilli()
	existing := models.Meal{ID: strconv.FormatInt(future, 10), Name: "Late Toast"}

	s, _ := newMemStore(t, models.Snapshot{Meals: []models.Meal{existing}})
	meal, err := s.AddMeal(oatmeal(), "")
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(future+1, 10), meal.ID)
}

func TestRemoveMealFloorsAtZero(t *testing.T) {
	salad := models.Meal{
		ID:       "3",
		Name:     "Grilled Chicken Salad",
		Calories: 520,
		Macros:   models.MacroBreakdown{Protein: 38, Carbs: 12, Fat: 22},
	}
	stats := models.UserStats{DailyGoal: 2000, Consumed: 300}
	stats.Macros.Protein.Current = 10
	stats.Macros.Carbs.Current = 100
	stats.Macros.Fat.Current = 22

	s, _ := newMemStore(t, models.Snapshot{Meals: []models.Meal{salad}, Stats: stats})

	removed, err := s.RemoveMeal("3")
	require.NoError(t, err)
	assert.Equal(t, salad, removed)

	snap := s.Snapshot()
	assert.Empty(t, snap.Meals)
	assert.Equal(t, 0.0, snap.Stats.Consumed)
	assert.Equal(t, 0.0, snap.Stats.Macros.Protein.Current)
	assert.Equal(t, 88.0, snap.Stats.Macros.Carbs.Current)
	assert.Equal(t, 0.0, snap.Stats.Macros.Fat.Current)
}

func TestRemoveMealNotFound(t *testing.T) {
	s, saved := newMemStore(t, models.Snapshot{Meals: models.SampleMeals(), Stats: models.DefaultStats()})
	before := s.Snapshot()

	_, err := s.RemoveMeal("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nserrors.ErrNotFound))
	assert.Equal(t, before, s.Snapshot())
	assert.Empty(t, *saved)
}

func TestAddRemoveConservation(t *testing.T) {
	start := models.DefaultStats()
	s, _ := newMemStore(t, models.Snapshot{Stats: start})

	results := []models.AnalysisResult{
		{Name: "Toast", Calories: 180.5, Macros: models.MacroBreakdown{Protein: 6.1, Carbs: 30.2, Fat: 3.3}},
		{Name: "Soup", Calories: 95.1, Macros: models.MacroBreakdown{Protein: 4.4, Carbs: 12.7, Fat: 1.9}},
		{Name: "Yogurt", Calories: 130.3, Macros: models.MacroBreakdown{Protein: 10.2, Carbs: 15.1, Fat: 2.6}},
	}

	var ids []string
	for _, r := range results {
		before := s.Snapshot().Stats
		meal, err := s.AddMeal(r, "")
		require.NoError(t, err)
		after := s.Snapshot().Stats
		assert.InDelta(t, before.Consumed+r.Calories, after.Consumed, 1e-9)
		assert.InDelta(t, before.Macros.Protein.Current+r.Macros.Protein, after.Macros.Protein.Current, 1e-9)
		assert.InDelta(t, before.Macros.Carbs.Current+r.Macros.Carbs, after.Macros.Carbs.Current, 1e-9)
		assert.InDelta(t, before.Macros.Fat.Current+r.Macros.Fat, after.Macros.Fat.Current, 1e-9)
		ids = append(ids, meal.ID)
	}

	for _, id := range ids {
		_, err := s.RemoveMeal(id)
		require.NoError(t, err)
	}

	end := s.Snapshot().Stats
	assert.Equal(t, start.Consumed, end.Consumed)
	assert.Equal(t, start.Macros.Protein.Current, end.Macros.Protein.Current)
	assert.Equal(t, start.Macros.Carbs.Current, end.Macros.Carbs.Current)
	assert.Equal(t, start.Macros.Fat.Current, end.Macros.Fat.Current)
}

func TestReplaceAllSnapshotRoundTrip(t *testing.T) {
	s, _ := newMemStore(t, models.Snapshot{Meals: models.SampleMeals(), Stats: models.DefaultStats()})
	_, err := s.AddMeal(oatmeal(), "")
	require.NoError(t, err)

	snap := s.Snapshot()
	require.NoError(t, s.ReplaceAll(snap.Meals, snap.Stats))
	assert.Equal(t, snap, s.Snapshot())
}

func TestReplaceAllOverwrites(t *testing.T) {
	s, _ := newMemStore(t, models.Snapshot{Meals: models.SampleMeals(), Stats: models.DefaultStats()})

	remote := []models.Meal{{ID: "r1", Name: "Remote Rice", Calories: 300}}
	stats := models.UserStats{DailyGoal: 1800, Consumed: 300}
	require.NoError(t, s.ReplaceAll(remote, stats))

	snap := s.Snapshot()
	assert.Equal(t, remote, snap.Meals)
	assert.Equal(t, stats, snap.Stats)
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := newMemStore(t, models.Snapshot{Meals: models.SampleMeals(), Stats: models.DefaultStats()})
	snap := s.Snapshot()
	snap.Meals[0].Name = "changed"
	assert.Equal(t, "Oatmeal Bowl", s.Snapshot().Meals[0].Name)
}

func TestPersistFailureRollsBack(t *testing.T) {
	fail := false
	s := New(models.Snapshot{Meals: models.SampleMeals(), Stats: models.DefaultStats()},
		func(models.Snapshot) error {
			if fail {
				return errors.New("disk full")
			}
			return nil
		}, WithClock(fixedClock(morning)))

	before := s.Snapshot()
	fail = true

	_, err := s.AddMeal(oatmeal(), "")
	require.Error(t, err)
	assert.Equal(t, before, s.Snapshot())

	_, err = s.RemoveMeal("1")
	require.Error(t, err)
	assert.Equal(t, before, s.Snapshot())

	err = s.ReplaceAll(nil, models.UserStats{})
	require.Error(t, err)
	assert.Equal(t, before, s.Snapshot())
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diary.db")
	provider := sqlite.NewStore(path)
	require.NoError(t, provider.Init())

	s, err := Open(provider, WithClock(fixedClock(morning)))
	require.NoError(t, err)
	meal, err := s.AddMeal(oatmeal(), "img")
	require.NoError(t, err)
	_, err = s.RemoveMeal("2")
	require.NoError(t, err)
	want := s.Snapshot()
	require.NoError(t, provider.Close())

	reopened := sqlite.NewStore(path)
	require.NoError(t, reopened.Load())
	defer reopened.Close()

	s2, err := Open(reopened)
	require.NoError(t, err)
	got := s2.Snapshot()
	assert.Equal(t, want, got)
	assert.Equal(t, meal.ID, got.Meals[0].ID)
}
