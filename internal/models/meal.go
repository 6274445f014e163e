package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/nutriscan/internal/constants"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypeAt infers the meal type from the hour of t.
func MealTypeAt(t time.Time) MealType {
	h := t.Hour()
	for _, w := range constants.MealWindows {
		if h >= w.Start && h < w.End {
			return MealType(w.Type)
		}
	}
	return MealSnack
}

func (t MealType) Valid() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

type MacroBreakdown struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

type Meal struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      MealType       `json:"type"`
	TimeOfDay string         `json:"time"` // HH:MM format
	Calories  float64        `json:"calories"`
	Macros    MacroBreakdown `json:"macros"`
	ImageRef  string         `json:"image_ref,omitempty"`
	Insight   string         `json:"insight,omitempty"`
	DayBucket string         `json:"day_bucket,omitempty"` // YYYY-MM-DD format
}

// Bucket returns the meal's day bucket. Meals stored before buckets existed
// belong to today.
func (m Meal) Bucket(today string) string {
	if m.DayBucket == "" {
		return today
	}
	return m.DayBucket
}

func (m *Meal) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("meal id cannot be empty")
	}
	if m.Name == "" {
		return fmt.Errorf("meal name cannot be empty")
	}
	if m.Type != "" && !m.Type.Valid() {
		return fmt.Errorf("invalid meal type: %s", m.Type)
	}
	if m.Calories < 0 || m.Macros.Protein < 0 || m.Macros.Carbs < 0 || m.Macros.Fat < 0 {
		return fmt.Errorf("meal %s has negative nutrition values", m.ID)
	}
	if m.DayBucket != "" {
		if _, err := time.Parse(constants.DateFormat, m.DayBucket); err != nil {
			return fmt.Errorf("invalid day bucket (expected YYYY-MM-DD): %w", err)
		}
	}
	return nil
}
