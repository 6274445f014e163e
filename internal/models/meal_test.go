package models

import (
	"testing"
	"time"
)

func TestMealTypeAt(t *testing.T) {
	tests := []struct {
		hour int
		want MealType
	}{
		{4, MealSnack},
		{5, MealBreakfast},
		{9, MealBreakfast},
		{10, MealLunch},
		{13, MealLunch},
		{14, MealSnack},
		{16, MealSnack},
		{17, MealDinner},
		{20, MealDinner},
		{21, MealSnack},
		{23, MealSnack},
	}

	for _, tt := range tests {
		at := time.Date(2026, 3, 4, tt.hour, 30, 0, 0, time.Local)
		if got := MealTypeAt(at); got != tt.want {
			t.Errorf("MealTypeAt(%02d:30) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestMealBucket(t *testing.T) {
	legacy := Meal{ID: "1", Name: "Toast"}
	if got := legacy.Bucket("2026-03-04"); got != "2026-03-04" {
		t.Errorf("Bucket() = %s, want today for a meal without a bucket", got)
	}

	dated := Meal{ID: "2", Name: "Soup", DayBucket: "2026-03-01"}
	if got := dated.Bucket("2026-03-04"); got != "2026-03-01" {
		t.Errorf("Bucket() = %s, want 2026-03-01", got)
	}
}

func TestMealValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m := Meal{ID: "1", Name: "Toast", Type: MealBreakfast, Calories: 80, DayBucket: "2026-03-04"}
		if err := m.Validate(); err != nil {
			t.Errorf("Validate() returned unexpected error: %v", err)
		}
	})

	t.Run("negative calories", func(t *testing.T) {
		m := Meal{ID: "1", Name: "Toast", Calories: -1}
		if err := m.Validate(); err == nil {
			t.Error("Validate() should reject negative calories")
		}
	})

	t.Run("bad bucket", func(t *testing.T) {
		m := Meal{ID: "1", Name: "Toast", DayBucket: "04/03/2026"}
		if err := m.Validate(); err == nil {
			t.Error("Validate() should reject a malformed day bucket")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		m := Meal{ID: "1", Name: "Toast", Type: "brunch"}
		if err := m.Validate(); err == nil {
			t.Error("Validate() should reject an unknown meal type")
		}
	})
}

func TestUserStatsRemaining(t *testing.T) {
	s := DefaultStats()
	if got := s.Remaining(); got != 1250 {
		t.Errorf("Remaining() = %v, want 1250", got)
	}
	s.Consumed = 2400
	if got := s.Remaining(); got != 0 {
		t.Errorf("Remaining() = %v, want 0 when over goal", got)
	}
}
