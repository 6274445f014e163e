package models

// DefaultStats is used when no stats have been stored yet.
func DefaultStats() UserStats {
	return UserStats{
		DailyGoal: 2000,
		Consumed:  750,
		Macros: MacroGoals{
			Protein: MacroProgress{Current: 85, Goal: 140},
			Carbs:   MacroProgress{Current: 120, Goal: 250},
			Fat:     MacroProgress{Current: 45, Goal: 70},
		},
		Streak: 12,
		Weight: 65,
	}
}

// SampleMeals is the starter diary shown before anything is logged. The
// samples carry no day bucket, so they count as today's meals.
func SampleMeals() []Meal {
	return []Meal{
		{
			ID:        "1",
			Name:      "Oatmeal Bowl",
			Type:      MealBreakfast,
			TimeOfDay: "08:30",
			Calories:  450,
			Macros:    MacroBreakdown{Protein: 15, Carbs: 65, Fat: 12},
			ImageRef:  "https://picsum.photos/seed/oatmeal/200/200",
		},
		{
			ID:        "2",
			Name:      "Apple & Peanut Butter",
			Type:      MealSnack,
			TimeOfDay: "11:00",
			Calories:  120,
			Macros:    MacroBreakdown{Protein: 4, Carbs: 18, Fat: 8},
			ImageRef:  "https://picsum.photos/seed/apple/200/200",
		},
		{
			ID:        "3",
			Name:      "Grilled Chicken Salad",
			Type:      MealLunch,
			TimeOfDay: "13:15",
			Calories:  520,
			Macros:    MacroBreakdown{Protein: 38, Carbs: 12, Fat: 22},
			ImageRef:  "https://picsum.photos/seed/salad/200/200",
		},
	}
}
