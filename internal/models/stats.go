package models

type MacroProgress struct {
	Current float64 `json:"current"`
	Goal    float64 `json:"goal"`
}

type MacroGoals struct {
	Protein MacroProgress `json:"protein"`
	Carbs   MacroProgress `json:"carbs"`
	Fat     MacroProgress `json:"fat"`
}

type UserStats struct {
	DailyGoal float64    `json:"daily_goal"`
	Consumed  float64    `json:"consumed"`
	Macros    MacroGoals `json:"macros"`
	Streak    int        `json:"streak"`
	Weight    float64    `json:"weight"`
}

// Current returns the running macro totals as a breakdown.
func (s UserStats) Current() MacroBreakdown {
	return MacroBreakdown{
		Protein: s.Macros.Protein.Current,
		Carbs:   s.Macros.Carbs.Current,
		Fat:     s.Macros.Fat.Current,
	}
}

// Remaining is the calorie budget left for the day, never below zero.
func (s UserStats) Remaining() float64 {
	if s.Consumed >= s.DailyGoal {
		return 0
	}
	return s.DailyGoal - s.Consumed
}

type UserProfile struct {
	Username  string `json:"username,omitempty"`
	Nickname  string `json:"nickname"`
	AvatarRef string `json:"avatar_ref,omitempty"`
}

// Snapshot is the complete local state written on every mutation.
type Snapshot struct {
	Meals []Meal    `json:"meals"`
	Stats UserStats `json:"stats"`
}
