package account

import (
	"math"

	"github.com/julianstephens/nutriscan/internal/constants"
	"github.com/julianstephens/nutriscan/internal/models"
)

type credentials struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// mealDTO is the backend's meal shape. The backend stores whole calories and
// reports the creation date as createdAt.
type mealDTO struct {
	ID        string                `json:"id,omitempty"`
	Name      string                `json:"name"`
	Type      string                `json:"type"`
	Time      string                `json:"time"`
	Calories  float64               `json:"calories"`
	Macros    models.MacroBreakdown `json:"macros"`
	ImageURL  *string               `json:"imageUrl"`
	Insight   *string               `json:"insight"`
	CreatedAt *string               `json:"createdAt,omitempty"`
}

func toMealDTO(m models.Meal) mealDTO {
	dto := mealDTO{
		Name:     m.Name,
		Type:     string(m.Type),
		Time:     m.TimeOfDay,
		Calories: math.Round(m.Calories),
		Macros:   m.Macros,
	}
	if m.ImageRef != "" {
		dto.ImageURL = &m.ImageRef
	}
	if m.Insight != "" {
		dto.Insight = &m.Insight
	}
	return dto
}

func (d mealDTO) toMeal() models.Meal {
	m := models.Meal{
		ID:        d.ID,
		Name:      d.Name,
		Type:      models.MealType(d.Type),
		TimeOfDay: d.Time,
		Calories:  d.Calories,
		Macros:    d.Macros,
	}
	if !m.Type.Valid() {
		m.Type = models.MealSnack
	}
	if d.ImageURL != nil {
		m.ImageRef = *d.ImageURL
	}
	if d.Insight != nil {
		m.Insight = *d.Insight
	}
	// createdAt may be a full timestamp; only the date is kept.
	if d.CreatedAt != nil && len(*d.CreatedAt) >= len(constants.DateFormat) {
		m.DayBucket = (*d.CreatedAt)[:len(constants.DateFormat)]
	}
	return m
}

type macroProgressDTO struct {
	Current float64 `json:"current"`
	Goal    float64 `json:"goal"`
}

type statsDTO struct {
	DailyGoal float64 `json:"dailyGoal"`
	Consumed  float64 `json:"consumed"`
	Macros    struct {
		Protein macroProgressDTO `json:"protein"`
		Carbs   macroProgressDTO `json:"carbs"`
		Fat     macroProgressDTO `json:"fat"`
	} `json:"macros"`
	Streak int     `json:"streak"`
	Weight float64 `json:"weight"`
}

func (d statsDTO) toStats() models.UserStats {
	return models.UserStats{
		DailyGoal: d.DailyGoal,
		Consumed:  d.Consumed,
		Macros: models.MacroGoals{
			Protein: models.MacroProgress(d.Macros.Protein),
			Carbs:   models.MacroProgress(d.Macros.Carbs),
			Fat:     models.MacroProgress(d.Macros.Fat),
		},
		Streak: d.Streak,
		Weight: d.Weight,
	}
}

// StatsUpdate overwrites only the non-nil fields of the remote stats.
type StatsUpdate struct {
	DailyGoal *int     `json:"dailyGoal,omitempty" validate:"omitempty,gt=0"`
	Weight    *float64 `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Streak    *int     `json:"streak,omitempty" validate:"omitempty,gte=0"`
}

func (u StatsUpdate) Empty() bool {
	return u.DailyGoal == nil && u.Weight == nil && u.Streak == nil
}

type profileDTO struct {
	Username  string  `json:"username"`
	Nickname  string  `json:"nickname"`
	AvatarURL *string `json:"avatarUrl"`
}

func (d profileDTO) toProfile() models.UserProfile {
	p := models.UserProfile{Username: d.Username, Nickname: d.Nickname}
	if d.AvatarURL != nil {
		p.AvatarRef = *d.AvatarURL
	}
	return p
}

// ProfileUpdate overwrites only the non-nil fields of the remote profile.
type ProfileUpdate struct {
	Nickname  *string `json:"nickname,omitempty" validate:"omitempty,min=1,max=64"`
	AvatarURL *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
}

func (u ProfileUpdate) Empty() bool {
	return u.Nickname == nil && u.AvatarURL == nil
}
