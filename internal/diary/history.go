package diary

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/nutriscan/internal/constants"
	"github.com/julianstephens/nutriscan/internal/models"
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodWeek, PeriodMonth:
		return Period(s), nil
	}
	return "", fmt.Errorf("invalid period %q (expected week or month)", s)
}

func (p Period) Days() int {
	if p == PeriodMonth {
		return constants.ReportMonthDays
	}
	return constants.ReportWeekDays
}

// DayTotal sums one day bucket.
type DayTotal struct {
	Day      string                `json:"day"`
	Meals    int                   `json:"meals"`
	Calories float64               `json:"calories"`
	Macros   models.MacroBreakdown `json:"macros"`
}

// MacroSplit is the share of calories from each macro, in whole percent.
type MacroSplit struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

type Report struct {
	Period          Period     `json:"period"`
	Days            []DayTotal `json:"days"`
	RecordedDays    int        `json:"recorded_days"`
	AverageCalories float64    `json:"average_calories"`
	MaxCalories     float64    `json:"max_calories"`
	MinCalories     float64    `json:"min_calories"`
	DailyGoal       float64    `json:"daily_goal"`
	GoalReachedDays int        `json:"goal_reached_days"`
	Split           MacroSplit `json:"split"`
}

// MealsForDay filters meals to one day bucket, keeping list order. Meals
// without a bucket belong to today.
func MealsForDay(meals []models.Meal, day, today string) []models.Meal {
	out := []models.Meal{}
	for _, m := range meals {
		if m.Bucket(today) == day {
			out = append(out, m)
		}
	}
	return out
}

func DayTotals(meals []models.Meal, day, today string) DayTotal {
	total := DayTotal{Day: day}
	var cal, p, c, f decimal.Decimal
	for _, m := range MealsForDay(meals, day, today) {
		total.Meals++
		cal = cal.Add(decimal.NewFromFloat(m.Calories))
		p = p.Add(decimal.NewFromFloat(m.Macros.Protein))
		c = c.Add(decimal.NewFromFloat(m.Macros.Carbs))
		f = f.Add(decimal.NewFromFloat(m.Macros.Fat))
	}
	total.Calories = cal.InexactFloat64()
	total.Macros = models.MacroBreakdown{
		Protein: p.InexactFloat64(),
		Carbs:   c.InexactFloat64(),
		Fat:     f.InexactFloat64(),
	}
	return total
}

// BuildReport covers the period's days ending today, oldest first. Averages
// and extremes only count days with a positive calorie total; a day reaches
// the goal when it lands within the tolerance band around stats.DailyGoal.
func BuildReport(meals []models.Meal, stats models.UserStats, p Period, now time.Time) Report {
	today := now.Format(constants.DateFormat)
	r := Report{Period: p, DailyGoal: stats.DailyGoal}

	lo := stats.DailyGoal * (1 - constants.GoalToleranceRatio)
	hi := stats.DailyGoal * (1 + constants.GoalToleranceRatio)
	sum := decimal.Zero

	n := p.Days()
	for i := n - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(constants.DateFormat)
		total := DayTotals(meals, day, today)
		r.Days = append(r.Days, total)

		if total.Meals == 0 || total.Calories <= 0 {
			continue
		}
		if r.RecordedDays == 0 || total.Calories > r.MaxCalories {
			r.MaxCalories = total.Calories
		}
		if r.RecordedDays == 0 || total.Calories < r.MinCalories {
			r.MinCalories = total.Calories
		}
		r.RecordedDays++
		sum = sum.Add(decimal.NewFromFloat(total.Calories))
		if total.Calories >= lo && total.Calories <= hi {
			r.GoalReachedDays++
		}
	}

	if r.RecordedDays > 0 {
		r.AverageCalories = sum.Div(decimal.NewFromInt(int64(r.RecordedDays))).Round(0).InexactFloat64()
	}
	r.Split = macroSplit(stats.Current())
	return r
}

// macroSplit uses 4 kcal/g for protein and carbs and 9 kcal/g for fat.
func macroSplit(m models.MacroBreakdown) MacroSplit {
	p := m.Protein * 4
	c := m.Carbs * 4
	f := m.Fat * 9
	total := p + c + f
	if total == 0 {
		total = 1
	}
	return MacroSplit{
		Protein: int(math.Round(p / total * 100)),
		Carbs:   int(math.Round(c / total * 100)),
		Fat:     int(math.Round(f / total * 100)),
	}
}

// MealsForDay returns the meals in day's bucket.
func (s *Store) MealsForDay(day string) []models.Meal {
	snap := s.Snapshot()
	return MealsForDay(snap.Meals, day, s.now().Format(constants.DateFormat))
}

func (s *Store) DayTotals(day string) DayTotal {
	snap := s.Snapshot()
	return DayTotals(snap.Meals, day, s.now().Format(constants.DateFormat))
}

func (s *Store) Report(p Period) Report {
	snap := s.Snapshot()
	return BuildReport(snap.Meals, snap.Stats, p, s.now())
}
