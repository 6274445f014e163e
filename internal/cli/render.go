package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/nutriscan/internal/diary"
	"github.com/julianstephens/nutriscan/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	insightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("36")).
			Padding(0, 1)
)

// Num formats a quantity with at most one decimal.
func Num(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

func macroLine(m models.MacroBreakdown) string {
	return fmt.Sprintf("P %sg · C %sg · F %sg", Num(m.Protein), Num(m.Carbs), Num(m.Fat))
}

// RenderResult shows an estimate awaiting confirmation.
func RenderResult(r models.AnalysisResult) string {
	lines := []string{
		titleStyle.Render(r.Name),
		fmt.Sprintf("%s %s kcal", labelStyle.Render("Calories"), Num(r.Calories)),
		fmt.Sprintf("%s %s", labelStyle.Render("Macros  "), macroLine(r.Macros)),
	}
	if r.Insight != "" {
		lines = append(lines, insightStyle.Render(r.Insight))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderMeal is a one-line diary entry.
func RenderMeal(m models.Meal) string {
	return fmt.Sprintf("%-14s %s  %-9s %-28s %6s kcal  %s",
		m.ID, m.TimeOfDay, m.Type, m.Name, Num(m.Calories), macroLine(m.Macros))
}

func progress(label string, p models.MacroProgress) string {
	return fmt.Sprintf("%s %s / %sg", labelStyle.Render(label), Num(p.Current), Num(p.Goal))
}

// RenderStats shows the running totals against goals.
func RenderStats(s models.UserStats) string {
	lines := []string{
		titleStyle.Render("Today"),
		fmt.Sprintf("%s %s / %s kcal (%s left)",
			labelStyle.Render("Calories"), Num(s.Consumed), Num(s.DailyGoal), Num(s.Remaining())),
		progress("Protein ", s.Macros.Protein),
		progress("Carbs   ", s.Macros.Carbs),
		progress("Fat     ", s.Macros.Fat),
		fmt.Sprintf("%s %d days  %s %s kg",
			labelStyle.Render("Streak  "), s.Streak, labelStyle.Render("Weight"), Num(s.Weight)),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderDay lists one day's meals with their totals.
func RenderDay(day string, meals []models.Meal, total diary.DayTotal) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(day))
	b.WriteString("\n")
	if len(meals) == 0 {
		b.WriteString(labelStyle.Render("No meals logged."))
		return b.String()
	}
	for _, m := range meals {
		b.WriteString(RenderMeal(m))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("%s %s kcal  %s", labelStyle.Render("Total"), Num(total.Calories), macroLine(total.Macros)))
	return b.String()
}

// RenderReport shows a period summary with one bar per day.
func RenderReport(r diary.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Last %d days", len(r.Days))))
	b.WriteString("\n")

	peak := r.MaxCalories
	if r.DailyGoal > peak {
		peak = r.DailyGoal
	}
	for _, d := range r.Days {
		bar := ""
		if peak > 0 && d.Calories > 0 {
			width := int(d.Calories / peak * 30)
			if width < 1 {
				width = 1
			}
			bar = strings.Repeat("█", width)
		}
		b.WriteString(fmt.Sprintf("%s %-30s %s\n", labelStyle.Render(d.Day), bar, Num(d.Calories)))
	}

	summary := []string{
		fmt.Sprintf("%s %d/%d", labelStyle.Render("Recorded days "), r.RecordedDays, len(r.Days)),
		fmt.Sprintf("%s %s kcal", labelStyle.Render("Average       "), Num(r.AverageCalories)),
		fmt.Sprintf("%s %s / %s kcal", labelStyle.Render("Min / max     "), Num(r.MinCalories), Num(r.MaxCalories)),
		fmt.Sprintf("%s %d", labelStyle.Render("Goal reached  "), r.GoalReachedDays),
		fmt.Sprintf("%s P %d%% · C %d%% · F %d%%", labelStyle.Render("Macro split   "), r.Split.Protein, r.Split.Carbs, r.Split.Fat),
	}
	b.WriteString(boxStyle.Render(strings.Join(summary, "\n")))
	return b.String()
}

// RenderProfile shows the remote profile.
func RenderProfile(p models.UserProfile) string {
	lines := []string{
		titleStyle.Render(p.Nickname),
		fmt.Sprintf("%s %s", labelStyle.Render("Username"), p.Username),
	}
	if p.AvatarRef != "" {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Avatar  "), p.AvatarRef))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
