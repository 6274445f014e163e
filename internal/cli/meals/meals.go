package meals

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/nutriscan/internal/cli"
	"github.com/julianstephens/nutriscan/internal/constants"
	"github.com/julianstephens/nutriscan/internal/diary"
	"github.com/julianstephens/nutriscan/internal/logger"
)

type ListCmd struct {
	JSON bool `help:"Print meals as JSON."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	meals := ctx.Diary.Snapshot().Meals
	if c.JSON {
		return printJSON(ctx, meals)
	}
	if len(meals) == 0 {
		ctx.Println("No meals logged yet. Run `nutriscan analyze <photo>` to add one.")
		return nil
	}
	for _, m := range meals {
		ctx.Println(cli.RenderMeal(m))
	}
	return nil
}

type DeleteCmd struct {
	ID  string `arg:"" help:"Meal id, as shown by 'meals list'."`
	Yes bool   `help:"Delete without asking." short:"y"`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	meal, ok := ctx.Diary.Meal(c.ID)
	if !ok {
		_, err := ctx.DeleteMeal(c.ID)
		return cli.WithHint(err)
	}

	if !c.Yes {
		ok, err := ctx.Prompt.Confirm(fmt.Sprintf("Delete %s (%s kcal)?", meal.Name, cli.Num(meal.Calories)))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Deletion cancelled.")
			return nil
		}
	}

	removed, err := ctx.DeleteMeal(c.ID)
	if err != nil {
		return cli.WithHint(err)
	}
	logger.Info("Meal deleted", "meal_id", removed.ID)
	ctx.Printf("✓ Deleted %s\n", removed.Name)
	return nil
}

type DayCmd struct {
	Date string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD, 'today' or 'yesterday')." default:"today"`
	JSON bool   `help:"Print the day as JSON."`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	day, err := ParseDay(c.Date, time.Now())
	if err != nil {
		return err
	}
	meals := ctx.Diary.MealsForDay(day)
	total := ctx.Diary.DayTotals(day)
	if c.JSON {
		return printJSON(ctx, struct {
			Total diary.DayTotal `json:"total"`
			Meals interface{}    `json:"meals"`
		}{total, meals})
	}
	ctx.Println(cli.RenderDay(day, meals, total))
	return nil
}

type ReportCmd struct {
	Period string `arg:"" optional:"" enum:"week,month" default:"week" help:"Report period: week or month."`
	JSON   bool   `help:"Print the report as JSON."`
}

func (c *ReportCmd) Run(ctx *cli.Context) error {
	p, err := diary.ParsePeriod(c.Period)
	if err != nil {
		return err
	}
	r := ctx.Diary.Report(p)
	if c.JSON {
		return printJSON(ctx, r)
	}
	ctx.Println(cli.RenderReport(r))
	return nil
}

type StatsShowCmd struct{}

func (c *StatsShowCmd) Run(ctx *cli.Context) error {
	ctx.Println(cli.RenderStats(ctx.Diary.Snapshot().Stats))
	return nil
}

// ParseDay resolves a day argument to a YYYY-MM-DD bucket.
func ParseDay(s string, now time.Time) (string, error) {
	switch s {
	case "", "today":
		return now.Format(constants.DateFormat), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(constants.DateFormat), nil
	}
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t.Format(constants.DateFormat), nil
}

func printJSON(ctx *cli.Context, v interface{}) error {
	enc := json.NewEncoder(ctx.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
