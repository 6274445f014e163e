package meals

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/nutriscan/internal/cli"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/logger"
	"github.com/julianstephens/nutriscan/internal/models"
)

type AnalyzeCmd struct {
	Image string   `arg:"" type:"existingfile" help:"Photo of the meal (JPEG, PNG, WebP or GIF)."`
	Note  []string `help:"Correction to apply before confirming. Repeatable; applied in order." short:"n"`
	Yes   bool     `help:"Confirm the final estimate without prompting." short:"y"`
}

func (c *AnalyzeCmd) Run(ctx *cli.Context) error {
	image, err := os.ReadFile(c.Image)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	imageRef, err := filepath.Abs(c.Image)
	if err != nil {
		imageRef = c.Image
	}

	ctx.Println("🔍 Analyzing...")
	result, err := ctx.Vision.Analyze(ctx.Ctx, image)
	if err != nil {
		return cli.WithHint(err)
	}

	for _, note := range c.Note {
		corrected, err := ctx.Corrector.Correct(ctx.Ctx, result, image, note)
		if err != nil {
			return cli.WithHint(err)
		}
		result = corrected
	}

	if c.Yes {
		return confirm(ctx, result, imageRef)
	}

	for {
		ctx.Println(cli.RenderResult(result))

		action, err := ctx.Prompt.Review(result)
		if err != nil {
			return err
		}

		switch action {
		case cli.ActionConfirm:
			return confirm(ctx, result, imageRef)
		case cli.ActionDiscard:
			ctx.Println("Discarded.")
			return nil
		case cli.ActionCorrect:
			note, err := ctx.Prompt.CorrectionNote()
			if err != nil {
				return err
			}
			ctx.Println("🔍 Re-analyzing...")
			corrected, err := ctx.Corrector.Correct(ctx.Ctx, result, image, note)
			if err != nil {
				// The previous estimate stays on offer.
				ctx.Println(nserrors.Format(err))
				if hint := nserrors.Hint(err); hint != "" {
					ctx.Println(hint)
				}
				continue
			}
			result = corrected
		default:
			return fmt.Errorf("unknown action %q", action)
		}
	}
}

func confirm(ctx *cli.Context, result models.AnalysisResult, imageRef string) error {
	meal, err := ctx.ConfirmMeal(result, imageRef)
	if err != nil {
		return err
	}
	logger.Info("Meal logged", "meal_id", meal.ID, "calories", meal.Calories)
	ctx.Printf("✓ Logged %s (%s, %s kcal) as %s\n", meal.Name, meal.Type, cli.Num(meal.Calories), meal.ID)
	ctx.Println(cli.RenderStats(ctx.Diary.Snapshot().Stats))
	return nil
}
