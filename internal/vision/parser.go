package vision

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// wireMacros and wireResult mirror the response shape with pointer fields so
// that an absent or null field is distinguishable from a zero value.
type wireMacros struct {
	Protein *float64 `json:"protein"`
	Carbs   *float64 `json:"carbs"`
	Fat     *float64 `json:"fat"`
}

type wireResult struct {
	Name     *string     `json:"name"`
	Calories *float64    `json:"calories"`
	Macros   *wireMacros `json:"macros"`
	Insight  *string     `json:"insight"`
}

// ParseResponse turns the raw text returned by the analysis service into a
// validated AnalysisResult. Any error it returns is a
// *errors.MalformedResponseError.
func ParseResponse(raw string) (models.AnalysisResult, error) {
	text := stripFence(raw)
	if text == "" {
		return models.AnalysisResult{}, nserrors.Malformed("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	var w wireResult
	if err := dec.Decode(&w); err != nil {
		return models.AnalysisResult{}, nserrors.Malformed("invalid JSON: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return models.AnalysisResult{}, nserrors.Malformed("unexpected content after JSON object")
	}

	switch {
	case w.Name == nil:
		return models.AnalysisResult{}, missing("name")
	case w.Calories == nil:
		return models.AnalysisResult{}, missing("calories")
	case w.Macros == nil:
		return models.AnalysisResult{}, missing("macros")
	case w.Macros.Protein == nil:
		return models.AnalysisResult{}, missing("macros.protein")
	case w.Macros.Carbs == nil:
		return models.AnalysisResult{}, missing("macros.carbs")
	case w.Macros.Fat == nil:
		return models.AnalysisResult{}, missing("macros.fat")
	case w.Insight == nil:
		return models.AnalysisResult{}, missing("insight")
	}

	result := models.AnalysisResult{
		Name:     strings.TrimSpace(*w.Name),
		Calories: *w.Calories,
		Macros: models.MacroBreakdown{
			Protein: *w.Macros.Protein,
			Carbs:   *w.Macros.Carbs,
			Fat:     *w.Macros.Fat,
		},
		Insight: *w.Insight,
	}

	if err := validate.Struct(result); err != nil {
		return models.AnalysisResult{}, nserrors.Malformed("%s", describeValidation(err))
	}
	if err := validate.Var(result.Macros.Protein, "gte=0"); err != nil {
		return models.AnalysisResult{}, nserrors.Malformed("macros.protein must be non-negative")
	}
	if err := validate.Var(result.Macros.Carbs, "gte=0"); err != nil {
		return models.AnalysisResult{}, nserrors.Malformed("macros.carbs must be non-negative")
	}
	if err := validate.Var(result.Macros.Fat, "gte=0"); err != nil {
		return models.AnalysisResult{}, nserrors.Malformed("macros.fat must be non-negative")
	}

	return result, nil
}

// stripFence removes surrounding whitespace and a Markdown code fence, with
// or without a language tag.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimLeft(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func missing(field string) *nserrors.MalformedResponseError {
	return nserrors.Malformed("missing required field %q", field)
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must not be empty", strings.ToLower(fe.Field()))
	case "gte":
		return fmt.Sprintf("%s must be non-negative", strings.ToLower(fe.Field()))
	}
	return fe.Error()
}
