package models

// AnalysisResult is a nutrition estimate for one image. Values are produced
// by vision.ParseResponse, which validates every field.
type AnalysisResult struct {
	Name     string         `json:"name" validate:"required"`
	Calories float64        `json:"calories" validate:"gte=0"`
	Macros   MacroBreakdown `json:"macros"`
	Insight  string         `json:"insight"`
}
