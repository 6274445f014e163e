package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/logger"
	"github.com/julianstephens/nutriscan/internal/models"
)

const correctionTemplate = `Identify the food in this photo and estimate its nutrition for the portion shown.
A previous estimate for this photo was:
%s
The user says this estimate is wrong: %q
Produce a corrected estimate that takes the user's note into account.
Reply with exactly one single-line JSON object and nothing else, in this shape:
{"name":"dish name","calories":number,"macros":{"protein":number,"carbs":number,"fat":number},"insight":"one short tip with an emoji"}
Use grams for macros and kcal for calories. Do not wrap the JSON in Markdown.`

// Analyzer is the part of Client the correction engine depends on.
type Analyzer interface {
	AnalyzeWithInstruction(ctx context.Context, image []byte, instruction string) (models.AnalysisResult, error)
}

// Corrector amends an estimate from free-text user feedback. Each call is
// independent, so the output of one correction can feed the next.
type Corrector struct {
	analyzer Analyzer
}

func NewCorrector(a Analyzer) *Corrector {
	return &Corrector{analyzer: a}
}

// Correct re-analyzes image with previous and note embedded in the
// instruction. The returned result replaces previous entirely.
func (c *Corrector) Correct(ctx context.Context, previous models.AnalysisResult, image []byte, note string) (models.AnalysisResult, error) {
	if len(image) == 0 {
		return models.AnalysisResult{}, &nserrors.CorrectionError{Reason: nserrors.ReasonImageUnavailable}
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return models.AnalysisResult{}, &nserrors.CorrectionError{Reason: nserrors.ReasonEmptyCorrection}
	}

	prev, err := json.Marshal(previous)
	if err != nil {
		return models.AnalysisResult{}, &nserrors.CorrectionError{Reason: nserrors.ReasonAnalysis, Err: err}
	}

	result, err := c.analyzer.AnalyzeWithInstruction(ctx, image, fmt.Sprintf(correctionTemplate, prev, note))
	if err != nil {
		logger.Warn("Correction failed", "previous", previous.Name, "error", err)
		return models.AnalysisResult{}, &nserrors.CorrectionError{Reason: nserrors.ReasonAnalysis, Err: err}
	}

	logger.Debug("Correction applied", "previous", previous.Name, "corrected", result.Name)
	return result, nil
}
