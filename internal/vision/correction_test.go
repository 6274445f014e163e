package vision

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/models"
)

type fakeAnalyzer struct {
	instructions []string
	results      []models.AnalysisResult
	err          error
}

func (f *fakeAnalyzer) AnalyzeWithInstruction(ctx context.Context, image []byte, instruction string) (models.AnalysisResult, error) {
	f.instructions = append(f.instructions, instruction)
	if f.err != nil {
		return models.AnalysisResult{}, f.err
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r, nil
}

func TestCorrectImageUnavailable(t *testing.T) {
	fake := &fakeAnalyzer{}
	_, err := NewCorrector(fake).Correct(context.Background(), oatmeal, nil, "it was a small bowl")
	require.Error(t, err)

	var ce *nserrors.CorrectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, nserrors.ReasonImageUnavailable, ce.Reason)
	assert.Empty(t, fake.instructions, "no call may be made without the image")
}

func TestCorrectEmptyNote(t *testing.T) {
	fake := &fakeAnalyzer{}
	_, err := NewCorrector(fake).Correct(context.Background(), oatmeal, jpegBytes, "   ")

	var ce *nserrors.CorrectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, nserrors.ReasonEmptyCorrection, ce.Reason)
	assert.Empty(t, fake.instructions)
}

func TestCorrectReplacesPreviousResult(t *testing.T) {
	corrected := models.AnalysisResult{
		Name:     "Small Oatmeal Bowl",
		Calories: 220,
		Macros:   models.MacroBreakdown{Protein: 7, Carbs: 33, Fat: 5},
		Insight:  "",
	}
	fake := &fakeAnalyzer{results: []models.AnalysisResult{corrected}}

	got, err := NewCorrector(fake).Correct(context.Background(), oatmeal, jpegBytes, "it was half that size")
	require.NoError(t, err)
	assert.Equal(t, corrected, got, "no fields carried over from the previous estimate")

	require.Len(t, fake.instructions, 1)
	assert.Contains(t, fake.instructions[0], `"name":"Oatmeal Bowl"`)
	assert.Contains(t, fake.instructions[0], `"calories":450`)
	assert.Contains(t, fake.instructions[0], "it was half that size")
}

func TestCorrectCanBeChained(t *testing.T) {
	first := models.AnalysisResult{Name: "Rice Bowl", Calories: 500}
	second := models.AnalysisResult{Name: "Brown Rice Bowl", Calories: 470}
	fake := &fakeAnalyzer{results: []models.AnalysisResult{first, second}}
	c := NewCorrector(fake)

	r1, err := c.Correct(context.Background(), oatmeal, jpegBytes, "it's rice")
	require.NoError(t, err)
	r2, err := c.Correct(context.Background(), r1, jpegBytes, "brown rice")
	require.NoError(t, err)

	assert.Equal(t, second, r2)
	require.Len(t, fake.instructions, 2)
	assert.Contains(t, fake.instructions[1], `"name":"Rice Bowl"`)
}

func TestCorrectWrapsAnalysisFailure(t *testing.T) {
	underlying := &nserrors.AnalysisError{Attempts: 3, Reason: nserrors.ReasonParse, Err: nserrors.Malformed("bad")}
	fake := &fakeAnalyzer{err: underlying}

	_, err := NewCorrector(fake).Correct(context.Background(), oatmeal, jpegBytes, "more cheese")
	require.Error(t, err)
	assert.ErrorIs(t, err, nserrors.ErrCorrectionFailure)
	assert.ErrorIs(t, err, nserrors.ErrAnalysisFailure)
	assert.True(t, errors.Is(err, nserrors.ErrMalformedResponse))
}

func TestCorrectUsesClientRetryPolicy(t *testing.T) {
	var seen []string
	bodies := []string{completion("garbage"), completion(oatmealJSON)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		seen = append(seen, req.Messages[0].Content[1].Text)
		_, _ = io.WriteString(w, bodies[len(seen)-1])
	}))
	defer srv.Close()

	got, err := NewCorrector(New(Config{BaseURL: srv.URL})).Correct(context.Background(), oatmeal, jpegBytes, "add honey")
	require.NoError(t, err)
	assert.Equal(t, "Oatmeal Bowl", got.Name)
	require.Len(t, seen, 2)
	assert.Contains(t, seen[1], "add honey")
}
