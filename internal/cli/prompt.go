package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/nutriscan/internal/models"
)

type Action string

const (
	ActionConfirm Action = "confirm"
	ActionCorrect Action = "correct"
	ActionDiscard Action = "discard"
)

// Prompter asks the user for decisions. FormPrompter is the terminal
// implementation; tests script their own.
type Prompter interface {
	Review(result models.AnalysisResult) (Action, error)
	CorrectionNote() (string, error)
	Secret(title string) (string, error)
	Confirm(title string) (bool, error)
}

type FormPrompter struct{}

func (FormPrompter) Review(result models.AnalysisResult) (Action, error) {
	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Log %s?", result.Name)).
				Options(
					huh.NewOption("Confirm", string(ActionConfirm)),
					huh.NewOption("Correct the estimate", string(ActionCorrect)),
					huh.NewOption("Discard", string(ActionDiscard)),
				).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("interactive form error: %w", err)
	}
	return Action(choice), nil
}

func (FormPrompter) CorrectionNote() (string, error) {
	var note string
	err := huh.NewInput().
		Title("What's wrong with the estimate?").
		Placeholder("e.g. it was a half portion, no dressing").
		Value(&note).
		Run()
	if err != nil {
		return "", fmt.Errorf("interactive form error: %w", err)
	}
	return note, nil
}

func (FormPrompter) Secret(title string) (string, error) {
	var v string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&v).
		Run()
	if err != nil {
		return "", fmt.Errorf("interactive form error: %w", err)
	}
	return v, nil
}

func (FormPrompter) Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("interactive form error: %w", err)
	}
	return ok, nil
}
