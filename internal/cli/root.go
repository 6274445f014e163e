package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/nutriscan/internal/account"
	"github.com/julianstephens/nutriscan/internal/backup"
	"github.com/julianstephens/nutriscan/internal/diary"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/logger"
	"github.com/julianstephens/nutriscan/internal/models"
	"github.com/julianstephens/nutriscan/internal/session"
	"github.com/julianstephens/nutriscan/internal/storage"
	"github.com/julianstephens/nutriscan/internal/syncer"
)

// Analyzer produces a first estimate for an image.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (models.AnalysisResult, error)
}

// Corrector amends an estimate from a user note.
type Corrector interface {
	Correct(ctx context.Context, previous models.AnalysisResult, image []byte, note string) (models.AnalysisResult, error)
}

type Context struct {
	Ctx       context.Context
	Store     storage.Provider
	Vision    Analyzer
	Corrector Corrector
	Account   *account.Client
	Prompt    Prompter
	Out       io.Writer

	// Set by Open.
	Diary *diary.Store
	Sync  *syncer.Coordinator
}

// Open loads storage, the diary and the stored session, and wires the sync
// coordinator. Commands that only need storage paths can skip it.
func (c *Context) Open(opts ...syncer.Option) error {
	if c.Ctx == nil {
		c.Ctx = context.Background()
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if err := c.Store.Load(); err != nil {
		return err
	}

	d, err := diary.Open(c.Store)
	if err != nil {
		return err
	}
	c.Diary = d

	s, err := session.Load()
	if err != nil {
		logger.Warn("Keyring unavailable, continuing in local-only mode", "error", err)
		s = session.Session{}
	}

	opts = append([]syncer.Option{
		syncer.WithSessionStore(session.Keyring{}),
		syncer.WithBeforeReplace(c.PerformPrePullBackup),
	}, opts...)
	c.Sync = syncer.New(c.Account, c.Diary, s, opts...)
	return nil
}

// ConfirmMeal commits an estimate to the diary and mirrors it remotely.
func (c *Context) ConfirmMeal(result models.AnalysisResult, imageRef string) (models.Meal, error) {
	meal, err := c.Diary.AddMeal(result, imageRef)
	if err != nil {
		return models.Meal{}, err
	}
	c.Sync.PushCreate(meal)
	return meal, nil
}

// DeleteMeal removes a meal locally and mirrors the deletion remotely.
func (c *Context) DeleteMeal(id string) (models.Meal, error) {
	meal, err := c.Diary.RemoveMeal(id)
	if err != nil {
		return models.Meal{}, err
	}
	c.Sync.PushDelete(id)
	return meal, nil
}

// Backups returns the backup manager, or nil when the diary is not a local
// SQLite file.
func (c *Context) Backups() *backup.Manager {
	if storage.IsPostgres(c.Store.GetConfigPath()) {
		return nil
	}
	return backup.NewManager(c.Store.GetConfigPath())
}

// PerformPrePullBackup snapshots the diary before a pull replaces it.
func (c *Context) PerformPrePullBackup() error {
	mgr := c.Backups()
	if mgr == nil {
		return nil
	}
	if _, err := mgr.Create(backup.LabelPrePull); err != nil {
		return fmt.Errorf("pre-pull backup failed: %w", err)
	}
	return nil
}

// WithHint appends a suggested next step to err when one exists.
func WithHint(err error) error {
	if hint := nserrors.Hint(err); hint != "" {
		return fmt.Errorf("%w\n%s", err, hint)
	}
	return err
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}
