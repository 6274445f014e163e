package system

import (
	"fmt"

	"github.com/julianstephens/nutriscan/internal/cli"
	"github.com/julianstephens/nutriscan/internal/storage"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	version, err := ctx.Store.SchemaVersion()
	if err != nil {
		return err
	}

	// Seed the sample diary so the first run has something to show.
	snap, err := storage.LoadSnapshot(ctx.Store)
	if err != nil {
		return err
	}
	if err := storage.SaveSnapshot(ctx.Store, snap); err != nil {
		return err
	}

	ctx.Printf("✓ Initialized storage at %s (schema version %d)\n", ctx.Store.GetConfigPath(), version)
	return nil
}
