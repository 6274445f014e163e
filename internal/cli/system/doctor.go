package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/nutriscan/internal/cli"
	"github.com/julianstephens/nutriscan/internal/constants"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/keyring"
	"github.com/julianstephens/nutriscan/internal/session"
	"github.com/julianstephens/nutriscan/internal/storage"
)

type DoctorCmd struct{}

type check struct {
	name     string
	warnOnly bool
	needsDB  bool
	run      func(*cli.Context) error
}

var checks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Stored diary readable", needsDB: true, run: checkSnapshot},
	{name: "Keyring available", warnOnly: true, run: checkKeyring},
	{name: "Session present", warnOnly: true, run: checkSession},
	{name: "Backups present", warnOnly: true, needsDB: true, run: checkBackupsPresent},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true
	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			if c.name == "Database reachable" {
				dbReachable = false
			}
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Store.Get(constants.KeyStats); err != nil && !errors.Is(err, nserrors.ErrKeyNotFound) {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	version, err := ctx.Store.SchemaVersion()
	if err != nil {
		return err
	}
	if version < 1 {
		return fmt.Errorf("schema not initialized, run 'nutriscan init'")
	}
	return nil
}

func checkSnapshot(ctx *cli.Context) error {
	_, err := storage.LoadSnapshot(ctx.Store)
	return err
}

func checkKeyring(*cli.Context) error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; login sessions cannot be stored")
	}
	return nil
}

func checkSession(*cli.Context) error {
	s, err := session.Load()
	if err != nil {
		return err
	}
	if !s.Authenticated() {
		return fmt.Errorf("not logged in; meals stay local until you run 'nutriscan login'")
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := ctx.Backups()
	if mgr == nil {
		return nil
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s", mgr.Dir())
	}
	if age := time.Since(backups[0].Timestamp); age > 14*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}
