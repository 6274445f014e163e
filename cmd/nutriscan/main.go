package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/nutriscan/internal/account"
	"github.com/julianstephens/nutriscan/internal/cli"
	"github.com/julianstephens/nutriscan/internal/cli/accounts"
	"github.com/julianstephens/nutriscan/internal/cli/backups"
	"github.com/julianstephens/nutriscan/internal/cli/meals"
	"github.com/julianstephens/nutriscan/internal/cli/system"
	"github.com/julianstephens/nutriscan/internal/constants"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/logger"
	"github.com/julianstephens/nutriscan/internal/storage"
	"github.com/julianstephens/nutriscan/internal/syncer"
	"github.com/julianstephens/nutriscan/internal/vision"
)

type CLI struct {
	Version kong.VersionFlag
	Config  string `help:"SQLite file path or PostgreSQL connection string. PostgreSQL credentials must NOT be embedded; use .pgpass or PG* environment variables." env:"NUTRISCAN_CONFIG" default:"~/.config/nutriscan/nutriscan.db"`
	Debug   bool   `help:"Log debug output to stderr." env:"NUTRISCAN_DEBUG"`
	Offline bool   `help:"Skip the startup pull from your account." env:"NUTRISCAN_OFFLINE"`

	VisionURL   string        `help:"Base URL of the OpenAI-compatible vision service." env:"NUTRISCAN_VISION_URL" default:"http://127.0.0.1:8045/v1"`
	VisionKey   string        `help:"API key for the vision service." env:"NUTRISCAN_VISION_KEY"`
	VisionModel string        `help:"Vision model name." env:"NUTRISCAN_VISION_MODEL" default:"qwen3-vl-plus"`
	BackendURL  string        `help:"Base URL of the account backend." env:"NUTRISCAN_BACKEND_URL" default:"https://wangzhibiao-nutriscan-api.hf.space"`
	Timeout     time.Duration `help:"HTTP timeout for network calls; 0 keeps the transport default." env:"NUTRISCAN_TIMEOUT" default:"0s"`

	Init    system.InitCmd   `cmd:"" help:"Initialize nutriscan storage."`
	Doctor  system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Analyze meals.AnalyzeCmd `cmd:"" help:"Estimate a meal from a photo, correct it and log it."`
	Day     meals.DayCmd     `cmd:"" help:"Show the meals logged on a day."`
	Report  meals.ReportCmd  `cmd:"" help:"Summarize the last week or month."`
	Meals   struct {
		List   meals.ListCmd   `cmd:"" help:"List logged meals, newest first." default:"1"`
		Delete meals.DeleteCmd `cmd:"" help:"Delete a meal."`
	} `cmd:"" help:"Manage logged meals."`
	Stats struct {
		Show meals.StatsShowCmd   `cmd:"" help:"Show today's totals against goals." default:"1"`
		Set  accounts.StatsSetCmd `cmd:"" help:"Update goals on your account."`
	} `cmd:"" help:"Show or update stats."`
	Login    accounts.LoginCmd    `cmd:"" help:"Log in and replace the local diary with your account's."`
	Register accounts.RegisterCmd `cmd:"" help:"Create an account and log in."`
	Logout   accounts.LogoutCmd   `cmd:"" help:"Log out. The local diary is kept."`
	Whoami   accounts.WhoamiCmd   `cmd:"" help:"Show the logged-in account."`
	Sync     accounts.SyncCmd     `cmd:"" help:"Replace the local diary with your account's."`
	Profile  struct {
		Show accounts.ProfileShowCmd `cmd:"" help:"Show your profile." default:"1"`
		Set  accounts.ProfileSetCmd  `cmd:"" help:"Update your profile."`
	} `cmd:"" help:"Show or update your account profile."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage local diary backups."`
}

// Commands that manage storage or the session themselves.
var (
	skipOpen = map[string]bool{"init": true, "doctor": true, "backup": true}
	skipPull = map[string]bool{"login": true, "register": true, "logout": true, "sync": true, "whoami": true}
)

func newParser(c *CLI, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name(constants.AppName),
		kong.Description("Photograph a meal, get a nutrition estimate, and keep a local-first food diary"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	}, opts...)
	return kong.New(c, opts...)
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	var c CLI
	parser, err := newParser(&c)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := run(&c, kctx, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, nserrors.Format(err))
		os.Exit(1)
	}
}

func run(c *CLI, kctx *kong.Context, out io.Writer) error {
	store, err := storage.Open(c.Config)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := logger.Init(logger.Config{Debug: c.Debug, ConfigDir: configDir(store)}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	visionClient := vision.New(vision.Config{
		BaseURL: c.VisionURL,
		APIKey:  c.VisionKey,
		Model:   c.VisionModel,
		Timeout: c.Timeout,
	})
	appCtx := &cli.Context{
		Ctx:       ctx,
		Store:     store,
		Vision:    visionClient,
		Corrector: vision.NewCorrector(visionClient),
		Account:   account.New(account.Config{BaseURL: c.BackendURL, Timeout: c.Timeout}),
		Prompt:    cli.FormPrompter{},
		Out:       out,
	}

	command := strings.Fields(kctx.Command())[0]
	if !skipOpen[command] {
		if err := appCtx.Open(syncer.WithPushTimeout(c.Timeout)); err != nil {
			return cli.WithHint(err)
		}
		defer appCtx.Sync.Wait()

		if !c.Offline && !skipPull[command] && appCtx.Sync.Session().Authenticated() {
			if _, err := appCtx.Sync.Reconcile(ctx); err != nil {
				fmt.Fprintln(os.Stderr, "⚠ Could not reach your account; showing local data.")
			}
		}
	}

	return kctx.Run(appCtx)
}

// configDir is where logs live: next to the SQLite file, or the default
// config directory for PostgreSQL.
func configDir(store storage.Provider) string {
	if storage.IsPostgres(store.GetConfigPath()) {
		path, err := storage.ExpandHome(constants.DefaultConfigPath)
		if err != nil {
			return "."
		}
		return filepath.Dir(path)
	}
	return filepath.Dir(store.GetConfigPath())
}
