package accounts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/nutriscan/internal/account"
	"github.com/julianstephens/nutriscan/internal/cli"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
)

type LoginCmd struct {
	Username string `arg:"" help:"Account username."`
	Password string `help:"Account password. Prompted for when omitted." env:"NUTRISCAN_PASSWORD"`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	password, err := passwordFor(ctx, c.Password)
	if err != nil {
		return err
	}
	s, err := ctx.Sync.Login(ctx.Ctx, c.Username, password)
	return reportAuth(ctx, "Logged in", s.Username, err)
}

type RegisterCmd struct {
	Username string `arg:"" help:"New account username."`
	Password string `help:"Account password. Prompted for when omitted." env:"NUTRISCAN_PASSWORD"`
}

func (c *RegisterCmd) Run(ctx *cli.Context) error {
	password, err := passwordFor(ctx, c.Password)
	if err != nil {
		return err
	}
	s, err := ctx.Sync.Register(ctx.Ctx, c.Username, password)
	return reportAuth(ctx, "Registered", s.Username, err)
}

func passwordFor(ctx *cli.Context, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	return ctx.Prompt.Secret("Password")
}

// reportAuth treats a failed post-login pull as a warning: the session is
// stored and the local diary is still usable.
func reportAuth(ctx *cli.Context, verb, username string, err error) error {
	switch {
	case err == nil:
		snap := ctx.Diary.Snapshot()
		ctx.Printf("✓ %s as %s. Pulled %d meal(s) from your account.\n", verb, username, len(snap.Meals))
		return nil
	case errors.Is(err, nserrors.ErrSyncFailure):
		ctx.Printf("✓ %s as %s.\n", verb, username)
		ctx.Printf("⚠ Could not pull your account data (%v). Your local diary is unchanged; run `nutriscan sync` to retry.\n", err)
		return nil
	default:
		return cli.WithHint(err)
	}
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if !ctx.Sync.Session().Authenticated() {
		ctx.Println("Not logged in.")
		return nil
	}
	if err := ctx.Sync.Logout(); err != nil {
		return err
	}
	ctx.Println("✓ Logged out. Your local diary is kept.")
	return nil
}

type SyncCmd struct{}

func (c *SyncCmd) Run(ctx *cli.Context) error {
	if !ctx.Sync.Session().Authenticated() {
		return cli.WithHint(nserrors.ErrNotAuthenticated)
	}
	pulled, err := ctx.Sync.Reconcile(ctx.Ctx)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Replaced local diary with %d meal(s) from your account.\n", len(pulled.Meals))
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	s := ctx.Sync.Session()
	if !s.Authenticated() {
		ctx.Println("Not logged in (local-only mode).")
		return nil
	}
	ctx.Printf("%s @ %s\n", s.Username, ctx.Account.BaseURL())
	return nil
}

type ProfileShowCmd struct{}

func (c *ProfileShowCmd) Run(ctx *cli.Context) error {
	p, err := ctx.Account.GetProfile(ctx.Ctx, ctx.Sync.Session())
	if err != nil {
		return cli.WithHint(err)
	}
	ctx.Println(cli.RenderProfile(p))
	return nil
}

type ProfileSetCmd struct {
	Nickname *string `help:"Display name."`
	Avatar   *string `help:"Avatar image URL."`
}

func (c *ProfileSetCmd) Run(ctx *cli.Context) error {
	u := account.ProfileUpdate{Nickname: c.Nickname, AvatarURL: c.Avatar}
	if u.Empty() {
		return fmt.Errorf("nothing to update: pass --nickname or --avatar")
	}
	if u.Nickname != nil {
		trimmed := strings.TrimSpace(*u.Nickname)
		u.Nickname = &trimmed
	}
	if err := ctx.Account.UpdateProfile(ctx.Ctx, ctx.Sync.Session(), u); err != nil {
		return cli.WithHint(err)
	}
	ctx.Println("✓ Profile updated.")
	return nil
}

type StatsSetCmd struct {
	DailyGoal *int     `help:"Daily calorie goal (kcal)." name:"daily-goal"`
	Weight    *float64 `help:"Body weight (kg)."`
}

// Run updates the remote goals only. Local stats pick the change up on the
// next pull.
func (c *StatsSetCmd) Run(ctx *cli.Context) error {
	u := account.StatsUpdate{DailyGoal: c.DailyGoal, Weight: c.Weight}
	if u.Empty() {
		return fmt.Errorf("nothing to update: pass --daily-goal or --weight")
	}
	if err := ctx.Account.UpdateStats(ctx.Ctx, ctx.Sync.Session(), u); err != nil {
		return cli.WithHint(err)
	}
	ctx.Println("✓ Goals updated on your account. Run `nutriscan sync` to refresh local stats.")
	return nil
}
