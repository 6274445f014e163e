// Package syncer mirrors local diary mutations to the account backend and
// pulls remote state after login.
//
// Local state is authoritative while a session lasts. Pushes are detached
// and best-effort: a failed push is logged and dropped, never retried, and
// never undoes the local mutation. Remote state wins only in Reconcile,
// which replaces local meals and stats wholesale.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/nutriscan/internal/account"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/logger"
	"github.com/julianstephens/nutriscan/internal/models"
	"github.com/julianstephens/nutriscan/internal/session"
)

// Remote is the subset of the account backend the coordinator uses.
type Remote interface {
	Login(ctx context.Context, username, password string) (session.Session, error)
	Register(ctx context.Context, username, password string) (session.Session, error)
	ListMeals(ctx context.Context, s session.Session) ([]models.Meal, error)
	CreateMeal(ctx context.Context, s session.Session, meal models.Meal) (models.Meal, error)
	DeleteMeal(ctx context.Context, s session.Session, id string) error
	GetStats(ctx context.Context, s session.Session) (models.UserStats, error)
	GetProfile(ctx context.Context, s session.Session) (models.UserProfile, error)
}

// Local receives the result of a successful pull.
type Local interface {
	ReplaceAll(meals []models.Meal, stats models.UserStats) error
}

// SessionStore persists the session across runs.
type SessionStore interface {
	Save(session.Session) error
	Clear() error
}

// Pulled is the remote state fetched by PullAll.
type Pulled struct {
	Meals   []models.Meal
	Stats   models.UserStats
	Profile models.UserProfile
}

type Coordinator struct {
	remote        Remote
	local         Local
	sessions      SessionStore
	beforeReplace func() error
	pushTimeout   time.Duration

	mu      sync.RWMutex
	session session.Session

	wg sync.WaitGroup
}

type Option func(*Coordinator)

// WithSessionStore sets where Login, Register and Logout persist the session.
func WithSessionStore(store SessionStore) Option {
	return func(c *Coordinator) { c.sessions = store }
}

// WithBeforeReplace runs fn after a successful pull and before local state is
// replaced. A failing fn is logged and does not stop the replace.
func WithBeforeReplace(fn func() error) Option {
	return func(c *Coordinator) { c.beforeReplace = fn }
}

// WithPushTimeout bounds each detached push. Zero leaves pushes unbounded.
func WithPushTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.pushTimeout = d }
}

func New(remote Remote, local Local, s session.Session, opts ...Option) *Coordinator {
	c := &Coordinator{
		remote:  remote,
		local:   local,
		session: s,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Session() session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Coordinator) setSession(s session.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// PushCreate mirrors a newly added meal. It returns immediately; without a
// session it does nothing.
func (c *Coordinator) PushCreate(meal models.Meal) {
	s := c.Session()
	if !s.Authenticated() {
		return
	}
	c.detach("create meal", meal.ID, func(ctx context.Context) error {
		_, err := c.remote.CreateMeal(ctx, s, meal)
		return err
	})
}

// PushDelete mirrors a meal deletion. It returns immediately; without a
// session it does nothing.
func (c *Coordinator) PushDelete(id string) {
	s := c.Session()
	if !s.Authenticated() {
		return
	}
	c.detach("delete meal", id, func(ctx context.Context) error {
		err := c.remote.DeleteMeal(ctx, s, id)
		var se *account.StatusError
		if errors.As(err, &se) && se.Status == 404 {
			logger.Debug("Remote meal already absent", "meal_id", id)
			return nil
		}
		return err
	})
}

func (c *Coordinator) detach(op, mealID string, fn func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx := context.Background()
		if c.pushTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.pushTimeout)
			defer cancel()
		}

		if err := fn(ctx); err != nil {
			logger.Warn("Meal push failed", "op", op, "meal_id", mealID,
				"error", &nserrors.SyncError{Op: op, Err: err})
			return
		}
		logger.Debug("Meal pushed", "op", op, "meal_id", mealID)
	}()
}

// Wait blocks until every detached push has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// PullAll fetches remote meals, stats and profile concurrently. Any failure
// fails the whole pull.
func (c *Coordinator) PullAll(ctx context.Context) (Pulled, error) {
	s := c.Session()
	if !s.Authenticated() {
		return Pulled{}, nserrors.ErrNotAuthenticated
	}

	var out Pulled
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meals, err := c.remote.ListMeals(gctx, s)
		if err != nil {
			return &nserrors.SyncError{Op: "pull meals", Err: err}
		}
		out.Meals = meals
		return nil
	})
	g.Go(func() error {
		stats, err := c.remote.GetStats(gctx, s)
		if err != nil {
			return &nserrors.SyncError{Op: "pull stats", Err: err}
		}
		out.Stats = stats
		return nil
	})
	g.Go(func() error {
		profile, err := c.remote.GetProfile(gctx, s)
		if err != nil {
			return &nserrors.SyncError{Op: "pull profile", Err: err}
		}
		out.Profile = profile
		return nil
	})
	if err := g.Wait(); err != nil {
		return Pulled{}, err
	}
	if out.Meals == nil {
		out.Meals = []models.Meal{}
	}
	return out, nil
}

// Reconcile pulls remote state and replaces local meals and stats with it.
// On any pull failure local state is left untouched.
func (c *Coordinator) Reconcile(ctx context.Context) (Pulled, error) {
	pulled, err := c.PullAll(ctx)
	if err != nil {
		logger.Warn("Pull failed, keeping local data", "error", err)
		return Pulled{}, err
	}

	if c.beforeReplace != nil {
		if err := c.beforeReplace(); err != nil {
			logger.Warn("Pre-pull backup failed", "error", err)
		}
	}

	if err := c.local.ReplaceAll(pulled.Meals, pulled.Stats); err != nil {
		return Pulled{}, err
	}
	logger.Info("Local diary replaced from remote", "meals", len(pulled.Meals))
	return pulled, nil
}

// Login authenticates, stores the session and reconciles. A rejected login
// returns an AuthError and changes nothing. A failed reconcile still returns
// the new session together with the SyncError.
func (c *Coordinator) Login(ctx context.Context, username, password string) (session.Session, error) {
	return c.authenticate(ctx, c.remote.Login, username, password)
}

// Register creates an account, then behaves like Login.
func (c *Coordinator) Register(ctx context.Context, username, password string) (session.Session, error) {
	return c.authenticate(ctx, c.remote.Register, username, password)
}

func (c *Coordinator) authenticate(ctx context.Context, auth func(context.Context, string, string) (session.Session, error), username, password string) (session.Session, error) {
	s, err := auth(ctx, username, password)
	if err != nil {
		return session.Session{}, err
	}
	if c.sessions != nil {
		if err := c.sessions.Save(s); err != nil {
			return session.Session{}, err
		}
	}
	c.setSession(s)

	if _, err := c.Reconcile(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Logout forgets the session. Local meals and stats are kept.
func (c *Coordinator) Logout() error {
	c.Wait()
	if c.sessions != nil {
		if err := c.sessions.Clear(); err != nil {
			return err
		}
	}
	c.setSession(session.Session{})
	return nil
}
