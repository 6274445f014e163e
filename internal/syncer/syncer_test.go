package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/nutriscan/internal/account"
	"github.com/julianstephens/nutriscan/internal/diary"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/logger"
	"github.com/julianstephens/nutriscan/internal/models"
	"github.com/julianstephens/nutriscan/internal/session"
)

var alice = session.Session{Token: "tok-alice", Username: "alice"}

// fakeBackend is an in-memory account backend served over httptest.
type fakeBackend struct {
	mu       sync.Mutex
	meals    []map[string]interface{}
	failWith int
	failPath string
	requests []string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)

	if b.failWith != 0 && (b.failPath == "" || strings.HasPrefix(r.URL.Path, b.failPath)) {
		w.WriteHeader(b.failWith)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "boom"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/login" || r.URL.Path == "/register":
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "wrong password"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-alice", "username": creds["username"]})
	case r.URL.Path == "/meals" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(b.meals)
	case r.URL.Path == "/meals" && r.Method == http.MethodPost:
		var m map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&m)
		m["id"] = "srv-1"
		b.meals = append(b.meals, m)
		_ = json.NewEncoder(w).Encode(m)
	case strings.HasPrefix(r.URL.Path, "/meals/") && r.Method == http.MethodDelete:
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	case r.URL.Path == "/stats":
		_, _ = w.Write([]byte(`{"dailyGoal":1800,"consumed":610,"macros":{"protein":{"current":24,"goal":120},"carbs":{"current":80,"goal":200},"fat":{"current":20,"goal":60}},"streak":4,"weight":70}`))
	case r.URL.Path == "/profile":
		_, _ = w.Write([]byte(`{"username":"alice","nickname":"Al","avatarUrl":null}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *fakeBackend) seen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

type memSessions struct{ saved *session.Session }

func (m *memSessions) Save(s session.Session) error { m.saved = &s; return nil }
func (m *memSessions) Clear() error                 { m.saved = nil; return nil }

func setup(t *testing.T, b *fakeBackend, s session.Session, opts ...Option) (*Coordinator, *diary.Store) {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	store := diary.New(models.Snapshot{Meals: models.SampleMeals(), Stats: models.DefaultStats()}, nil)
	remote := account.New(account.Config{BaseURL: srv.URL})
	return New(remote, store, s, opts...), store
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.InitWriter(&buf, log.DebugLevel)
	t.Cleanup(func() { logger.Logger = nil })
	return &buf
}

func TestPushWithoutSessionIsNoop(t *testing.T) {
	b := &fakeBackend{}
	c, _ := setup(t, b, session.Session{})

	c.PushCreate(models.SampleMeals()[0])
	c.PushDelete("1")
	c.Wait()

	assert.Empty(t, b.seen())
}

func TestPushCreateAndDelete(t *testing.T) {
	b := &fakeBackend{}
	c, _ := setup(t, b, alice)

	c.PushCreate(models.SampleMeals()[0])
	c.PushDelete("srv-1")
	c.Wait()

	assert.ElementsMatch(t, []string{"POST /meals", "DELETE /meals/srv-1"}, b.seen())
}

func TestPushFailureIsLoggedAndSwallowed(t *testing.T) {
	logs := captureLogs(t)
	b := &fakeBackend{failWith: http.StatusInternalServerError}
	c, store := setup(t, b, alice)

	meal, err := store.AddMeal(models.AnalysisResult{Name: "Toast", Calories: 200}, "")
	require.NoError(t, err)
	before := store.Snapshot()

	c.PushCreate(meal)
	c.Wait()

	assert.Equal(t, before, store.Snapshot())
	assert.Contains(t, logs.String(), "Meal push failed")
	assert.Contains(t, logs.String(), meal.ID)
}

func TestPushDeleteMissingRemoteIsQuiet(t *testing.T) {
	logs := captureLogs(t)
	b := &fakeBackend{failWith: http.StatusNotFound, failPath: "/meals/"}
	c, _ := setup(t, b, alice)

	c.PushDelete("1760600000000")
	c.Wait()

	assert.NotContains(t, logs.String(), "Meal push failed")
}

func TestPullAll(t *testing.T) {
	b := &fakeBackend{meals: []map[string]interface{}{{
		"id": "7", "name": "Ramen", "type": "dinner", "time": "19:05", "calories": 610,
		"macros": map[string]float64{"protein": 24, "carbs": 80, "fat": 20}, "createdAt": "2026-10-15",
	}}}
	c, _ := setup(t, b, alice)

	pulled, err := c.PullAll(context.Background())
	require.NoError(t, err)
	require.Len(t, pulled.Meals, 1)
	assert.Equal(t, "Ramen", pulled.Meals[0].Name)
	assert.Equal(t, 1800.0, pulled.Stats.DailyGoal)
	assert.Equal(t, "Al", pulled.Profile.Nickname)
}

func TestPullAllRequiresSession(t *testing.T) {
	c, _ := setup(t, &fakeBackend{}, session.Session{})
	_, err := c.PullAll(context.Background())
	assert.True(t, errors.Is(err, nserrors.ErrNotAuthenticated))
}

func TestReconcileFailureLeavesLocalUntouched(t *testing.T) {
	captureLogs(t)
	b := &fakeBackend{failWith: http.StatusBadGateway, failPath: "/stats"}
	c, store := setup(t, b, alice)
	before := store.Snapshot()

	_, err := c.Reconcile(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, nserrors.ErrSyncFailure))
	assert.Equal(t, before, store.Snapshot())
}

func TestLoginAuthority(t *testing.T) {
	b := &fakeBackend{meals: []map[string]interface{}{{
		"id": "7", "name": "Ramen", "type": "dinner", "time": "19:05", "calories": 610,
		"macros": map[string]float64{"protein": 24, "carbs": 80, "fat": 20}, "createdAt": "2026-10-15",
	}}}
	sessions := &memSessions{}
	backupCalls := 0
	c, store := setup(t, b, session.Session{},
		WithSessionStore(sessions),
		WithBeforeReplace(func() error { backupCalls++; return nil }))

	// Added while logged out, never pushed.
	_, err := store.AddMeal(models.AnalysisResult{Name: "Local Only", Calories: 300}, "")
	require.NoError(t, err)

	s, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, alice, s)
	assert.Equal(t, alice, c.Session())
	require.NotNil(t, sessions.saved)
	assert.Equal(t, alice, *sessions.saved)
	assert.Equal(t, 1, backupCalls)

	snap := store.Snapshot()
	require.Len(t, snap.Meals, 1)
	assert.Equal(t, models.Meal{
		ID:        "7",
		Name:      "Ramen",
		Type:      models.MealDinner,
		TimeOfDay: "19:05",
		Calories:  610,
		Macros:    models.MacroBreakdown{Protein: 24, Carbs: 80, Fat: 20},
		DayBucket: "2026-10-15",
	}, snap.Meals[0])
	assert.Equal(t, 610.0, snap.Stats.Consumed)
	assert.Equal(t, 1800.0, snap.Stats.DailyGoal)
}

func TestLoginRejected(t *testing.T) {
	sessions := &memSessions{}
	c, store := setup(t, &fakeBackend{}, session.Session{}, WithSessionStore(sessions))
	before := store.Snapshot()

	_, err := c.Login(context.Background(), "alice", "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nserrors.ErrAuthFailure))
	assert.False(t, c.Session().Authenticated())
	assert.Nil(t, sessions.saved)
	assert.Equal(t, before, store.Snapshot())
}

func TestLoginWithFailedPullKeepsSession(t *testing.T) {
	captureLogs(t)
	b := &fakeBackend{failWith: http.StatusInternalServerError, failPath: "/meals"}
	c, store := setup(t, b, session.Session{}, WithSessionStore(&memSessions{}))
	before := store.Snapshot()

	s, err := c.Register(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nserrors.ErrSyncFailure))
	assert.True(t, s.Authenticated())
	assert.True(t, c.Session().Authenticated())
	assert.Equal(t, before, store.Snapshot())
}

func TestLogoutKeepsLocalData(t *testing.T) {
	sessions := &memSessions{saved: &alice}
	c, store := setup(t, &fakeBackend{}, alice, WithSessionStore(sessions))
	before := store.Snapshot()

	require.NoError(t, c.Logout())
	assert.False(t, c.Session().Authenticated())
	assert.Nil(t, sessions.saved)
	assert.Equal(t, before, store.Snapshot())
}
