package cachedrepo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/cache"
	"github.com/dmitrijs2005/todolist/internal/server/cache/cachetest"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sqlFixture struct {
	users *Users
	lists *Lists
	tasks *Tasks
}

func newSQLFixture(t *testing.T, provider cache.Provider) *sqlFixture {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, dialect, err := dbx.Open(ctx, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := repomanager.NewSQLRepositoryManager(dialect)
	require.NoError(t, rm.RunMigrations(ctx, db))

	o := Options{TTL: time.Minute, Logger: logging.NewNop()}
	taskRepo := NewTasks(rm.Tasks(db), provider, o)
	listRepo := NewLists(rm.Lists(db), taskRepo, provider, o)
	userRepo := NewUsers(rm.Users(db), listRepo, provider, o)
	return &sqlFixture{users: userRepo, lists: listRepo, tasks: taskRepo}
}

func TestSQLRoundTrip_AddedEqualsReadAfterEviction(t *testing.T) {
	ctx := context.Background()
	fake := cachetest.New()
	f := newSQLFixture(t, fake)

	u, err := f.users.Add(ctx, models.AddUserDTO{Email: "alice@example.com", UserName: "alice", PasswordHash: []byte("hash")})
	require.NoError(t, err)
	l, err := f.lists.Add(ctx, models.AddListDTO{UserID: u.ID, Title: "Groceries"})
	require.NoError(t, err)
	due := time.Now().Add(48 * time.Hour)
	task, err := f.tasks.Add(ctx, models.AddTaskDTO{ListID: l.ID, Title: "Milk", DueDate: &due})
	require.NoError(t, err)

	fake.Evict()

	gotUser, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, gotUser)

	gotList, err := f.lists.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l, gotList)

	gotTask, err := f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, gotTask)

	// and again from the cache
	gotTask, err = f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, gotTask)

	updated, err := f.lists.Update(ctx, models.UpdateListDTO{ID: l.ID, Title: "Weekly groceries"})
	require.NoError(t, err)
	fake.Evict()
	gotList, err = f.lists.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, gotList)
}

func TestSQLBreaker_UpdateDuringOutageIsNotLostAfterRecovery(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	breaker := cache.WithBreaker(cache.NewRedis(client, cache.RedisOptions{}),
		cache.BreakerOptions{Name: "redis", ConsecutiveFailures: 5, OpenTimeout: 50 * time.Millisecond}, logging.NewNop())
	f := newSQLFixture(t, breaker)

	u, err := f.users.Add(ctx, models.AddUserDTO{Email: "bob@example.com", UserName: "bob", PasswordHash: []byte("hash")})
	require.NoError(t, err)
	l, err := f.lists.Add(ctx, models.AddListDTO{UserID: u.ID, Title: "old"})
	require.NoError(t, err)
	_, err = f.lists.GetByID(ctx, l.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.ListKey(l.ID)))

	mr.SetError("ERR injected failure")
	for i := 0; i < 5; i++ {
		_, err := breaker.Get(ctx, "User-unrelated")
		require.ErrorIs(t, err, cache.ErrUnavailable)
	}
	require.Equal(t, gobreaker.StateOpen, breaker.State())
	mr.SetError("")

	_, err = f.lists.Update(ctx, models.UpdateListDTO{ID: l.ID, Title: "new"})
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	got, err := f.lists.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, gobreaker.StateClosed, breaker.State())

	got, err = f.lists.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
}
