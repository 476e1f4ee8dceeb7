package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/lists"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db := newDB(t)
	var m RepositoryManager = NewSQLRepositoryManager(dbx.DialectPostgres)

	var _ users.Repository = m.Users(db)
	var _ lists.Repository = m.Lists(db)
	var _ tasks.Repository = m.Tasks(db)
	var _ refreshtokens.Repository = m.RefreshTokens(db)

	assert.NotNil(t, m.Users(db))
	assert.NotNil(t, m.Lists(db))
	assert.NotNil(t, m.Tasks(db))
	assert.NotNil(t, m.RefreshTokens(db))
}

func TestRunMigrations_Seam(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	t.Run("success", func(t *testing.T) {
		gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
			if dir != "." {
				return errors.New("unexpected dir")
			}
			return nil
		}
		require.NoError(t, NewSQLRepositoryManager(dbx.DialectPostgres).RunMigrations(context.Background(), newDB(t)))
	})

	t.Run("error", func(t *testing.T) {
		gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
			return errors.New("boom")
		}
		err := NewSQLRepositoryManager(dbx.DialectPostgres).RunMigrations(context.Background(), newDB(t))
		require.EqualError(t, err, "boom")
	})

	t.Run("unknown dialect", func(t *testing.T) {
		gooseUpContext = orig
		err := NewSQLRepositoryManager(dbx.Dialect("oracle")).RunMigrations(context.Background(), newDB(t))
		require.Error(t, err)
	})
}

// The SQL is shared by both dialects, so running it for real against SQLite
// catches portability mistakes sqlmock cannot.
func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := dbx.Open(ctx, "file:repomanager_roundtrip?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := NewSQLRepositoryManager(dialect)
	require.NoError(t, m.RunMigrations(ctx, db))

	u, err := m.Users(db).Add(ctx, models.AddUserDTO{Email: "alice@example.com", UserName: "alice", PasswordHash: []byte("h")})
	require.NoError(t, err)

	_, err = m.Users(db).Add(ctx, models.AddUserDTO{Email: "alice@example.com", UserName: "other", PasswordHash: []byte("h")})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)

	l, err := m.Lists(db).Add(ctx, models.AddListDTO{UserID: u.ID, Title: "Groceries"})
	require.NoError(t, err)

	due := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	task, err := m.Tasks(db).Add(ctx, models.AddTaskDTO{ListID: l.ID, Title: "Milk", DueDate: &due})
	require.NoError(t, err)

	got, err := m.Tasks(db).GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))

	updated, err := m.Tasks(db).Update(ctx, models.UpdateTaskDTO{ID: task.ID, Title: "Oat milk", IsCompleted: true})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	assert.Nil(t, updated.DueDate)

	all, err := m.Lists(db).GetAll(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, l.ID, all[0].ID)

	// refresh tokens: one row per user, rotation is a compare-and-swap
	now := time.Now().UTC()
	rt := m.RefreshTokens(db)
	require.NoError(t, rt.Upsert(ctx, &models.RefreshToken{UserID: u.ID, Token: "first", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, rt.Upsert(ctx, &models.RefreshToken{UserID: u.ID, Token: "second", ExpiresAt: now.Add(time.Hour)}))

	_, err = rt.FindByToken(ctx, "first")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, rt.Rotate(ctx, "second", "third", now.Add(2*time.Hour), now))
	require.ErrorIs(t, rt.Rotate(ctx, "second", "fourth", now.Add(2*time.Hour), now), common.ErrorNotFound)

	// deleting the user cascades to lists, tasks and the refresh token
	require.NoError(t, m.Users(db).Delete(ctx, u.ID))

	_, err = m.Lists(db).GetByID(ctx, l.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = m.Tasks(db).GetByID(ctx, task.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = rt.FindByToken(ctx, "third")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
