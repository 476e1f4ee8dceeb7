package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/lists"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Lists(db dbx.DBTX) lists.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
