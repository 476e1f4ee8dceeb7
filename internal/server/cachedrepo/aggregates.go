package cachedrepo

import (
	"context"

	"github.com/dmitrijs2005/todolist/internal/server/cache"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/lists"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/users"
)

type (
	Users = Repository[models.User, models.AddUserDTO, models.UpdateUserDTO]
	Tasks = Repository[models.Task, models.AddTaskDTO, models.UpdateTaskDTO]
)

// Lists adds the nested list-with-tasks read to the list repository.
type Lists struct {
	*Repository[models.TodoList, models.AddListDTO, models.UpdateListDTO]
	tasks *Tasks
}

// NewTasks caches Task-{id} and List-{listId}-Tasks.
func NewTasks(source tasks.Repository, provider cache.Provider, opts Options) *Tasks {
	return New[models.Task, models.AddTaskDTO, models.UpdateTaskDTO](source, source, Scheme[models.Task]{
		Aggregate:     "Tasks",
		ID:            func(t *models.Task) string { return t.ID },
		EntityKey:     cache.TaskKey,
		CollectionKey: cache.ListTasksKey,
		Owner:         func(t *models.Task) string { return t.ListID },
	}, provider, opts)
}

// NewLists caches List-{id} and User-{userId}-Lists. Deleting a list also
// drops its task collection and every task key in it.
func NewLists(source lists.Repository, taskRepo *Tasks, provider cache.Provider, opts Options) *Lists {
	scheme := Scheme[models.TodoList]{
		Aggregate:     "Lists",
		ID:            func(l *models.TodoList) string { return l.ID },
		EntityKey:     cache.ListKey,
		CollectionKey: cache.UserListsKey,
		Owner:         func(l *models.TodoList) string { return l.UserID },
		Cascade: func(ctx context.Context, l *models.TodoList) ([]string, error) {
			return listCascade(ctx, taskRepo, l.ID)
		},
	}

	return &Lists{
		Repository: New[models.TodoList, models.AddListDTO, models.UpdateListDTO](source, source, scheme, provider, opts),
		tasks:      taskRepo,
	}
}

// NewUsers caches User-{id}. Password hashes are stripped from every value
// it returns or caches. Deleting a user drops all of the user's list and
// task keys.
func NewUsers(source users.Repository, listRepo *Lists, provider cache.Provider, opts Options) *Users {
	return New[models.User, models.AddUserDTO, models.UpdateUserDTO](publicUsers{source}, nil, Scheme[models.User]{
		Aggregate: "Users",
		ID:        func(u *models.User) string { return u.ID },
		EntityKey: cache.UserKey,
		Cascade: func(ctx context.Context, u *models.User) ([]string, error) {
			owned, err := listRepo.collection.GetAll(ctx, u.ID)
			if err != nil {
				return nil, err
			}
			keys := []string{cache.UserListsKey(u.ID)}
			for _, l := range owned {
				keys = append(keys, cache.ListKey(l.ID))
				sub, err := listCascade(ctx, listRepo.tasks, l.ID)
				if err != nil {
					return nil, err
				}
				keys = append(keys, sub...)
			}
			return keys, nil
		},
	}, provider, opts)
}

// GetWithTasks assembles a list and its tasks from List-{id} and
// List-{id}-Tasks.
func (l *Lists) GetWithTasks(ctx context.Context, id string) (*models.ListWithTasks, error) {
	list, err := l.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := l.tasks.GetAll(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ListWithTasks{TodoList: *list, Tasks: items}, nil
}

func listCascade(ctx context.Context, taskRepo *Tasks, listID string) ([]string, error) {
	children, err := taskRepo.collection.GetAll(ctx, listID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(children)+1)
	keys = append(keys, cache.ListTasksKey(listID))
	for _, t := range children {
		keys = append(keys, cache.TaskKey(t.ID))
	}
	return keys, nil
}

type publicUsers struct {
	users.Repository
}

func redact(u *models.User, err error) (*models.User, error) {
	if u != nil {
		u.PasswordHash = nil
	}
	return u, err
}

func (p publicUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return redact(p.Repository.GetByID(ctx, id))
}

func (p publicUsers) Add(ctx context.Context, dto models.AddUserDTO) (*models.User, error) {
	return redact(p.Repository.Add(ctx, dto))
}

func (p publicUsers) Update(ctx context.Context, dto models.UpdateUserDTO) (*models.User, error) {
	return redact(p.Repository.Update(ctx, dto))
}
