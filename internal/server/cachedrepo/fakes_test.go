package cachedrepo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/models"
)

// memDB is a source of truth held in memory. It mirrors the relational
// schema: deleting a user removes their lists, deleting a list removes its
// tasks. Every returned value is a copy.
type memDB struct {
	mu    sync.Mutex
	seq   int
	now   time.Time
	users map[string]*models.User
	lists map[string]*models.TodoList
	tasks map[string]*models.Task
	order []string

	calls map[string]int
	// orphanLists makes list writes return entities without an owner.
	orphanLists bool
}

func newMemDB() *memDB {
	return &memDB{
		now:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		users: map[string]*models.User{},
		lists: map[string]*models.TodoList{},
		tasks: map[string]*models.Task{},
		calls: map[string]int{},
	}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	db.now = db.now.Add(time.Second)
	id := fmt.Sprintf("%s-%d", prefix, db.seq)
	db.order = append(db.order, id)
	return id
}

func (db *memDB) count(op string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls[op]
}

func (db *memDB) track(op string) {
	db.calls[op]++
}

type memUsers struct{ db *memDB }

func (r memUsers) Add(_ context.Context, dto models.AddUserDTO) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("users.Add")
	for _, u := range r.db.users {
		if u.Email == dto.Email || u.UserName == dto.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	u := &models.User{ID: r.db.nextID("u"), Email: dto.Email, UserName: dto.UserName, PasswordHash: dto.PasswordHash, CreatedAt: r.db.now}
	r.db.users[u.ID] = u
	c := *u
	return &c, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("users.GetByID")
	u, ok := r.db.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) find(match func(*models.User) bool) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r memUsers) GetByUserName(_ context.Context, name string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.UserName == name })
}

func (r memUsers) Update(_ context.Context, dto models.UpdateUserDTO) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("users.Update")
	u, ok := r.db.users[dto.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Email, u.UserName = dto.Email, dto.UserName
	c := *u
	return &c, nil
}

func (r memUsers) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("users.Delete")
	if _, ok := r.db.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.db.users, id)
	for lid, l := range r.db.lists {
		if l.UserID == id {
			r.db.deleteList(lid)
		}
	}
	return nil
}

func (db *memDB) deleteList(id string) {
	delete(db.lists, id)
	for tid, t := range db.tasks {
		if t.ListID == id {
			delete(db.tasks, tid)
		}
	}
}

type memLists struct{ db *memDB }

func (r memLists) GetAll(_ context.Context, userID string) ([]*models.TodoList, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("lists.GetAll")
	out := []*models.TodoList{}
	for _, id := range r.db.order {
		if l, ok := r.db.lists[id]; ok && l.UserID == userID {
			c := *l
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memLists) GetByID(_ context.Context, id string) (*models.TodoList, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("lists.GetByID")
	l, ok := r.db.lists[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *l
	if r.db.orphanLists {
		c.UserID = ""
	}
	return &c, nil
}

func (r memLists) Add(_ context.Context, dto models.AddListDTO) (*models.TodoList, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("lists.Add")
	if _, ok := r.db.users[dto.UserID]; !ok && !r.db.orphanLists {
		return nil, errors.New("foreign key violation")
	}
	l := &models.TodoList{ID: r.db.nextID("l"), UserID: dto.UserID, Title: dto.Title, Description: dto.Description, CreatedAt: r.db.now, UpdatedAt: r.db.now}
	r.db.lists[l.ID] = l
	c := *l
	if r.db.orphanLists {
		c.UserID = ""
	}
	return &c, nil
}

func (r memLists) Update(_ context.Context, dto models.UpdateListDTO) (*models.TodoList, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("lists.Update")
	l, ok := r.db.lists[dto.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	r.db.now = r.db.now.Add(time.Second)
	l.Title, l.Description, l.UpdatedAt = dto.Title, dto.Description, r.db.now
	c := *l
	if r.db.orphanLists {
		c.UserID = ""
	}
	return &c, nil
}

func (r memLists) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("lists.Delete")
	if _, ok := r.db.lists[id]; !ok {
		return common.ErrorNotFound
	}
	r.db.deleteList(id)
	return nil
}

type memTasks struct{ db *memDB }

func (r memTasks) GetAll(_ context.Context, listID string) ([]*models.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("tasks.GetAll")
	out := []*models.Task{}
	for _, id := range r.db.order {
		if t, ok := r.db.tasks[id]; ok && t.ListID == listID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memTasks) GetByID(_ context.Context, id string) (*models.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("tasks.GetByID")
	t, ok := r.db.tasks[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r memTasks) Add(_ context.Context, dto models.AddTaskDTO) (*models.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("tasks.Add")
	if _, ok := r.db.lists[dto.ListID]; !ok {
		return nil, errors.New("foreign key violation")
	}
	t := &models.Task{ID: r.db.nextID("t"), ListID: dto.ListID, Title: dto.Title, Description: dto.Description, DueDate: dto.DueDate, CreatedAt: r.db.now, UpdatedAt: r.db.now}
	r.db.tasks[t.ID] = t
	c := *t
	return &c, nil
}

func (r memTasks) Update(_ context.Context, dto models.UpdateTaskDTO) (*models.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("tasks.Update")
	t, ok := r.db.tasks[dto.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	r.db.now = r.db.now.Add(time.Second)
	t.Title, t.Description, t.IsCompleted, t.DueDate, t.UpdatedAt = dto.Title, dto.Description, dto.IsCompleted, dto.DueDate, r.db.now
	c := *t
	return &c, nil
}

func (r memTasks) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.track("tasks.Delete")
	if _, ok := r.db.tasks[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.db.tasks, id)
	return nil
}
