package models

import "time"

// TodoList belongs to exactly one user; UserID never changes after creation.
type TodoList struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListWithTasks is the nested read projection of a list.
type ListWithTasks struct {
	TodoList
	Tasks []*Task `json:"tasks"`
}

type AddListDTO struct {
	UserID      string
	Title       string
	Description string
}

type UpdateListDTO struct {
	ID          string
	Title       string
	Description string
}
