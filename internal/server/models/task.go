package models

import "time"

// Task references its list by id only.
type Task struct {
	ID          string     `json:"id"`
	ListID      string     `json:"listId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"isCompleted"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type AddTaskDTO struct {
	ListID      string
	Title       string
	Description string
	DueDate     *time.Time
}

type UpdateTaskDTO struct {
	ID          string
	Title       string
	Description string
	IsCompleted bool
	DueDate     *time.Time
}
