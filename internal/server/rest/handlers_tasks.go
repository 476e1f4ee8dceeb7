package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/gin-gonic/gin"
)

type taskRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	IsCompleted bool       `json:"isCompleted"`
	DueDate     *time.Time `json:"dueDate"`
}

// ownedTask loads a task and hides it unless its list belongs to userID.
func (s *Server) ownedTask(ctx context.Context, id, userID string) (*models.Task, error) {
	task, err := s.deps.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedList(ctx, task.ListID, userID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Server) getTasks(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := s.ownedList(ctx, c.Param("id"), principal(c).UserID())
	if err != nil {
		s.fail(c, "get tasks", err)
		return
	}

	items, err := s.deps.Tasks.GetAll(ctx, list.ID)
	if err != nil {
		s.fail(c, "get tasks", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) addTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	list, err := s.ownedList(ctx, c.Param("id"), principal(c).UserID())
	if err != nil {
		s.fail(c, "add task", err)
		return
	}

	task, err := s.deps.Tasks.Add(ctx, models.AddTaskDTO{
		ListID:      list.ID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		s.fail(c, "add task", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.ownedTask(c.Request.Context(), c.Param("id"), principal(c).UserID())
	if err != nil {
		s.fail(c, "get task", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) updateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := s.ownedTask(ctx, c.Param("id"), principal(c).UserID()); err != nil {
		s.fail(c, "update task", err)
		return
	}

	task, err := s.deps.Tasks.Update(ctx, models.UpdateTaskDTO{
		ID:          c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
		DueDate:     req.DueDate,
	})
	if err != nil {
		s.fail(c, "update task", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.ownedTask(ctx, c.Param("id"), principal(c).UserID()); err != nil {
		s.fail(c, "delete task", err)
		return
	}

	if err := s.deps.Tasks.Delete(ctx, c.Param("id")); err != nil {
		s.fail(c, "delete task", err)
		return
	}
	c.Status(http.StatusNoContent)
}
