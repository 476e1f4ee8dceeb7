package rest

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/gin-gonic/gin"
)

type listRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// ownedList loads a list and hides it unless it belongs to userID.
func (s *Server) ownedList(ctx context.Context, id, userID string) (*models.TodoList, error) {
	list, err := s.deps.Lists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if list.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return list, nil
}

func (s *Server) getLists(c *gin.Context) {
	items, err := s.deps.Lists.GetAll(c.Request.Context(), principal(c).UserID())
	if err != nil {
		s.fail(c, "get lists", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) addList(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, err := s.deps.Lists.Add(c.Request.Context(), models.AddListDTO{
		UserID:      principal(c).UserID(),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		s.fail(c, "add list", err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// getList returns the list, or the list with its tasks when ?include=tasks.
func (s *Server) getList(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := s.ownedList(ctx, c.Param("id"), principal(c).UserID())
	if err != nil {
		s.fail(c, "get list", err)
		return
	}

	if c.Query("include") != "tasks" {
		c.JSON(http.StatusOK, list)
		return
	}

	nested, err := s.deps.Lists.GetWithTasks(ctx, list.ID)
	if err != nil {
		s.fail(c, "get list with tasks", err)
		return
	}
	c.JSON(http.StatusOK, nested)
}

func (s *Server) updateList(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := s.ownedList(ctx, c.Param("id"), principal(c).UserID()); err != nil {
		s.fail(c, "update list", err)
		return
	}

	list, err := s.deps.Lists.Update(ctx, models.UpdateListDTO{
		ID:          c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		s.fail(c, "update list", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) deleteList(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.ownedList(ctx, c.Param("id"), principal(c).UserID()); err != nil {
		s.fail(c, "delete list", err)
		return
	}

	if err := s.deps.Lists.Delete(ctx, c.Param("id")); err != nil {
		s.fail(c, "delete list", err)
		return
	}
	c.Status(http.StatusNoContent)
}
