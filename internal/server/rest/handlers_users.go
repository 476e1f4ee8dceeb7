package rest

import (
	"net/http"

	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/gin-gonic/gin"
)

type userRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	UserName string `json:"userName" binding:"required,min=3,max=64"`
}

func (s *Server) getMe(c *gin.Context) {
	user, err := s.deps.Users.GetByID(c.Request.Context(), principal(c).UserID())
	if err != nil {
		s.fail(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) updateMe(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.deps.Users.Update(c.Request.Context(), models.UpdateUserDTO{
		ID:       principal(c).UserID(),
		Email:    req.Email,
		UserName: req.UserName,
	})
	if err != nil {
		s.fail(c, "update user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) deleteMe(c *gin.Context) {
	if err := s.deps.Users.Delete(c.Request.Context(), principal(c).UserID()); err != nil {
		s.fail(c, "delete user", err)
		return
	}
	c.Status(http.StatusNoContent)
}
