package rest

import (
	"net/http"

	"github.com/dmitrijs2005/todolist/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := s.deps.Auth.Register(c.Request.Context(), req)
	if err != nil {
		s.fail(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := s.deps.Auth.Login(c.Request.Context(), req)
	if err != nil {
		s.fail(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) refresh(c *gin.Context) {
	var req services.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := s.deps.Auth.Refresh(c.Request.Context(), req)
	if err != nil {
		s.fail(c, "refresh", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.deps.Auth.LogoutUser(c.Request.Context(), principal(c).UserID()); err != nil {
		s.fail(c, "logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}
