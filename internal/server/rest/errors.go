package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, "refresh token expired"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func abortWithError(c *gin.Context, err error) {
	code, msg := statusFor(err)
	c.AbortWithStatusJSON(code, errorResponse{Error: msg})
}

// fail writes the mapped error response, logging anything that is not a
// client error.
func (s *Server) fail(c *gin.Context, op string, err error) {
	code, _ := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "op", op, "error", err)
	}
	abortWithError(c, err)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}
