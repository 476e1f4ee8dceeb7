// Package rest exposes the todolist API over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Authenticator is the part of services.AuthService used by the handlers.
type Authenticator interface {
	Register(ctx context.Context, req services.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req services.LoginRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, req services.RefreshRequest) (*models.AuthResponse, error)
	LogoutUser(ctx context.Context, userID string) error
}

type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, dto models.UpdateUserDTO) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type ListStore interface {
	GetAll(ctx context.Context, userID string) ([]*models.TodoList, error)
	GetByID(ctx context.Context, id string) (*models.TodoList, error)
	GetWithTasks(ctx context.Context, id string) (*models.ListWithTasks, error)
	Add(ctx context.Context, dto models.AddListDTO) (*models.TodoList, error)
	Update(ctx context.Context, dto models.UpdateListDTO) (*models.TodoList, error)
	Delete(ctx context.Context, id string) error
}

type TaskStore interface {
	GetAll(ctx context.Context, listID string) ([]*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Add(ctx context.Context, dto models.AddTaskDTO) (*models.Task, error)
	Update(ctx context.Context, dto models.UpdateTaskDTO) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

// Deps groups the collaborators of Server.
type Deps struct {
	Auth   Authenticator
	Tokens TokenValidator
	Users  UserStore
	Lists  ListStore
	Tasks  TaskStore
}

type Server struct {
	address         string
	shutdownTimeout time.Duration
	deps            Deps
	logger          logging.Logger
	router          *gin.Engine
}

func NewServer(address string, shutdownTimeout time.Duration, l logging.Logger, deps Deps) *Server {
	s := &Server{
		address:         address,
		shutdownTimeout: shutdownTimeout,
		deps:            deps,
		logger:          l.With("module", "rest_server"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.POST("/refresh", s.refresh)
	authGroup.POST("/logout", s.requireAuth(), s.logout)

	secured := api.Group("", s.requireAuth())

	secured.GET("/users/me", s.getMe)
	secured.PUT("/users/me", s.updateMe)
	secured.DELETE("/users/me", s.deleteMe)

	secured.GET("/lists", s.getLists)
	secured.POST("/lists", s.addList)
	secured.GET("/lists/:id", s.getList)
	secured.PUT("/lists/:id", s.updateList)
	secured.DELETE("/lists/:id", s.deleteList)

	secured.GET("/lists/:id/tasks", s.getTasks)
	secured.POST("/lists/:id/tasks", s.addTask)
	secured.GET("/tasks/:id", s.getTask)
	secured.PUT("/tasks/:id", s.updateTask)
	secured.DELETE("/tasks/:id", s.deleteTask)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
