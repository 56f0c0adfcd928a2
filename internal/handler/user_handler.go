package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/biswajit-debnath/control-room/internal/model"
	"github.com/biswajit-debnath/control-room/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the staff directory
type UserHandler struct {
	service service.AuthService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(s service.AuthService) *UserHandler {
	return &UserHandler{service: s}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, err := getAuthUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), actor)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error listing users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, newUserView(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

func (h *UserHandler) ListEODUsers(c *gin.Context) {
	users, err := h.service.ListEODUsers(c.Request.Context())
	if err != nil {
		log.Printf("Error listing EOD users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve EOD users"})
		return
	}
	if users == nil {
		users = []model.EODUser{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// RegisterUserRoutes registers user directory routes
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	userGroup := rg.Group("/users")
	userGroup.Use(authMW)
	{
		userGroup.GET("", h.ListUsers)
		userGroup.GET("/eod", h.ListEODUsers)
	}
}
