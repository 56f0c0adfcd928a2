package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/biswajit-debnath/control-room/internal/middleware"
	"github.com/biswajit-debnath/control-room/internal/model"
	"github.com/biswajit-debnath/control-room/internal/service"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// OperationHandler handles DG operation record requests
type OperationHandler struct {
	service service.OperationService
}

// NewOperationHandler creates a new OperationHandler
func NewOperationHandler(s service.OperationService) *OperationHandler {
	return &OperationHandler{service: s}
}

// Helper to get authenticated user from context
func getAuthUser(c *gin.Context) (*model.User, error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return nil, errors.New("authenticated user not found in context")
	}
	return user, nil
}

// writeServiceError maps service sentinels onto HTTP statuses. Anything
// unrecognised is logged and reported as a 500 with fallback as the message.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOperationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadySigned), errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func (h *OperationHandler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid operation ID"})
		return 0, false
	}
	return id, true
}

func (h *OperationHandler) parseDate(c *gin.Context, value string) (time.Time, bool) {
	date, err := time.ParseInLocation(dateLayout, value, h.service.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

// parseFilters reads the optional ?date= and ?shift= query parameters
func (h *OperationHandler) parseFilters(c *gin.Context) (model.OperationFilters, bool) {
	var filters model.OperationFilters
	if dateParam := c.Query("date"); dateParam != "" {
		date, ok := h.parseDate(c, dateParam)
		if !ok {
			return filters, false
		}
		filters.Date = &date
	}
	if shiftParam := c.Query("shift"); shiftParam != "" {
		shift, err := model.ParseShift(shiftParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return filters, false
		}
		filters.Shift = &shift
	}
	return filters, true
}

func (h *OperationHandler) CreateOperation(c *gin.Context) {
	actor, err := getAuthUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.CreateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	op, err := h.service.CreateOperation(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err, "Failed to create operation")
		return
	}
	c.JSON(http.StatusCreated, op)
}

func (h *OperationHandler) ListOperations(c *gin.Context) {
	filters, ok := h.parseFilters(c)
	if !ok {
		return
	}

	ops, err := h.service.ListAll(c.Request.Context(), filters)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve operations")
		return
	}
	c.JSON(http.StatusOK, ops)
}

func (h *OperationHandler) ListGroupedOperations(c *gin.Context) {
	filters, ok := h.parseFilters(c)
	if !ok {
		return
	}

	ops, err := h.service.ListAll(c.Request.Context(), filters)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve operations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": h.service.GroupByDate(ops), "total": len(ops)})
}

func (h *OperationHandler) GetOperationsByDate(c *gin.Context) {
	date, ok := h.parseDate(c, c.Param("date"))
	if !ok {
		return
	}

	ops, err := h.service.ListByDate(c.Request.Context(), date)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve operations")
		return
	}
	c.JSON(http.StatusOK, h.service.DayGroup(date, ops))
}

func (h *OperationHandler) GetOperationByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	op, err := h.service.GetOperation(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve operation")
		return
	}
	c.JSON(http.StatusOK, op)
}

// SignOperation countersigns a record as the authenticated EOD/AE user. The
// request has no body.
func (h *OperationHandler) SignOperation(c *gin.Context) {
	actor, err := getAuthUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	op, err := h.service.Sign(c.Request.Context(), id, actor)
	if err != nil {
		writeServiceError(c, err, "Failed to sign operation")
		return
	}
	c.JSON(http.StatusOK, op)
}

// RegisterOperationRoutes registers operation routes
func (h *OperationHandler) RegisterOperationRoutes(rg *gin.RouterGroup, authMW, viewMW, createMW, signMW gin.HandlerFunc) {
	opGroup := rg.Group("/operations")
	opGroup.Use(authMW)
	{
		opGroup.POST("", createMW, h.CreateOperation)
		opGroup.GET("", viewMW, h.ListOperations)
		opGroup.GET("/grouped", viewMW, h.ListGroupedOperations)
		opGroup.GET("/dates/:date", viewMW, h.GetOperationsByDate)
		opGroup.GET("/:id", viewMW, h.GetOperationByID)
		opGroup.PATCH("/:id/signature", signMW, h.SignOperation)
	}
}
