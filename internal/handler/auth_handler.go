package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/biswajit-debnath/control-room/internal/authz"
	"github.com/biswajit-debnath/control-room/internal/middleware"
	"github.com/biswajit-debnath/control-room/internal/model"
	"github.com/biswajit-debnath/control-room/internal/service"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the session cookie set on login
type CookieConfig struct {
	Name   string
	Secure bool
}

// userView is the user as shown to clients, with the signing flag every
// screen uses to decide whether to offer the sign action
type userView struct {
	ID        int        `json:"id"`
	Phone     string     `json:"phone"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	RoleLabel string     `json:"role_label"`
	CanSign   bool       `json:"can_sign"`
	CreatedAt time.Time  `json:"created_at"`
}

func newUserView(u *model.User) userView {
	return userView{
		ID:        u.ID,
		Phone:     u.Phone,
		Name:      u.Name,
		Role:      u.Role,
		RoleLabel: u.Role.Label(),
		CanSign:   authz.CanSign(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
	cookie  CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{service: s, cookie: cookie}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	meta := model.ClientMeta{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	res, err := h.service.Login(c.Request.Context(), req.Phone, req.Password, meta)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
			return
		}
		log.Printf("Error during login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}

	h.setSessionCookie(c, res.Token, int(time.Until(res.ExpiresAt).Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"user":       newUserView(res.User),
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.TokenFromRequest(c, h.cookie.Name)
	if err := h.service.Logout(c.Request.Context(), token); err != nil {
		log.Printf("Error during logout: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Session reports the signed-in user, or a null user for anonymous or
// invalid sessions. It never fails with an error status.
func (h *AuthHandler) Session(c *gin.Context) {
	token := middleware.TokenFromRequest(c, h.cookie.Name)
	user, err := h.service.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserView(user)})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, loginLimitMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		if loginLimitMW != nil {
			authGroup.POST("/login", loginLimitMW, h.Login)
		} else {
			authGroup.POST("/login", h.Login)
		}
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/session", h.Session)
	}
}
