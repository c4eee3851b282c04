package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopguide/internal/auth"
	"shopguide/internal/middleware"
	"shopguide/internal/models"
	"shopguide/internal/store"
)

type LoginRequest struct {
	// Username accepts either the username or the email address.
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SetupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{ID: u.ID.Hex(), Username: u.Username, Email: u.Email, Role: u.Role}
}

func Login(users store.UserStore, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := auth.Authenticate(ctx, users, req.Username, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if err != nil {
			respondDomainError(c, route, err, "login failed")
			return
		}

		token, err := auth.IssueToken(user, jwtSecret, accessTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		zap.L().Info("login succeeded", zap.String("user", user.Username))
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  newUserResponse(user),
		})
	}
}

func GetMe(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/me"
		defer handlePanic(c, route)

		id, ok := middleware.UserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := users.GetUser(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}
		if err != nil {
			respondDomainError(c, route, err, "failed to get user info")
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
	}
}

// Setup creates the first admin account; it refuses once any admin exists.
func Setup(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/setup"
		defer handlePanic(c, route)

		var req SetupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := auth.CreateFirstAdmin(ctx, users, req.Username, req.Email, req.Password)
		if errors.Is(err, auth.ErrAdminExists) {
			respondWithError(c, http.StatusBadRequest, route, "Admin user already exists")
			return
		}
		if err != nil {
			respondDomainError(c, route, err, "failed to create admin user")
			return
		}

		zap.L().Info("admin user created", zap.String("user", user.Username))
		c.JSON(http.StatusCreated, gin.H{
			"message": "Admin user created successfully",
			"user":    newUserResponse(user),
		})
	}
}
