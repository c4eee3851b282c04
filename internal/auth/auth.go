// Package auth hashes dashboard passwords and issues the bearer tokens checked by
// middleware.AuthGuard.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"shopguide/internal/models"
	"shopguide/internal/store"
)

const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminExists        = errors.New("admin user already exists")
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs an HS256 token with sub, role, username and exp claims.
func IssueToken(user models.User, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID.Hex(),
		"role":     user.Role,
		"username": user.Username,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Authenticate resolves login as a username or email among active users and checks the
// password. Unknown users and wrong passwords both yield ErrInvalidCredentials.
func Authenticate(ctx context.Context, users store.UserStore, login, password string) (models.User, error) {
	user, err := users.FindUserByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return models.User{}, ErrInvalidCredentials
	}

	now := time.Now()
	if err := users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return models.User{}, err
	}
	user.LastLogin = &now
	return user, nil
}

// CreateFirstAdmin creates an admin account only while none exists.
func CreateFirstAdmin(ctx context.Context, users store.UserStore, username, email, password string) (models.User, error) {
	exists, err := users.AdminExists(ctx)
	if err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, ErrAdminExists
	}

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return models.User{}, fmt.Errorf("username and email are required")
	}
	if len(password) < MinPasswordLength {
		return models.User{}, fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := users.InsertUser(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
