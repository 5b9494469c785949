package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/codevhq/codev/internal/api/middleware"
	"github.com/codevhq/codev/internal/crypto"
	"github.com/codevhq/codev/internal/models"
	"github.com/codevhq/codev/pkg/logger"
	"github.com/codevhq/codev/pkg/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

type UserHandler struct {
	db         *sql.DB
	queries    *models.Queries
	jwtManager *crypto.JWTManager
	blacklist  *crypto.TokenBlacklist
}

func NewUserHandler(db *sql.DB, jwtManager *crypto.JWTManager, blacklist *crypto.TokenBlacklist) *UserHandler {
	return &UserHandler{
		db:         db,
		queries:    models.New(db),
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// CredentialsRequest is the register/login request body.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email}
}

// Register handles POST /users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 3 {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid email or password"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to hash password"})
		return
	}

	user, err := h.queries.CreateUser(c.Request.Context(), models.CreateUserParams{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			c.JSON(http.StatusConflict, types.ErrorResponse{Error: "email already registered"})
			return
		}
		logger.Errorf("create user: %v", err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to create user"})
		return
	}

	token, err := h.jwtManager.CreateToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to create token"})
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{User: toUserResponse(user), Token: token})
}

// Login handles POST /users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.queries.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		// Same response for unknown email and bad password.
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "invalid credentials"})
		return
	}

	token, err := h.jwtManager.CreateToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to create token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{User: toUserResponse(user), Token: token})
}

// Logout handles POST /users/logout. The bearer token is revoked for the
// remainder of its lifetime.
func (h *UserHandler) Logout(c *gin.Context) {
	if token, ok := middleware.GetToken(c); ok && h.blacklist != nil {
		h.blacklist.Revoke(token)
	}
	c.JSON(http.StatusOK, types.SuccessResponse{Success: true, Message: "logged out"})
}

// GetProfile handles GET /users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := h.queries.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// ListUsers handles GET /users/all. Returns every user except the caller,
// for the collaborator picker.
func (h *UserHandler) ListUsers(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	users, err := h.queries.ListUsersExcept(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to list users"})
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": resp})
}
