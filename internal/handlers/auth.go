package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/middleware"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
	"github.com/acejarvis/cash-or-card/backend/internal/store"
)

type AuthHandler struct {
	store  *store.Store
	auth   *middleware.Auth
	logger *slog.Logger
}

func NewAuthHandler(s *store.Store, auth *middleware.Auth, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{store: s, auth: auth, logger: logger}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}
	if err := h.store.Users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	token, err := h.auth.Issue(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	h.logger.Info("user registered", "id", user.ID)

	c.JSON(http.StatusCreated, models.AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    user,
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.Users.GetByEmail(c.Request.Context(), input.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.auth.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    *user,
	})
}

// Profile returns the current authenticated user
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.store.Users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile changes the current user's username or email
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.UserPatch
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.Users.Update(c.Request.Context(), userID, input)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	h.logger.Info("profile updated", "id", user.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}
