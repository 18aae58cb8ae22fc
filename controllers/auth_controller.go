package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thehouse/forum/config"
	"github.com/thehouse/forum/middleware"
	"github.com/thehouse/forum/models"
	"github.com/thehouse/forum/utils"
)

const tokenDuration = 7 * 24 * time.Hour

// AuthController handles registration, login, logout, and admin-key
// promotion.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates an account and logs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	fields := map[string]string{}
	if len(req.Username) < 4 || len(req.Username) > 20 {
		fields["username"] = "must be 4-20 characters"
	} else if hasSpace(req.Username) {
		fields["username"] = "must not contain spaces"
	}
	if len(req.Password) < 4 {
		fields["password"] = "must be at least 4 characters"
	}
	if len(fields) == 0 {
		var count int64
		if err := a.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to check username")
			return
		}
		if count > 0 {
			// Usernames of deleted accounts stay reserved forever.
			fields["username"] = "already taken"
		}
	}
	if len(fields) > 0 {
		utils.FieldErrors(ctx, 40002, fields)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         models.RoleUser,
		JoinedAt:     time.Now(),
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to create user")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"username": user.Username, "token": token})
}

// Login verifies credentials and issues a token. Deleted accounts cannot
// log back in.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "incorrect username or password")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to load user")
		return
	}

	if user.Deleted {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "this account has been deleted")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "incorrect username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"username": user.Username, "token": token})
}

// Logout blacklists the presented token until it would expire anyway.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if token != "" {
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Whoami confirms a login, returning the username or null for anonymous
// callers.
func (a *AuthController) Whoami(ctx *gin.Context) {
	user, ok := currentUser(a.db, ctx)
	if !ok {
		utils.Success(ctx, nil)
		return
	}
	utils.Success(ctx, user.Username)
}

// Promote upgrades the acting user to admin when the configured admin key
// is enabled and matches. Everything else looks like a missing endpoint so
// the key's existence is not probeable.
func (a *AuthController) Promote(ctx *gin.Context) {
	var req struct {
		Key string `json:"key"`
	}
	_ = ctx.ShouldBindJSON(&req)

	cfg := config.Get()
	user, ok := currentUser(a.db, ctx)

	if !ok || !cfg.EnableAdminKey || cfg.AdminKey == "" || req.Key != cfg.AdminKey || user.Role == models.RoleAdmin {
		utils.Error(ctx, http.StatusNotFound, 40401, "not found")
		return
	}

	user.Role = models.RoleAdmin
	if err := a.db.Save(user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to promote user")
		return
	}

	utils.Sugar.Infow("user promoted to admin", "username", user.Username)
	utils.Success(ctx, gin.H{"message": "promoted successfully"})
}
