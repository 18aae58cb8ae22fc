package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thehouse/forum/forum"
	"github.com/thehouse/forum/middleware"
	"github.com/thehouse/forum/models"
	"github.com/thehouse/forum/utils"
)

// UserController serves profiles, profile updates, moderation toggles,
// account deletion, and the reply inbox.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

func (u *UserController) findByUsername(username string) (*models.User, error) {
	var user models.User
	if err := u.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser returns a profile with its recent activity feed. Deleted users
// are served as not found, same as missing ones.
func (u *UserController) GetUser(ctx *gin.Context) {
	user, err := u.findByUsername(ctx.Param("username"))
	if err != nil || user.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	var threads []models.Thread
	if err := u.db.Where("creator_id = ?", user.ID).Order("id").Find(&threads).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load activity")
		return
	}
	var posts []models.Post
	if err := u.db.Where("author_id = ?", user.ID).Order("id").Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load activity")
		return
	}

	var pictureURL interface{}
	if user.PictureFilename != "" {
		pictureURL = "/up/" + user.PictureFilename
	}

	utils.Success(ctx, gin.H{
		"username":          user.Username,
		"role":              user.Role,
		"bio":               user.Bio,
		"joined_date":       user.JoinedAt,
		"deleted":           user.Deleted,
		"picture_url":       pictureURL,
		"recent_activities": activityRefs(forum.UserActivity(threads, posts)),
	})
}

// UpdateUser alters bio, role, or profile picture. Bio and picture: the
// user themself or an admin. Role: admin only, and only between user and
// moderator.
func (u *UserController) UpdateUser(ctx *gin.Context) {
	actor, ok := currentUser(u.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	user, err := u.findByUsername(ctx.Param("username"))
	if err != nil || user.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	selfOrAdmin := actor.Role == models.RoleAdmin || actor.ID == user.ID
	altered := false

	if role, present := formValue(ctx, "role"); present {
		if actor.Role != models.RoleAdmin {
			utils.Error(ctx, http.StatusForbidden, 40310, "only admins may change roles")
			return
		}
		if role != models.RoleUser && role != models.RoleModerator {
			utils.Error(ctx, http.StatusBadRequest, 40010, "role must be user or moderator")
			return
		}
		user.Role = role
		altered = true
	}

	if bio, present := formValue(ctx, "bio"); present {
		if !selfOrAdmin {
			utils.Error(ctx, http.StatusForbidden, 40311, "cannot edit someone else's profile")
			return
		}
		bio = strings.TrimSpace(bio)
		if len(bio) > 60 {
			utils.FieldErrors(ctx, 40011, map[string]string{"bio": "must be at most 60 characters"})
			return
		}
		user.Bio = bio
		altered = true
	}

	if file, header, err := ctx.Request.FormFile("picture"); err == nil {
		defer file.Close()
		if !selfOrAdmin {
			utils.Error(ctx, http.StatusForbidden, 40311, "cannot edit someone else's profile")
			return
		}
		if user.PictureFilename != "" {
			utils.DeleteUpload(user.PictureFilename)
		}
		filename := utils.GenerateUploadsFilename(header.Filename)
		if err := utils.SaveToUploads(file, filename); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to store picture")
			return
		}
		user.PictureFilename = filename
		altered = true
	}

	if !altered {
		utils.Success(ctx, gin.H{"message": "no changes were made"})
		return
	}

	if err := u.db.Save(user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to update user")
		return
	}
	utils.Success(ctx, gin.H{"message": "changes committed successfully"})
}

// ToggleModerator flips a user between the user and moderator roles.
// Admins only; admins themselves cannot be toggled.
func (u *UserController) ToggleModerator(ctx *gin.Context) {
	actor, ok := currentUser(u.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if actor.Role != models.RoleAdmin {
		utils.Error(ctx, http.StatusForbidden, 40312, "only admins may toggle moderators")
		return
	}

	user, err := u.findByUsername(ctx.Param("username"))
	if err != nil || user.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}
	if user.Role == models.RoleAdmin {
		utils.Error(ctx, http.StatusBadRequest, 40012, "cannot toggle an admin")
		return
	}

	if user.Role == models.RoleUser {
		user.Role = models.RoleModerator
	} else {
		user.Role = models.RoleUser
	}
	if err := u.db.Save(user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to update role")
		return
	}
	utils.Success(ctx, gin.H{"username": user.Username, "role": user.Role})
}

// DeleteUser soft-deletes an account and cascades to everything it owns.
// Admins or the user themself. Deleting twice yields not found, since a
// deleted profile no longer resolves.
func (u *UserController) DeleteUser(ctx *gin.Context) {
	actor, ok := currentUser(u.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	user, err := u.findByUsername(ctx.Param("username"))
	if err != nil || user.Deleted {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	if actor.Role != models.RoleAdmin && actor.ID != user.ID {
		utils.Error(ctx, http.StatusForbidden, 40313, "cannot delete someone else's account")
		return
	}

	err = u.db.Transaction(func(tx *gorm.DB) error {
		return forum.DeleteUser(tx, user, utils.DeleteUpload)
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to delete user")
		return
	}

	// Self-deletion terminates the session: the token identifies nobody now,
	// revoke it outright.
	if actor.ID == user.ID {
		token := ctx.GetString(middleware.ContextTokenKey)
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}

	utils.Sugar.Infow("user deleted", "username", user.Username, "by", actor.Username)
	utils.Success(ctx, gin.H{"message": "user deleted successfully"})
}

// Inbox returns replies to the actor's posts, most recent first.
func (u *UserController) Inbox(ctx *gin.Context) {
	actor, ok := currentUser(u.db, ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var posts []models.Post
	if err := u.db.Where("deleted = ?", false).Order("id").Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to load posts")
		return
	}

	replies := forum.Inbox(actor.ID, posts)

	authorIDs := make([]uint, 0, len(replies))
	for _, p := range replies {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	authors, err := usersByID(u.db, authorIDs)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to load authors")
		return
	}

	// Storage order comes out of the resolver; the API shows newest first.
	items := make([]gin.H, 0, len(replies))
	for i := len(replies) - 1; i >= 0; i-- {
		post := replies[i]
		author, found := authors[post.AuthorID]
		var authorPtr *models.User
		if found {
			authorPtr = &author
		}
		items = append(items, postJSON(post, authorPtr))
	}
	utils.Success(ctx, items)
}

// formValue reads a field from either multipart/urlencoded form data,
// reporting whether it was present at all.
func formValue(ctx *gin.Context, key string) (string, bool) {
	if ctx.Request.Form == nil {
		_ = ctx.Request.ParseMultipartForm(32 << 20)
	}
	values, ok := ctx.Request.Form[key]
	if !ok {
		if ctx.Request.PostForm != nil {
			values, ok = ctx.Request.PostForm[key]
		}
	}
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
